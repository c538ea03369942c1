package repository

import "context"

// Repositories bound to one store transaction.
type TxRepos interface {
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Payments() PaymentRepository
	Carts() CartRepository
	CartItems() CartItemRepository
	Inventory() InventoryRepository
	Products() ProductRepository
	AuditLogs() AuditLogRepository
}

// Hides begin/commit/rollback from the usecases. fn returning an error rolls back.
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
