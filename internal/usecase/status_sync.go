package usecase

import "github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"

// PaymentStatusForOrder is the order -> payment table.
func PaymentStatusForOrder(method model.PaymentMethod, next model.OrderStatus) model.PaymentStatus {
	switch method {
	case model.PaymentMethodCOD:
		switch next {
		case model.OrderStatusDelivered:
			return model.PaymentStatusPaid
		case model.OrderStatusCancelled, model.OrderStatusExpired:
			return model.PaymentStatusFailed
		case model.OrderStatusRefunded:
			return model.PaymentStatusRefunded
		default:
			return model.PaymentStatusPending
		}
	case model.PaymentMethodUPI:
		switch next {
		case model.OrderStatusCancelled, model.OrderStatusExpired:
			return model.PaymentStatusFailed
		case model.OrderStatusRefunded:
			return model.PaymentStatusRefunded
		case model.OrderStatusPending:
			return model.PaymentStatusPending
		default:
			return model.PaymentStatusPaid
		}
	}
	return model.PaymentStatusPending
}

// OrderStatusForPayment is the payment -> order table.
func OrderStatusForPayment(current model.OrderStatus, next model.PaymentStatus) model.OrderStatus {
	switch next {
	case model.PaymentStatusPaid:
		if current == model.OrderStatusPending {
			return model.OrderStatusProcessing
		}
		return current
	case model.PaymentStatusRefunded:
		return model.OrderStatusRefunded
	case model.PaymentStatusFailed, model.PaymentStatusPending:
		return model.OrderStatusPending
	}
	return current
}
