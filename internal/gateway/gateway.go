package gateway

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomePaid   Outcome = "PAID"
	OutcomeFailed Outcome = "FAILED"
)

var ErrUnavailable = errors.New("payment gateway unavailable")

// Gateway decides whether an instant payment went through.
type Gateway interface {
	ConfirmPayment(ctx context.Context, orderID int64, vpa string) (Outcome, error)
}

var refNamespace = uuid.MustParse("6f1c2a9e-3b7d-4c5e-9a14-2d8f0b6e7c31")

// Reference derives the stable gateway reference of an order.
func Reference(orderID int64) string {
	return "UPI-" + uuid.NewSHA1(refNamespace, []byte(strconv.FormatInt(orderID, 10))).String()
}
