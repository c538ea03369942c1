package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/events"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/infra/kafka"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/usecase"
)

// PaymentResultConsumer feeds payment.results messages into HandlePaymentResult.
// Messages that can never succeed are logged and committed; anything else is retried.
func PaymentResultConsumer(payments *usecase.PaymentUsecase) kafka.Handler {
	return func(ctx context.Context, m kafkago.Message) error {
		var env events.Envelope
		if err := json.Unmarshal(m.Value, &env); err != nil {
			log.Printf("payment result offset=%d: bad envelope: %v", m.Offset, err)
			return nil
		}
		if env.EventType != events.EventPaymentResult {
			return nil
		}

		p, err := events.UnwrapPayload[events.PaymentResultPayload](env.Payload)
		if err != nil {
			log.Printf("payment result event=%s: %v", env.EventID, err)
			return nil
		}

		err = payments.HandlePaymentResult(ctx, usecase.PaymentResultInput{
			EventID: env.EventID,
			OrderID: p.OrderID,
			Status:  p.Status,
		})
		if errors.Is(err, usecase.ErrValidation) || errors.Is(err, usecase.ErrNotFound) {
			log.Printf("payment result event=%s order=%d dropped: %v", env.EventID, p.OrderID, err)
			return nil
		}
		return err
	}
}
