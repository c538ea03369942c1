package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/events"
	"github.com/segmentio/kafka-go"
)

// ErrProducerClosed is returned by Publish once the writer loop has exited.
var ErrProducerClosed = errors.New("kafka producer closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer hands messages to a single writer goroutine through a buffered inbox.
type Producer struct {
	w       messageWriter
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewProducer(brokers []string, buf int) *Producer {
	return newProducer(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}, buf)
}

func newProducer(w messageWriter, buf int) *Producer {
	if buf <= 0 {
		buf = 1
	}
	return &Producer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the writer loop until ctx is done, then flushes what is queued.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *Producer) drain() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			if err := p.w.Close(); err != nil {
				log.Printf("kafka writer close: %v", err)
			}
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		log.Printf("kafka publish topic=%s key=%s: %v", m.Topic, m.Key, err)
	}
}

// Publish enqueues; it blocks only while the inbox is full. Stop publishers
// before cancelling the Start context or late messages are refused.
func (p *Producer) Publish(ctx context.Context, topic string, key string, env events.Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	m := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: b,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
		},
	}

	select {
	case <-p.closeCh:
		return ErrProducerClosed
	default:
	}

	select {
	case p.inbox <- m:
		return nil
	case <-p.closeCh:
		return ErrProducerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitClosed blocks until the writer loop has flushed and exited.
func (p *Producer) WaitClosed() { <-p.closeCh }
