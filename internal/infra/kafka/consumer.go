package kafka

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/segmentio/kafka-go"
)

// Handler returns nil only when the message may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer fans messages out to workers by partition. A worker handles its
// messages in offset order and retries a failing one until it succeeds, so an
// offset is committed only after everything before it on that partition.
type Consumer struct {
	r          messageReader
	workers    int
	newBackOff func() backoff.BackOff
}

func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return newConsumer(r, workers, defaultBackOff)
}

func newConsumer(r messageReader, workers int, newBackOff func() backoff.BackOff) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	if newBackOff == nil {
		newBackOff = defaultBackOff
	}
	return &Consumer{r: r, workers: workers, newBackOff: newBackOff}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	return b
}

// Start blocks until ctx is done or the reader fails. Messages still being
// retried at that point stay uncommitted and are redelivered.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lanes := make([]chan kafka.Message, c.workers)
	for i := range lanes {
		lanes[i] = make(chan kafka.Message, 4)
		wg.Add(1)
		go func(lane <-chan kafka.Message) {
			defer wg.Done()
			c.work(ctx, lane, h)
		}(lanes[i])
	}
	defer func() {
		for _, l := range lanes {
			close(l)
		}
	}()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case lanes[laneFor(m.Partition, c.workers)] <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

func laneFor(partition, workers int) int {
	if partition < 0 {
		partition = -partition
	}
	return partition % workers
}

func (c *Consumer) work(ctx context.Context, lane <-chan kafka.Message, h Handler) {
	for m := range lane {
		if err := c.handle(ctx, h, m); err != nil {
			// ctx ended; later offsets on this lane must not be committed either
			return
		}
		if err := c.r.CommitMessages(ctx, m); err != nil {
			log.Printf("kafka commit topic=%s partition=%d offset=%d: %v", m.Topic, m.Partition, m.Offset, err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, h Handler, m kafka.Message) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, h(ctx, m)
	},
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Printf("kafka handler topic=%s partition=%d offset=%d: %v (retry in %s)", m.Topic, m.Partition, m.Offset, err, next)
		}),
	)
	return err
}
