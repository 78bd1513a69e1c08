// Package worker runs the background side of the service: delivering ticket
// notifications from Kafka and periodically backfilling ticket snapshots.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/happyflights/flightbooking/internal/kafka"
	"github.com/happyflights/flightbooking/internal/service/booking"
	"github.com/happyflights/flightbooking/pkg/logger"
	"go.uber.org/zap"
)

type EventSource interface {
	Consume(ctx context.Context, handler func(context.Context, kafka.TicketEvent) error) error
}

type Notifier interface {
	Send(ctx context.Context, event kafka.TicketEvent) error
}

type Backfiller interface {
	BackfillSnapshots(ctx context.Context) (*booking.BackfillReport, error)
}

type Worker struct {
	events   EventSource
	notifier Notifier
	backfill Backfiller
	interval time.Duration
}

type Option func(*Worker)

// WithNotifications delivers every consumed event through notifier.
func WithNotifications(events EventSource, notifier Notifier) Option {
	return func(w *Worker) {
		w.events = events
		w.notifier = notifier
	}
}

// WithBackfill runs the snapshot backfill every interval.
func WithBackfill(b Backfiller, interval time.Duration) Option {
	return func(w *Worker) {
		w.backfill = b
		w.interval = interval
	}
}

func New(opts ...Option) *Worker {
	w := &Worker{}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is done. A consumer failure is logged and stops only
// notification delivery.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup

	if w.events != nil && w.notifier != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.consume(ctx)
		}()
	}
	if w.backfill != nil && w.interval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.sweep(ctx)
		}()
	}

	<-ctx.Done()
	wg.Wait()
}

func (w *Worker) consume(ctx context.Context) {
	log := logger.WithComponent("worker")
	err := w.events.Consume(ctx, func(ctx context.Context, event kafka.TicketEvent) error {
		return w.notifier.Send(ctx, event)
	})
	if err != nil {
		log.Error("consumer stopped", zap.Error(err))
	}
}

func (w *Worker) sweep(ctx context.Context) {
	log := logger.WithComponent("worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			report, err := w.backfill.BackfillSnapshots(ctx)
			if err != nil {
				log.Error("snapshot backfill failed", zap.Error(err))
				continue
			}
			if report.Total > 0 {
				log.Info("snapshot backfill finished",
					zap.Int("updated", report.Updated),
					zap.Int("failed", report.Failed),
					zap.Int("total", report.Total))
			}
		case <-ctx.Done():
			return
		}
	}
}
