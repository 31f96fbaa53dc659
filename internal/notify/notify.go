// Package notify fans waiter notifications out to the connected screens,
// to device push and to the message broker. Delivery is fire-and-forget:
// sinks log their own failures and never report them to the caller.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"qrdine-backend/internal/models"
)

// Sink receives notifications.
type Sink interface {
	Notify(ctx context.Context, n models.Notification)
}

// Func adapts a plain function to a Sink.
type Func func(ctx context.Context, n models.Notification)

func (f Func) Notify(ctx context.Context, n models.Notification) { f(ctx, n) }

// Multi delivers every notification to each sink in order. It stamps an
// id and creation time on notifications that lack them.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, n models.Notification) {
	n = Stamp(n, time.Now())
	for _, s := range m {
		if s != nil {
			s.Notify(ctx, n)
		}
	}
}

// Stamp fills the id and creation time when they are unset.
func Stamp(n models.Notification, now time.Time) models.Notification {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt == 0 {
		n.CreatedAt = now.UnixMilli()
	}
	return n
}

// background runs detached deliveries and lets the owner wait for them.
type background struct {
	wg sync.WaitGroup
}

// run calls fn in a goroutine with a context that survives cancellation of ctx (the
// request that triggered the notification) but is bounded by timeout.
func (b *background) run(ctx context.Context, timeout time.Duration, fn func(ctx context.Context)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		fn(ctx)
	}()
}

func (b *background) wait() { b.wg.Wait() }

// LogSink writes notifications to the service log.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Notify(_ context.Context, n models.Notification) {
	fields := []zap.Field{zap.String("id", n.ID), zap.String("kind", string(n.Kind))}
	if n.Kind == models.NotificationError {
		s.Logger.Warn("🔔 "+n.Message, fields...)
		return
	}
	s.Logger.Info("🔔 "+n.Message, fields...)
}
