package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"qrdine-backend/internal/models"
	"qrdine-backend/internal/services"
)

// Pusher sends a push message to device tokens.
type Pusher interface {
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) (services.MulticastResult, error)
}

// TokenStore lists and prunes registered device tokens.
type TokenStore interface {
	Tokens(ctx context.Context) ([]string, error)
	TokensForWaiter(ctx context.Context, waiterID string) ([]string, error)
	Delete(ctx context.Context, token string) error
}

// PushSink sends notifications as FCM pushes. Addressed notifications go
// to the waiter's own devices, the rest to every registered device.
type PushSink struct {
	pusher  Pusher
	tokens  TokenStore
	logger  *zap.Logger
	timeout time.Duration
	bg      background
}

func NewPushSink(pusher Pusher, tokens TokenStore, logger *zap.Logger) *PushSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PushSink{pusher: pusher, tokens: tokens, logger: logger, timeout: 10 * time.Second}
}

func (s *PushSink) Notify(ctx context.Context, n models.Notification) {
	s.bg.run(ctx, s.timeout, func(ctx context.Context) {
		var tokens []string
		var err error
		if n.WaiterID != "" {
			tokens, err = s.tokens.TokensForWaiter(ctx, n.WaiterID)
		} else {
			tokens, err = s.tokens.Tokens(ctx)
		}
		if err != nil {
			s.logger.Warn("⚠️  Could not load FCM tokens", zap.Error(err))
			return
		}
		if len(tokens) == 0 {
			return
		}

		res, err := s.pusher.SendMulticast(ctx, tokens, "QR Dine", n.Message, map[string]string{
			"type":            "notification",
			"notification_id": n.ID,
			"kind":            string(n.Kind),
			"icon":            n.Icon,
		})
		if err != nil {
			s.logger.Warn("⚠️  FCM push failed", zap.Error(err))
			return
		}
		s.logger.Debug("📲 FCM push sent",
			zap.Int("success", res.SuccessCount),
			zap.Int("failure", res.FailureCount))

		for _, stale := range res.FailedTokens {
			if err := s.tokens.Delete(ctx, stale); err != nil {
				s.logger.Warn("⚠️  Could not prune FCM token", zap.Error(err))
			}
		}
	})
}

// Close waits for in-flight pushes.
func (s *PushSink) Close() { s.bg.wait() }
