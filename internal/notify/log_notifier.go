package notify

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogNotifier writes notifications to the log. Used in dev and as a
// fallback when Redis is not configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	log.Info().
		Str("user_id", n.UserID.String()).
		Str("kind", n.Kind).
		Str("link", n.Link).
		Msg(n.Message)
	return nil
}
