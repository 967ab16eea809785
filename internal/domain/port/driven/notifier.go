package driven

import (
	"context"

	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

// Notifier delivers user-visible notifications.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}
