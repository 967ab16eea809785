// Package notify implements the Notifier port.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/streamhub/internal/domain/model"
	"github.com/ericfisherdev/streamhub/internal/domain/port/driven"
)

var (
	_ driven.Notifier = (*Log)(nil)
	_ driven.Notifier = (*Queue)(nil)
	_ driven.Notifier = Multi(nil)
)

// Log writes notifications to a logger. Errors are logged at warn level.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a Log notifier.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, n model.Notification) {
	level := slog.LevelInfo
	if n.Level == model.NotificationError {
		level = slog.LevelWarn
	}
	l.logger.Log(ctx, level, n.Message, "notification", string(n.Level))
}

// Queue buffers notifications until the GUI drains them as flash messages.
// When full, the oldest notification is dropped.
type Queue struct {
	mu    sync.Mutex
	items []model.Notification
	limit int
}

// NewQueue creates a Queue holding at most limit notifications.
func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = 1
	}
	return &Queue{limit: limit}
}

func (q *Queue) Notify(_ context.Context, n model.Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == q.limit {
		q.items = q.items[1:]
	}
	q.items = append(q.items, n)
}

// Drain returns and removes all pending notifications, oldest first.
func (q *Queue) Drain() []model.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

// Multi fans a notification out to every notifier in order.
type Multi []driven.Notifier

func (m Multi) Notify(ctx context.Context, n model.Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}
