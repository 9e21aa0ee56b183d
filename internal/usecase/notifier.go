package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
)

const maxPendingNotifications = 50

// Notifier queues toasts and navigations until the UI drains them. The oldest
// entries are dropped when the queue is full.
type Notifier struct {
	translator Translator
	now        func() time.Time

	mu    sync.Mutex
	queue []models.Notification
}

func NewNotifier(translator Translator) *Notifier {
	return &Notifier{translator: translator, now: time.Now}
}

func (n *Notifier) push(item models.Notification) {
	item.ID = uuid.NewString()
	item.At = n.now()

	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.queue) >= maxPendingNotifications {
		n.queue = n.queue[1:]
	}
	n.queue = append(n.queue, item)
}

// Notify queues a toast whose message is the translation of key.
func (n *Notifier) Notify(ctx context.Context, level models.NotificationLevel, key string, data any) {
	n.push(models.Notification{
		Level:   level,
		Key:     key,
		Message: n.translator.Render(ctx, key, data),
	})
}

// Navigate queues a redirect to route.
func (n *Notifier) Navigate(route string) {
	n.push(models.Notification{Route: route})
}

// Drain returns and clears the queued notifications.
func (n *Notifier) Drain() []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.queue
	n.queue = nil
	if out == nil {
		out = []models.Notification{}
	}
	return out
}
