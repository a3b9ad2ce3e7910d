package usecase

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

// notificationCap bounds how many notifications are kept per user; older
// ones fall off.
const notificationCap = 50

// NotificationCenter is the ephemeral per-user notification feed. Events
// from the pipeline land here and the client polls them; nothing is
// persisted, a restart empties the feed.
type NotificationCenter struct {
	mu     sync.Mutex
	byUser map[string][]domain.Notification
	now    func() time.Time
}

func NewNotificationCenter() *NotificationCenter {
	return &NotificationCenter{
		byUser: map[string][]domain.Notification{},
		now:    time.Now,
	}
}

func (c *NotificationCenter) Push(userID, title, description string, typ domain.NotificationType, relatedID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := append(c.byUser[userID], domain.Notification{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Type:        typ,
		RelatedID:   relatedID,
		Timestamp:   c.now().UTC(),
	})
	if len(list) > notificationCap {
		list = list[len(list)-notificationCap:]
	}
	c.byUser[userID] = list
}

// List returns the user's notifications, newest first.
func (c *NotificationCenter) List(userID string) []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.byUser[userID]
	out := make([]domain.Notification, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
	}
	return out
}

func (c *NotificationCenter) MarkRead(userID, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.byUser[userID]
	for i := range list {
		if list[i].ID == id {
			list[i].Read = true
			return true
		}
	}
	return false
}

func (c *NotificationCenter) MarkAllRead(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.byUser[userID]
	for i := range list {
		list[i].Read = true
	}
}
