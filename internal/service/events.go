package service

import (
	"sync"
	"time"

	"dosh_badges/pkg/logger"

	"go.uber.org/zap"
)

type EventType string

const (
	EventProgress         EventType = "progress"
	EventBadgeEarned      EventType = "badge-earned"
	EventMilestoneEarned  EventType = "milestone-earned"
	EventDeadlineExtended EventType = "deadline-extended"
	EventActionCompleted  EventType = "action-completed"
	EventReferral         EventType = "referral"
)

// Event is a progress notification pushed to stream subscribers.
type Event struct {
	Type        EventType `json:"type"`
	BadgeID     string    `json:"badgeId"`
	UserID      string    `json:"userId,omitempty"`
	MilestoneID string    `json:"milestoneId,omitempty"`
	ActionID    string    `json:"actionId,omitempty"`
	Progress    *int      `json:"progress,omitempty"`
	Message     string    `json:"message,omitempty"`
	At          time.Time `json:"at"`
}

const defaultSubscriberBuffer = 16

// Hub fans events out to subscribers. A subscriber that falls behind loses
// events rather than blocking publishers.
type Hub struct {
	subs   map[int]chan Event
	next   int
	closed bool
	sync.Mutex
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe returns the event channel and a function that releases it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.Lock()
	defer h.Unlock()

	ch := make(chan Event, defaultSubscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.next
	h.next++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.Lock()
			defer h.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers e to every subscriber. A nil hub discards events.
func (h *Hub) Publish(e Event) {
	if h == nil {
		return
	}
	h.Lock()
	defer h.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- e:
		default:
			logger.Logger().Warn("Dropping event for slow subscriber",
				zap.Int("subscriber", id),
				zap.String("type", string(e.Type)),
				zap.String("badge_id", e.BadgeID))
		}
	}
}

// Close ends every subscription. Later subscribers receive a closed channel.
func (h *Hub) Close() {
	h.Lock()
	defer h.Unlock()

	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Hub) Subscribers() int {
	h.Lock()
	defer h.Unlock()
	return len(h.subs)
}
