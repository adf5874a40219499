package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/vitalcoach-backend/internal/logger"
	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
)

const (
	planEventChannelPrefix = "plans:user:"
	planEventType          = "plan_changed"
	maxSubscriberBackoff   = 30 * time.Second
)

// Plan change reasons carried by PlanEvent.
const (
	PlanRevised    = "revised"
	PlanReset      = "reset"
	PlansGenerated = "generated"
)

// PlanEvent tells a user's open connections that a plan changed, so other
// tabs and devices can refetch.
type PlanEvent struct {
	Type      string      `json:"type"`
	UserID    string      `json:"user_id"`
	Role      models.Role `json:"role,omitempty"` // empty for PlansGenerated
	Reason    string      `json:"reason"`
	Version   int         `json:"version,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventConn is the minimal interface a WebSocket connection must satisfy.
type EventConn interface {
	WriteJSON(v interface{}) error
}

// PlanNotifier receives plan changes from the Coach.
type PlanNotifier interface {
	Publish(ctx context.Context, event PlanEvent)
}

// EventHub fans plan events out to the user's connections. With Redis,
// events go through pub/sub so every instance delivers to its own
// connections; without it delivery is local only.
type EventHub struct {
	rdb redis.UniversalClient
	log *logger.Logger

	mu    sync.RWMutex
	conns map[string]map[EventConn]struct{}

	started sync.Once
}

// NewEventHub builds a hub. rdb may be nil.
func NewEventHub(rdb redis.UniversalClient, log *logger.Logger) *EventHub {
	if log == nil {
		log = logger.Nop()
	}
	return &EventHub{rdb: rdb, log: log, conns: make(map[string]map[EventConn]struct{})}
}

// Subscribe registers conn for userID's events. The returned func removes it.
func (h *EventHub) Subscribe(userID string, conn EventConn) func() {
	h.mu.Lock()
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[EventConn]struct{})
		h.conns[userID] = set
	}
	set[conn] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.conns[userID], conn)
			if len(h.conns[userID]) == 0 {
				delete(h.conns, userID)
			}
		})
	}
}

// Publish delivers event to every connection of event.UserID.
func (h *EventHub) Publish(ctx context.Context, event PlanEvent) {
	event.Type = planEventType
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if h.rdb == nil {
		h.fanOut(event)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal plan event", "error", err)
		return
	}
	if err := h.rdb.Publish(ctx, planEventChannelPrefix+event.UserID, data).Err(); err != nil {
		h.log.Warn("plan event publish failed, delivering locally", "user_id", event.UserID, "error", err)
		h.fanOut(event)
	}
}

func (h *EventHub) fanOut(event PlanEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.conns[event.UserID] {
		// Non-blocking best-effort send.
		go func(c EventConn) {
			if err := c.WriteJSON(event); err != nil {
				h.log.Debug("failed to write plan event", "user_id", event.UserID, "error", err)
			}
		}(conn)
	}
}

// Start runs the Redis subscriber once per hub. It is a no-op without Redis.
func (h *EventHub) Start(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	h.started.Do(func() {
		go h.runSubscriber(ctx)
	})
}

func (h *EventHub) runSubscriber(ctx context.Context) {
	backoff := time.Second
	for ctx.Err() == nil {
		if h.receive(ctx) {
			backoff = time.Second
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxSubscriberBackoff {
			backoff = maxSubscriberBackoff
		}
	}
}

// receive consumes events until the subscription fails. It reports whether
// the subscription was established at all.
func (h *EventHub) receive(ctx context.Context) bool {
	pubsub := h.rdb.PSubscribe(ctx, planEventChannelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		h.log.Warn("plan event subscribe failed", "error", err)
		return false
	}
	h.log.Info("plan event subscriber started", "pattern", planEventChannelPrefix+"*")

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				h.log.Warn("plan event subscriber error", "error", err)
			}
			return true
		}

		var event PlanEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			h.log.Warn("failed to unmarshal plan event", "error", err)
			continue
		}
		if event.UserID == "" {
			event.UserID = strings.TrimPrefix(msg.Channel, planEventChannelPrefix)
		}
		h.fanOut(event)
	}
}
