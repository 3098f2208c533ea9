package hub

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"aitubertalk/server/internal/floor"
)

// Event types fanned out to subscribers. Names match the platform's public
// event vocabulary.
const (
	EventFloorGranted      = "floor-granted"
	EventFloorDenied       = "floor-denied"
	EventFloorReleased     = "floor-released"
	EventFloorStateChanged = "floor-state-changed"
	EventRoomJoined        = "room-joined"
	EventRoomLeft          = "room-left"
	EventParticipantJoined = "participant-joined"
	EventParticipantLeft   = "participant-left"
	EventMessageReceived   = "message-received"
)

// Message is a chat message relayed to everyone in the room, including the
// sender.
type Message struct {
	ID            string    `json:"id"`
	RoomID        string    `json:"room_id"`
	SenderID      string    `json:"sender_id"`
	SenderName    string    `json:"sender_name"`
	Content       string    `json:"content"`
	TargetAITuber string    `json:"target_aituber,omitempty"`
	SentAt        time.Time `json:"sent_at"`
}

// Event is a room-scoped notification. Timestamp is wall clock, for display
// only.
type Event struct {
	Type          string          `json:"type"`
	RoomID        string          `json:"room_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Lease         *floor.Lease    `json:"lease,omitempty"`
	ParticipantID string          `json:"participant_id,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	QueuePosition int             `json:"queue_position,omitempty"`
	Snapshot      *floor.Snapshot `json:"snapshot,omitempty"`
	Message       *Message        `json:"message,omitempty"`
}

// Handle identifies a subscription for unsubscribe.
type Handle string

type subscriber struct {
	fn func(Event)
}

// Hub fans events out to all current subscribers. Delivery is best-effort:
// a subscriber that panics is logged and skipped, and never blocks delivery
// to the others or corrupts arbitration state.
type Hub struct {
	mu   sync.RWMutex
	subs map[Handle]subscriber
}

func New() *Hub {
	return &Hub{subs: make(map[Handle]subscriber)}
}

// Subscribe registers fn for every published event and returns a handle for
// Unsubscribe.
func (h *Hub) Subscribe(fn func(Event)) Handle {
	handle := Handle(uuid.New().String())
	h.mu.Lock()
	h.subs[handle] = subscriber{fn: fn}
	h.mu.Unlock()
	return handle
}

// Unsubscribe removes a subscription. Unknown handles are a no-op.
func (h *Hub) Unsubscribe(handle Handle) {
	h.mu.Lock()
	delete(h.subs, handle)
	h.mu.Unlock()
}

// Publish delivers evt to the subscribers registered at the moment of
// emission.
func (h *Hub) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	h.mu.RLock()
	fns := make([]func(Event), 0, len(h.subs))
	for _, s := range h.subs {
		fns = append(fns, s.fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		deliver(fn, evt)
	}
}

func deliver(fn func(Event), evt Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[hub] subscriber panic on %s: %v", evt.Type, r)
		}
	}()
	fn(evt)
}
