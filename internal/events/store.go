package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"aitubertalk/server/internal/hub"
)

// Record is one entry in a room's event log.
type Record struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Event     hub.Event `json:"event"`
}

// Store keeps a bounded per-room event log for the UI/debug surface. It is
// fed by a hub subscription; see Attach.
type Store struct {
	mu     sync.RWMutex
	byRoom map[string][]Record
	max    int
}

func NewStore(maxPerRoom int) *Store {
	if maxPerRoom <= 0 {
		maxPerRoom = 200
	}
	return &Store{byRoom: make(map[string][]Record), max: maxPerRoom}
}

// Attach subscribes the store to the hub. Returns the subscription handle so
// the caller can detach on shutdown.
func (s *Store) Attach(h *hub.Hub) hub.Handle {
	return h.Subscribe(func(e hub.Event) {
		s.Append(e)
	})
}

func (s *Store) Append(e hub.Event) Record {
	rec := Record{
		ID:        uuid.New().String(),
		RoomID:    e.RoomID,
		Type:      e.Type,
		Timestamp: e.Timestamp,
		Event:     e,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRoom[e.RoomID] = append(s.byRoom[e.RoomID], rec)
	// Cap per-room history to avoid unbounded growth.
	if l := len(s.byRoom[e.RoomID]); l > s.max {
		s.byRoom[e.RoomID] = append([]Record(nil), s.byRoom[e.RoomID][l-s.max:]...)
	}
	return rec
}

func (s *Store) List(roomID string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.byRoom[roomID]
	out := make([]Record, len(src))
	copy(out, src)
	return out
}

// Forget drops a room's history when the room is destroyed.
func (s *Store) Forget(roomID string) {
	s.mu.Lock()
	delete(s.byRoom, roomID)
	s.mu.Unlock()
}
