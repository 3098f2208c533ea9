package rooms

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const maxAITuberCap = 10

var (
	ErrNotFound        = errors.New("room not found")
	ErrNameRequired    = errors.New("room name is required")
	ErrTooManyAITubers = errors.New("max_aitubers cannot exceed 10")
	ErrRoomFull        = errors.New("room aituber capacity reached")
	ErrAlreadyJoined   = errors.New("participant already in room")
	ErrNotMember       = errors.New("participant not in room")
)

// Participant types.
const (
	TypeHuman   = "human"
	TypeAITuber = "aituber"
)

type Participant struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Name     string    `json:"name"`
	UserID   string    `json:"user_id,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

type Room struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	OwnerID      string        `json:"owner_id"`
	MaxAITubers  int           `json:"max_aitubers"`
	IsPublic     bool          `json:"is_public"`
	CreatedAt    time.Time     `json:"created_at"`
	Participants []Participant `json:"participants"`
}

// CreateConfig carries room creation parameters.
type CreateConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     string `json:"owner_id"`
	MaxAITubers int    `json:"max_aitubers"`
	IsPublic    bool   `json:"is_public"`
}

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Public       *bool
	OwnerID      string
	NameContains string
	MaxResults   int
}

// Store is the in-memory room directory and membership registry. It is the
// RoomMembership collaborator consumed by the arbitration service.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]*Room)}
}

func (s *Store) Create(cfg CreateConfig) (Room, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return Room{}, ErrNameRequired
	}
	if cfg.MaxAITubers > maxAITuberCap {
		return Room{}, ErrTooManyAITubers
	}
	if cfg.MaxAITubers <= 0 {
		cfg.MaxAITubers = 5
	}
	r := &Room{
		ID:          uuid.New().String(),
		Name:        cfg.Name,
		Description: cfg.Description,
		OwnerID:     cfg.OwnerID,
		MaxAITubers: cfg.MaxAITubers,
		IsPublic:    cfg.IsPublic,
		CreatedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	s.rooms[r.ID] = r
	s.mu.Unlock()
	return snapshot(r), nil
}

func (s *Store) Get(roomID string) (Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return Room{}, ErrNotFound
	}
	return snapshot(r), nil
}

func (s *Store) Exists(roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[roomID]
	return ok
}

func (s *Store) List(f Filter) []Room {
	s.mu.RLock()
	out := make([]Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		if f.Public != nil && r.IsPublic != *f.Public {
			continue
		}
		if f.OwnerID != "" && r.OwnerID != f.OwnerID {
			continue
		}
		if f.NameContains != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.NameContains)) {
			continue
		}
		out = append(out, snapshot(r))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if f.MaxResults > 0 && len(out) > f.MaxResults {
		out = out[:f.MaxResults]
	}
	return out
}

// Delete removes a room. Reports whether it existed.
func (s *Store) Delete(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		return false
	}
	delete(s.rooms, roomID)
	return true
}

// Join adds a participant to the room. AITuber participants count against
// the room's max_aitubers cap; humans do not.
func (s *Store) Join(roomID, ptype, name, userID string) (Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return Participant{}, ErrNotFound
	}
	if ptype != TypeAITuber {
		ptype = TypeHuman
	}
	for _, p := range r.Participants {
		if userID != "" && p.UserID == userID {
			return Participant{}, ErrAlreadyJoined
		}
	}
	if ptype == TypeAITuber {
		count := 0
		for _, p := range r.Participants {
			if p.Type == TypeAITuber {
				count++
			}
		}
		if count >= r.MaxAITubers {
			return Participant{}, ErrRoomFull
		}
	}
	p := Participant{
		ID:       uuid.New().String(),
		Type:     ptype,
		Name:     name,
		UserID:   userID,
		JoinedAt: time.Now().UTC(),
	}
	r.Participants = append(r.Participants, p)
	return p, nil
}

// Leave removes a participant. Idempotent at the API layer; reports whether
// the participant was a member.
func (s *Store) Leave(roomID, participantID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	for i, p := range r.Participants {
		if p.ID == participantID {
			r.Participants = append(r.Participants[:i], r.Participants[i+1:]...)
			return true
		}
	}
	return false
}

// Member returns the participant record for a room member.
func (s *Store) Member(roomID, participantID string) (Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return Participant{}, false
	}
	for _, p := range r.Participants {
		if p.ID == participantID {
			return p, true
		}
	}
	return Participant{}, false
}

// IsMember is the membership check used by floor arbitration.
func (s *Store) IsMember(roomID, participantID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	for _, p := range r.Participants {
		if p.ID == participantID {
			return true
		}
	}
	return false
}

func snapshot(r *Room) Room {
	cp := *r
	cp.Participants = make([]Participant, len(r.Participants))
	copy(cp.Participants, r.Participants)
	return cp
}
