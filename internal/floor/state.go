package floor

import "time"

// State is the closed set of floor states for a room.
type State int

const (
	StateIdle State = iota
	StateThinking
	StatePreparing
	StateSpeaking
	StateCooldown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateThinking:
		return "thinking"
	case StatePreparing:
		return "preparing"
	case StateSpeaking:
		return "speaking"
	case StateCooldown:
		return "cooldown"
	}
	return "unknown"
}

func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// QueuedParticipant is the snapshot view of a wait queue entry.
type QueuedParticipant struct {
	ParticipantID string    `json:"participant_id"`
	Priority      int       `json:"priority"`
	EnqueuedAt    time.Time `json:"enqueued_at"`
	Position      int       `json:"position"`
}

// Snapshot is an immutable copy of a room's floor state returned to callers.
type Snapshot struct {
	RoomID          string              `json:"room_id"`
	State           State               `json:"state"`
	CurrentHolder   string              `json:"current_holder,omitempty"`
	Queue           []QueuedParticipant `json:"queue"`
	LastStateChange time.Time           `json:"last_state_change"`
}
