package floor

import "time"

// WaitEntry is a pending floor request. Ordering key is
// (priority DESC, enqueue order ASC); the slice position preserves FIFO
// among equal priorities.
type WaitEntry struct {
	ParticipantID string    `json:"participant_id"`
	Priority      int       `json:"priority"`
	EnqueuedAt    time.Time `json:"enqueued_at"`
}

// WaitQueue is the priority-ordered admission queue of a single room. It is
// not safe for concurrent use; the owning machine serializes access.
type WaitQueue struct {
	entries []WaitEntry
}

func NewWaitQueue() *WaitQueue { return &WaitQueue{} }

func (q *WaitQueue) Len() int { return len(q.entries) }

// Contains reports whether the participant is already queued.
func (q *WaitQueue) Contains(participantID string) bool {
	return q.PositionOf(participantID) > 0
}

// Enqueue inserts a request at its ordered position and returns the 1-based
// rank of the new entry.
func (q *WaitQueue) Enqueue(participantID string, priority int, now time.Time) int {
	e := WaitEntry{
		ParticipantID: participantID,
		Priority:      priority,
		EnqueuedAt:    now,
	}

	i := 0
	for ; i < len(q.entries); i++ {
		cur := q.entries[i]
		if cur.Priority < e.Priority {
			break
		}
	}
	q.entries = append(q.entries, WaitEntry{})
	copy(q.entries[i+1:], q.entries[i:])
	q.entries[i] = e
	return i + 1
}

// DequeueNext removes and returns the highest-priority, earliest-enqueued
// entry. ok is false when the queue is empty.
func (q *WaitQueue) DequeueNext() (e WaitEntry, ok bool) {
	if len(q.entries) == 0 {
		return WaitEntry{}, false
	}
	e = q.entries[0]
	q.entries = q.entries[1:]
	return e, true
}

// Remove cancels a pending request. Idempotent; reports whether an entry was
// actually removed.
func (q *WaitQueue) Remove(participantID string) bool {
	for i, e := range q.entries {
		if e.ParticipantID == participantID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// PositionOf returns the 1-based rank of the participant, or 0 if absent.
func (q *WaitQueue) PositionOf(participantID string) int {
	for i, e := range q.entries {
		if e.ParticipantID == participantID {
			return i + 1
		}
	}
	return 0
}

// Drain removes and returns every entry in order.
func (q *WaitQueue) Drain() []WaitEntry {
	out := q.entries
	q.entries = nil
	return out
}

// Entries returns an ordered copy for snapshots.
func (q *WaitQueue) Entries() []WaitEntry {
	out := make([]WaitEntry, len(q.entries))
	copy(out, q.entries)
	return out
}
