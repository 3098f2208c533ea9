package floor

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"aitubertalk/server/internal/clock"
)

// Notifier receives floor events as they are decided. Implementations must
// not call back into the machine synchronously with blocking work; delivery
// failures are the implementation's problem, never the machine's.
type Notifier interface {
	FloorGranted(l Lease)
	FloorDenied(roomID, participantID, reason string, position int)
	FloorReleased(l Lease, reason ReleaseReason)
	FloorStateChanged(s Snapshot)
}

// Options configures a room's floor machine.
type Options struct {
	// MaxDuration is the lease window applied to every grant.
	MaxDuration time.Duration
	// Cooldown is the mandatory pause after a turn ends. The next grant is
	// never made before it elapses, even with a non-empty queue.
	Cooldown time.Duration
	// QueueLimit caps pending requests; 0 means unlimited.
	QueueLimit int
}

// Grant is the result of a floor request: either an immediate lease or a
// queue position.
type Grant struct {
	Lease    *Lease `json:"lease,omitempty"`
	Queued   bool   `json:"queued"`
	Position int    `json:"position,omitempty"`
}

// Machine is the per-room turn-taking state machine. All mutations are
// serialized by one mutex; timer callbacks reacquire it before touching
// state. Notifications are emitted after the lock is dropped so subscribers
// may query the machine.
type Machine struct {
	roomID string
	clk    clock.Clock
	notify Notifier
	opts   Options

	mu            sync.Mutex
	state         State
	lease         *Lease
	queue         *WaitQueue
	lastChange    time.Time
	expiryTimer   clock.Timer
	cooldownTimer clock.Timer
	closed        bool
}

func NewMachine(roomID string, clk clock.Clock, n Notifier, opts Options) *Machine {
	return &Machine{
		roomID:     roomID,
		clk:        clk,
		notify:     n,
		opts:       opts,
		state:      StateIdle,
		queue:      NewWaitQueue(),
		lastChange: clk.Now(),
	}
}

// Request grants the floor immediately when the room is idle with an empty
// queue, otherwise enqueues the participant and returns its 1-based
// position. Never blocks.
func (m *Machine) Request(participantID string, priority int) (Grant, error) {
	var notes []func()
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Grant{}, ErrRoomClosed
	}
	if m.lease != nil && m.lease.HolderID == participantID {
		m.mu.Unlock()
		return Grant{}, ErrDuplicateRequest
	}
	if m.queue.Contains(participantID) {
		m.mu.Unlock()
		return Grant{}, ErrDuplicateRequest
	}

	if m.state == StateIdle && m.lease == nil && m.queue.Len() == 0 {
		l := m.grantLocked(participantID, &notes)
		m.mu.Unlock()
		run(notes)
		return Grant{Lease: &l}, nil
	}

	if m.opts.QueueLimit > 0 && m.queue.Len() >= m.opts.QueueLimit {
		metricDenials.WithLabelValues("queue_full").Inc()
		notes = append(notes, func() {
			m.notify.FloorDenied(m.roomID, participantID, "queue full", 0)
		})
		m.mu.Unlock()
		run(notes)
		return Grant{}, ErrQueueFull
	}

	pos := m.queue.Enqueue(participantID, priority, m.clk.Now())
	metricDenials.WithLabelValues("floor_busy").Inc()
	notes = append(notes, func() {
		m.notify.FloorDenied(m.roomID, participantID, "floor busy", pos)
	})
	m.mu.Unlock()
	run(notes)
	return Grant{Queued: true, Position: pos}, nil
}

// BeginSpeak validates a lease against the active one and reserves the
// remaining window for speech lasting estimate. An expired lease forces the
// expiry transition as a side effect. The first successful call on a lease
// moves the room from preparing to speaking.
func (m *Machine) BeginSpeak(leaseID string, estimate time.Duration) (Lease, error) {
	var notes []func()
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Lease{}, ErrRoomClosed
	}
	if m.lease == nil || m.lease.ID != leaseID {
		m.mu.Unlock()
		return Lease{}, ErrNotHolder
	}
	now := m.clk.Now()
	if !m.lease.Live(now) {
		m.releaseLocked(ReleaseExpired, &notes)
		m.mu.Unlock()
		run(notes)
		return Lease{}, ErrLeaseExpired
	}
	if estimate > m.lease.Remaining(now) {
		m.mu.Unlock()
		return Lease{}, ErrExceedsLeaseWindow
	}
	if m.state == StatePreparing {
		m.setStateLocked(StateSpeaking, &notes)
	}
	cp := *m.lease
	m.mu.Unlock()
	run(notes)
	return cp, nil
}

// Release ends the lease voluntarily. Idempotent: an unknown or stale lease
// id is a no-op and reports false.
func (m *Machine) Release(leaseID string) bool {
	var notes []func()
	m.mu.Lock()
	if m.closed || m.lease == nil || m.lease.ID != leaseID {
		m.mu.Unlock()
		return false
	}
	m.releaseLocked(ReleaseVoluntary, &notes)
	m.mu.Unlock()
	run(notes)
	return true
}

// Cancel removes a pending request from the queue. Reports whether an entry
// was removed. Other participants are not notified.
func (m *Machine) Cancel(participantID string) bool {
	m.mu.Lock()
	removed := m.queue.Remove(participantID)
	m.mu.Unlock()
	return removed
}

// Disconnect handles a participant leaving the room: a holder is
// force-released, a queued participant is removed silently.
func (m *Machine) Disconnect(participantID string) {
	var notes []func()
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.lease != nil && m.lease.HolderID == participantID {
		m.releaseLocked(ReleaseDisconnected, &notes)
	} else {
		m.queue.Remove(participantID)
	}
	m.mu.Unlock()
	run(notes)
}

// Close tears the machine down when its room is destroyed: timers are
// released, the holder is force-released and every queued entry receives a
// cancelled notification.
func (m *Machine) Close() {
	var notes []func()
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.expiryTimer != nil {
		m.expiryTimer.Stop()
		m.expiryTimer = nil
	}
	if m.cooldownTimer != nil {
		m.cooldownTimer.Stop()
		m.cooldownTimer = nil
	}
	if m.lease != nil {
		cp := *m.lease
		m.lease = nil
		metricReleases.WithLabelValues(string(ReleaseDisconnected)).Inc()
		notes = append(notes, func() {
			m.notify.FloorReleased(cp, ReleaseDisconnected)
		})
	}
	for _, e := range m.queue.Drain() {
		pid := e.ParticipantID
		notes = append(notes, func() {
			m.notify.FloorDenied(m.roomID, pid, "cancelled", 0)
		})
	}
	m.mu.Unlock()
	run(notes)
}

// Snapshot returns an immutable copy of the current floor state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) grantLocked(participantID string, notes *[]func()) Lease {
	now := m.clk.Now()
	l := Lease{
		ID:          uuid.New().String(),
		RoomID:      m.roomID,
		HolderID:    participantID,
		GrantedAt:   now,
		ExpiresAt:   now.Add(m.opts.MaxDuration),
		MaxDuration: m.opts.MaxDuration,
	}
	m.lease = &l
	m.setStateLocked(StatePreparing, notes)

	leaseID := l.ID
	m.expiryTimer = m.clk.AfterFunc(m.opts.MaxDuration, func() {
		m.expire(leaseID)
	})
	metricGrants.Inc()
	cp := l
	*notes = append(*notes, func() {
		m.notify.FloorGranted(cp)
	})
	return l
}

func (m *Machine) releaseLocked(reason ReleaseReason, notes *[]func()) {
	if m.expiryTimer != nil {
		m.expiryTimer.Stop()
		m.expiryTimer = nil
	}
	cp := *m.lease
	m.lease = nil
	metricReleases.WithLabelValues(string(reason)).Inc()
	*notes = append(*notes, func() {
		m.notify.FloorReleased(cp, reason)
	})
	m.setStateLocked(StateCooldown, notes)
	m.cooldownTimer = m.clk.AfterFunc(m.opts.Cooldown, m.cooldownElapsed)
}

// expire is the lease timer callback. Stale fires (lease already released)
// are no-ops thanks to the id check.
func (m *Machine) expire(leaseID string) {
	var notes []func()
	m.mu.Lock()
	if m.closed || m.lease == nil || m.lease.ID != leaseID {
		m.mu.Unlock()
		return
	}
	m.expiryTimer = nil
	m.releaseLocked(ReleaseExpired, &notes)
	m.mu.Unlock()
	run(notes)
}

// cooldownElapsed moves the room out of cooldown: to the next grant when the
// queue is non-empty, otherwise back to idle.
func (m *Machine) cooldownElapsed() {
	var notes []func()
	m.mu.Lock()
	if m.closed || m.state != StateCooldown {
		m.mu.Unlock()
		return
	}
	m.cooldownTimer = nil
	if e, ok := m.queue.DequeueNext(); ok {
		m.setStateLocked(StateThinking, &notes)
		metricQueueWait.Observe(float64(m.clk.Now().Sub(e.EnqueuedAt).Milliseconds()))
		m.grantLocked(e.ParticipantID, &notes)
	} else {
		m.setStateLocked(StateIdle, &notes)
	}
	m.mu.Unlock()
	run(notes)
}

func (m *Machine) setStateLocked(to State, notes *[]func()) {
	if m.state == to {
		return
	}
	metricTransitions.WithLabelValues(m.state.String(), to.String()).Inc()
	m.state = to
	m.lastChange = m.clk.Now()
	snap := m.snapshotLocked()
	*notes = append(*notes, func() {
		m.notify.FloorStateChanged(snap)
	})
}

func (m *Machine) snapshotLocked() Snapshot {
	entries := m.queue.Entries()
	qp := make([]QueuedParticipant, len(entries))
	for i, e := range entries {
		qp[i] = QueuedParticipant{
			ParticipantID: e.ParticipantID,
			Priority:      e.Priority,
			EnqueuedAt:    e.EnqueuedAt,
			Position:      i + 1,
		}
	}
	holder := ""
	if m.lease != nil {
		holder = m.lease.HolderID
	}
	return Snapshot{
		RoomID:          m.roomID,
		State:           m.state,
		CurrentHolder:   holder,
		Queue:           qp,
		LastStateChange: m.lastChange,
	}
}

func run(notes []func()) {
	for _, f := range notes {
		f()
	}
}
