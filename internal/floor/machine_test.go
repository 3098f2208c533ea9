package floor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"aitubertalk/server/internal/clock"
)

type recordedEvent struct {
	kind     string
	lease    Lease
	reason   string
	pid      string
	position int
	snap     Snapshot
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) FloorGranted(l Lease) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind: "granted", lease: l})
}

func (r *recorder) FloorDenied(roomID, participantID, reason string, position int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind: "denied", pid: participantID, reason: reason, position: position})
}

func (r *recorder) FloorReleased(l Lease, reason ReleaseReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind: "released", lease: l, reason: string(reason)})
}

func (r *recorder) FloorStateChanged(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind: "state", snap: s})
}

func (r *recorder) byKind(kind string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, e := range r.events {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func newTestMachine() (*Machine, *clock.Fake, *recorder) {
	clk := clock.NewFake()
	rec := &recorder{}
	m := NewMachine("room-1", clk, rec, Options{
		MaxDuration: 30 * time.Second,
		Cooldown:    2 * time.Second,
		QueueLimit:  8,
	})
	return m, clk, rec
}

func TestImmediateGrantWhenIdle(t *testing.T) {
	m, _, rec := newTestMachine()

	g, err := m.Request("alice", 1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if g.Queued || g.Lease == nil {
		t.Fatalf("expected immediate grant, got %+v", g)
	}
	if g.Lease.HolderID != "alice" || g.Lease.RoomID != "room-1" {
		t.Fatalf("bad lease %+v", g.Lease)
	}
	snap := m.Snapshot()
	if snap.State != StatePreparing || snap.CurrentHolder != "alice" {
		t.Fatalf("expected preparing/alice, got %s/%s", snap.State, snap.CurrentHolder)
	}
	if len(rec.byKind("granted")) != 1 {
		t.Fatalf("expected one granted event")
	}
}

func TestBusyRequestQueuesAndDenies(t *testing.T) {
	m, _, rec := newTestMachine()
	_, _ = m.Request("alice", 1)

	g, err := m.Request("bob", 5)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if !g.Queued || g.Position != 1 {
		t.Fatalf("expected queued at 1, got %+v", g)
	}
	denied := rec.byKind("denied")
	if len(denied) != 1 || denied[0].reason != "floor busy" || denied[0].position != 1 {
		t.Fatalf("expected floor busy denial at 1, got %+v", denied)
	}
}

func TestDuplicateRequestRejected(t *testing.T) {
	m, _, _ := newTestMachine()
	_, _ = m.Request("alice", 1)
	if _, err := m.Request("alice", 1); !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("holder re-request: expected ErrDuplicateRequest, got %v", err)
	}
	_, _ = m.Request("bob", 1)
	if _, err := m.Request("bob", 2); !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("queued re-request: expected ErrDuplicateRequest, got %v", err)
	}
}

func TestReleaseCooldownThenNextGrant(t *testing.T) {
	m, clk, rec := newTestMachine()
	g, _ := m.Request("alice", 1)
	_, _ = m.Request("bob", 5)

	if !m.Release(g.Lease.ID) {
		t.Fatalf("release should succeed")
	}
	snap := m.Snapshot()
	if snap.State != StateCooldown || snap.CurrentHolder != "" {
		t.Fatalf("expected cooldown with no holder, got %s/%q", snap.State, snap.CurrentHolder)
	}

	clk.Advance(2 * time.Second)

	snap = m.Snapshot()
	if snap.CurrentHolder != "bob" || snap.State != StatePreparing {
		t.Fatalf("expected bob preparing after cooldown, got %s/%q", snap.State, snap.CurrentHolder)
	}
	granted := rec.byKind("granted")
	if len(granted) != 2 || granted[1].lease.HolderID != "bob" {
		t.Fatalf("expected second grant for bob, got %+v", granted)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	m, _, rec := newTestMachine()
	g, _ := m.Request("alice", 1)

	if !m.Release(g.Lease.ID) {
		t.Fatalf("first release should succeed")
	}
	if m.Release(g.Lease.ID) {
		t.Fatalf("second release should be a no-op")
	}
	if len(rec.byKind("released")) != 1 {
		t.Fatalf("expected exactly one released event")
	}
}

func TestLeaseExpiryForcesCooldownAndNextGrant(t *testing.T) {
	m, clk, rec := newTestMachine()
	_, _ = m.Request("alice", 1)
	_, _ = m.Request("bob", 1)

	clk.Advance(30 * time.Second)

	released := rec.byKind("released")
	if len(released) != 1 || released[0].reason != "expired" {
		t.Fatalf("expected expired release, got %+v", released)
	}

	// Cooldown runs after expiry, then bob is granted.
	clk.Advance(2 * time.Second)
	snap := m.Snapshot()
	if snap.CurrentHolder != "bob" {
		t.Fatalf("expected bob granted after expiry+cooldown, got %q", snap.CurrentHolder)
	}
}

func TestReleaseCancelsExpiryTimer(t *testing.T) {
	m, clk, rec := newTestMachine()
	g, _ := m.Request("alice", 1)
	m.Release(g.Lease.ID)
	clk.Advance(2 * time.Second) // back to idle

	// A second, unrelated lease must not be hit by alice's stale timer.
	g2, _ := m.Request("bob", 1)
	clk.Advance(29 * time.Second)
	snap := m.Snapshot()
	if snap.CurrentHolder != "bob" {
		t.Fatalf("stale timer forced out bob: %+v", snap)
	}
	_ = g2
	for _, e := range rec.byKind("released") {
		if e.reason == "expired" {
			t.Fatalf("unexpected expired release: %+v", e)
		}
	}
}

func TestBeginSpeakTransitionsToSpeaking(t *testing.T) {
	m, _, _ := newTestMachine()
	g, _ := m.Request("alice", 1)

	l, err := m.BeginSpeak(g.Lease.ID, 5*time.Second)
	if err != nil {
		t.Fatalf("begin speak: %v", err)
	}
	if l.HolderID != "alice" {
		t.Fatalf("bad lease copy %+v", l)
	}
	if snap := m.Snapshot(); snap.State != StateSpeaking {
		t.Fatalf("expected speaking, got %s", snap.State)
	}
}

func TestBeginSpeakExceedsWindow(t *testing.T) {
	m, clk, _ := newTestMachine()
	g, _ := m.Request("alice", 1)
	clk.Advance(25 * time.Second)

	_, err := m.BeginSpeak(g.Lease.ID, 10*time.Second)
	if !errors.Is(err, ErrExceedsLeaseWindow) {
		t.Fatalf("expected ErrExceedsLeaseWindow, got %v", err)
	}
	// Lease stays live and unmodified.
	snap := m.Snapshot()
	if snap.CurrentHolder != "alice" {
		t.Fatalf("lease should remain held, got %+v", snap)
	}
	if _, err := m.BeginSpeak(g.Lease.ID, 2*time.Second); err != nil {
		t.Fatalf("shorter speak should still fit: %v", err)
	}
}

func TestBeginSpeakOnExpiredLease(t *testing.T) {
	m, clk, rec := newTestMachine()
	g, _ := m.Request("alice", 1)

	// Advance past expiry without letting the fake timer run first would
	// require stopping it; instead verify a stale lease id after expiry.
	clk.Advance(31 * time.Second)
	_, err := m.BeginSpeak(g.Lease.ID, time.Second)
	if !errors.Is(err, ErrNotHolder) && !errors.Is(err, ErrLeaseExpired) {
		t.Fatalf("expected expiry-related error, got %v", err)
	}
	if len(rec.byKind("released")) != 1 {
		t.Fatalf("expected a single forced release")
	}
}

func TestBeginSpeakWrongLease(t *testing.T) {
	m, _, _ := newTestMachine()
	_, _ = m.Request("alice", 1)
	if _, err := m.BeginSpeak("bogus", time.Second); !errors.Is(err, ErrNotHolder) {
		t.Fatalf("expected ErrNotHolder, got %v", err)
	}
}

func TestDisconnectHolderForcesRelease(t *testing.T) {
	m, _, rec := newTestMachine()
	_, _ = m.Request("alice", 1)

	m.Disconnect("alice")

	released := rec.byKind("released")
	if len(released) != 1 || released[0].reason != "disconnected" {
		t.Fatalf("expected disconnected release, got %+v", released)
	}
	if snap := m.Snapshot(); snap.State != StateCooldown {
		t.Fatalf("expected cooldown, got %s", snap.State)
	}
}

func TestDisconnectQueuedIsSilent(t *testing.T) {
	m, _, rec := newTestMachine()
	_, _ = m.Request("alice", 1)
	_, _ = m.Request("bob", 1)
	before := len(rec.byKind("released")) + len(rec.byKind("state"))

	m.Disconnect("bob")

	if snap := m.Snapshot(); len(snap.Queue) != 0 {
		t.Fatalf("bob should be gone from queue: %+v", snap.Queue)
	}
	after := len(rec.byKind("released")) + len(rec.byKind("state"))
	if after != before {
		t.Fatalf("queued disconnect must not emit floor events")
	}
}

func TestCancelRequest(t *testing.T) {
	m, _, _ := newTestMachine()
	_, _ = m.Request("alice", 1)
	_, _ = m.Request("bob", 1)

	if !m.Cancel("bob") {
		t.Fatalf("expected cancel to remove bob")
	}
	if m.Cancel("bob") {
		t.Fatalf("second cancel should report false")
	}
}

func TestCloseDrainsQueueWithCancellations(t *testing.T) {
	m, _, rec := newTestMachine()
	_, _ = m.Request("alice", 1)
	_, _ = m.Request("bob", 1)
	_, _ = m.Request("carol", 2)

	m.Close()

	released := rec.byKind("released")
	if len(released) != 1 {
		t.Fatalf("holder should be force-released once, got %+v", released)
	}
	cancelled := 0
	for _, e := range rec.byKind("denied") {
		if e.reason == "cancelled" {
			cancelled++
		}
	}
	if cancelled != 2 {
		t.Fatalf("expected 2 cancelled notifications, got %d", cancelled)
	}
	if _, err := m.Request("dave", 1); !errors.Is(err, ErrRoomClosed) {
		t.Fatalf("closed machine should reject requests, got %v", err)
	}
}

func TestQueueLimit(t *testing.T) {
	clk := clock.NewFake()
	rec := &recorder{}
	m := NewMachine("room-1", clk, rec, Options{
		MaxDuration: 30 * time.Second,
		Cooldown:    time.Second,
		QueueLimit:  1,
	})
	_, _ = m.Request("alice", 1)
	_, _ = m.Request("bob", 1)
	if _, err := m.Request("carol", 1); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestSingleLiveLeaseInvariant(t *testing.T) {
	m, clk, rec := newTestMachine()
	_, _ = m.Request("a", 1)
	_, _ = m.Request("b", 5)
	_, _ = m.Request("c", 3)

	for i := 0; i < 6; i++ {
		snap := m.Snapshot()
		holderLive := snap.CurrentHolder != ""
		stateHolds := snap.State == StatePreparing || snap.State == StateSpeaking
		if holderLive != stateHolds {
			t.Fatalf("invariant broken: holder=%q state=%s", snap.CurrentHolder, snap.State)
		}
		for _, qe := range snap.Queue {
			if qe.ParticipantID == snap.CurrentHolder {
				t.Fatalf("holder present in queue: %+v", snap)
			}
		}
		clk.Advance(16 * time.Second)
	}
	// Priority order across the whole run: a (immediate), then b, then c.
	granted := rec.byKind("granted")
	if len(granted) < 3 {
		t.Fatalf("expected 3 grants, got %d", len(granted))
	}
	order := []string{granted[0].lease.HolderID, granted[1].lease.HolderID, granted[2].lease.HolderID}
	if order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("grant order wrong: %v", order)
	}
}
