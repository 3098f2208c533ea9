package arbiter

import (
	"context"
	"log"
	"sync"

	"aitubertalk/server/internal/clock"
	"aitubertalk/server/internal/floor"
	"aitubertalk/server/internal/hub"
	"aitubertalk/server/internal/speech"
)

// Membership is the room-membership collaborator boundary.
type Membership interface {
	Exists(roomID string) bool
	IsMember(roomID, participantID string) bool
}

// DefaultPriority is applied when a request carries no usable priority.
const DefaultPriority = 1

// Service is the public floor arbitration surface. It owns one state
// machine per room; cross-room operations are fully independent.
type Service struct {
	clk     clock.Clock
	members Membership
	engine  speech.Engine
	hub     *hub.Hub
	opts    floor.Options

	mu       sync.Mutex
	machines map[string]*floor.Machine
}

func New(clk clock.Clock, members Membership, engine speech.Engine, h *hub.Hub, opts floor.Options) *Service {
	return &Service{
		clk:      clk,
		members:  members,
		engine:   engine,
		hub:      h,
		opts:     opts,
		machines: make(map[string]*floor.Machine),
	}
}

// machine returns the room's state machine, creating it on first use. Only
// the membership-checked entry points call this; everything else goes
// through lookup so that garbage room ids never allocate machines.
func (s *Service) machine(roomID string) *floor.Machine {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.machines[roomID]
	if m == nil {
		m = floor.NewMachine(roomID, s.clk, hub.Notifier{Hub: s.hub}, s.opts)
		s.machines[roomID] = m
	}
	return m
}

// lookup returns the room's machine without creating one.
func (s *Service) lookup(roomID string) *floor.Machine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machines[roomID]
}

// RequestFloor grants a lease immediately when the floor is free, otherwise
// returns the requester's queue position. Never blocks.
func (s *Service) RequestFloor(roomID, participantID string, priority int) (floor.Grant, error) {
	if !s.members.Exists(roomID) {
		return floor.Grant{}, floor.ErrRoomNotFound
	}
	if !s.members.IsMember(roomID, participantID) {
		return floor.Grant{}, floor.ErrNotInRoom
	}
	if priority < 0 {
		priority = DefaultPriority
	}
	return s.machine(roomID).Request(participantID, priority)
}

// Speak validates the lease, rejects payloads that cannot fit the remaining
// window, and forwards to the speech engine. Synthesis runs outside the
// room's serialization boundary, bounded by the remaining lease time; a
// synthesis failure leaves the lease held so the holder can retry.
func (s *Service) Speak(ctx context.Context, lease floor.Lease, payload speech.Payload) error {
	m := s.lookup(lease.RoomID)
	if m == nil {
		// No machine means no lease was ever granted here.
		return floor.ErrNotHolder
	}
	estimate := s.engine.EstimateDuration(payload)
	l, err := m.BeginSpeak(lease.ID, estimate)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, l.Remaining(s.clk.Now()))
	defer cancel()
	return s.engine.Synthesize(ctx, lease.RoomID, payload)
}

// ReleaseFloor ends a lease. Idempotent: stale or mismatched leases are
// logged and ignored so duplicate client calls are harmless.
func (s *Service) ReleaseFloor(lease floor.Lease) {
	m := s.lookup(lease.RoomID)
	if m == nil || !m.Release(lease.ID) {
		log.Printf("[arbiter] release no-op room=%s lease=%s", lease.RoomID, lease.ID)
	}
}

// FloorState returns a read-only snapshot of the room's floor.
func (s *Service) FloorState(roomID string) (floor.Snapshot, error) {
	if !s.members.Exists(roomID) {
		return floor.Snapshot{}, floor.ErrRoomNotFound
	}
	return s.machine(roomID).Snapshot(), nil
}

// CancelRequest removes a queued request. Returns false when absent; that is
// not an error.
func (s *Service) CancelRequest(roomID, participantID string) bool {
	m := s.lookup(roomID)
	if m == nil {
		return false
	}
	return m.Cancel(participantID)
}

// OnParticipantLeft runs the disconnect path for a departing participant.
func (s *Service) OnParticipantLeft(roomID, participantID string) {
	if m := s.lookup(roomID); m != nil {
		m.Disconnect(participantID)
	}
}

// CloseRoom shuts the room's machine down, releasing timers and draining the
// queue with cancellations. The closed machine stays in the map so a request
// racing the room's deletion hits ErrRoomClosed instead of resurrecting a
// fresh machine.
func (s *Service) CloseRoom(roomID string) {
	m := s.machine(roomID)
	m.Close()
}
