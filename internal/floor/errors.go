package floor

import "errors"

var (
	// ErrNotInRoom is returned when the requester is not a member of the room.
	ErrNotInRoom = errors.New("participant is not a member of the room")
	// ErrDuplicateRequest is returned when the participant already holds the
	// floor or is already waiting in the queue.
	ErrDuplicateRequest = errors.New("participant already holds or requested the floor")
	// ErrRoomNotFound is returned for operations against an unknown room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrLeaseExpired is returned when a speak is attempted on an expired lease.
	ErrLeaseExpired = errors.New("floor lease has expired")
	// ErrNotHolder is returned when the presented lease is not the active one.
	ErrNotHolder = errors.New("lease does not match the current floor holder")
	// ErrExceedsLeaseWindow is returned when the estimated speech duration
	// does not fit in the remaining lease time.
	ErrExceedsLeaseWindow = errors.New("estimated speech duration exceeds remaining lease window")
	// ErrQueueFull is returned when the wait queue is at its configured limit.
	ErrQueueFull = errors.New("floor wait queue is full")
	// ErrRoomClosed is returned for operations against a closed machine.
	ErrRoomClosed = errors.New("room is closed")
)
