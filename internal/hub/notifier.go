package hub

import "aitubertalk/server/internal/floor"

// Notifier adapts the hub to the floor machine's notification contract.
type Notifier struct {
	Hub *Hub
}

func (n Notifier) FloorGranted(l floor.Lease) {
	n.Hub.Publish(Event{
		Type:          EventFloorGranted,
		RoomID:        l.RoomID,
		Lease:         &l,
		ParticipantID: l.HolderID,
	})
}

func (n Notifier) FloorDenied(roomID, participantID, reason string, position int) {
	n.Hub.Publish(Event{
		Type:          EventFloorDenied,
		RoomID:        roomID,
		ParticipantID: participantID,
		Reason:        reason,
		QueuePosition: position,
	})
}

func (n Notifier) FloorReleased(l floor.Lease, reason floor.ReleaseReason) {
	n.Hub.Publish(Event{
		Type:          EventFloorReleased,
		RoomID:        l.RoomID,
		Lease:         &l,
		ParticipantID: l.HolderID,
		Reason:        string(reason),
	})
}

func (n Notifier) FloorStateChanged(s floor.Snapshot) {
	n.Hub.Publish(Event{
		Type:     EventFloorStateChanged,
		RoomID:   s.RoomID,
		Snapshot: &s,
	})
}
