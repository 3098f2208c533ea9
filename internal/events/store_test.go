package events

import (
	"fmt"
	"testing"

	"aitubertalk/server/internal/hub"
)

func TestAppendAndList(t *testing.T) {
	st := NewStore(10)
	st.Append(hub.Event{Type: hub.EventFloorGranted, RoomID: "r1"})
	st.Append(hub.Event{Type: hub.EventFloorReleased, RoomID: "r1"})
	st.Append(hub.Event{Type: hub.EventFloorGranted, RoomID: "r2"})

	got := st.List("r1")
	if len(got) != 2 {
		t.Fatalf("expected 2 records for r1, got %d", len(got))
	}
	if got[0].Type != hub.EventFloorGranted || got[1].Type != hub.EventFloorReleased {
		t.Fatalf("wrong order: %+v", got)
	}
	if len(st.List("r2")) != 1 {
		t.Fatalf("expected 1 record for r2")
	}
}

func TestCapKeepsNewest(t *testing.T) {
	st := NewStore(3)
	for i := 0; i < 5; i++ {
		st.Append(hub.Event{Type: fmt.Sprintf("e%d", i), RoomID: "r"})
	}
	got := st.List("r")
	if len(got) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(got))
	}
	if got[0].Type != "e2" || got[2].Type != "e4" {
		t.Fatalf("expected newest kept, got %+v", got)
	}
}

func TestAttachFeedsFromHub(t *testing.T) {
	st := NewStore(10)
	h := hub.New()
	handle := st.Attach(h)

	h.Publish(hub.Event{Type: hub.EventFloorDenied, RoomID: "r"})
	if len(st.List("r")) != 1 {
		t.Fatalf("expected hub event recorded")
	}

	h.Unsubscribe(handle)
	h.Publish(hub.Event{Type: hub.EventFloorDenied, RoomID: "r"})
	if len(st.List("r")) != 1 {
		t.Fatalf("expected no record after detach")
	}
}

func TestForget(t *testing.T) {
	st := NewStore(10)
	st.Append(hub.Event{Type: "x", RoomID: "r"})
	st.Forget("r")
	if len(st.List("r")) != 0 {
		t.Fatalf("expected empty after forget")
	}
}
