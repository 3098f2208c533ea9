package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"aitubertalk/server/internal/arbiter"
	"aitubertalk/server/internal/clock"
	"aitubertalk/server/internal/floor"
	"aitubertalk/server/internal/hub"
	"aitubertalk/server/internal/rooms"
	"aitubertalk/server/internal/speech"
)

func main() {
	cooldown := flag.Duration("cooldown", 500*time.Millisecond, "post-release cooldown")
	maxDur := flag.Duration("max", 30*time.Second, "max lease duration")
	flag.Parse()

	rs := rooms.NewStore()
	h := hub.New()

	grants := make(chan floor.Lease, 8)
	h.Subscribe(func(e hub.Event) {
		switch e.Type {
		case hub.EventFloorGranted:
			fmt.Printf("  >> %s holder=%s lease=%s\n", e.Type, e.Lease.HolderID, e.Lease.ID[:8])
			grants <- *e.Lease
		case hub.EventFloorDenied:
			fmt.Printf("  >> %s participant=%s reason=%q position=%d\n", e.Type, e.ParticipantID, e.Reason, e.QueuePosition)
		case hub.EventFloorReleased:
			fmt.Printf("  >> %s holder=%s reason=%s\n", e.Type, e.ParticipantID, e.Reason)
		case hub.EventFloorStateChanged:
			fmt.Printf("  >> %s state=%s\n", e.Type, e.Snapshot.State)
		}
	})

	engine := speech.NewLocalEngine(20)
	engine.Sleep = true
	arb := arbiter.New(clock.New(), rs, engine, h, floor.Options{
		MaxDuration: *maxDur,
		Cooldown:    *cooldown,
		QueueLimit:  8,
	})

	room, err := rs.Create(rooms.CreateConfig{Name: "demo-stage"})
	if err != nil {
		log.Fatalf("create room: %v", err)
	}
	alice, _ := rs.Join(room.ID, rooms.TypeAITuber, "Alice", "")
	bob, _ := rs.Join(room.ID, rooms.TypeAITuber, "Bob", "")

	fmt.Printf("=== Floor Arbitration Demo ===\n")
	fmt.Printf("Room: %s (%s)\n\n", room.Name, room.ID)

	fmt.Println("[1] Alice requests the floor...")
	ga, err := arb.RequestFloor(room.ID, alice.ID, 1)
	if err != nil {
		log.Fatalf("request: %v", err)
	}
	aliceLease := waitGrant(grants, alice.ID)
	fmt.Printf("    granted=%v\n\n", !ga.Queued)

	fmt.Println("[2] Bob requests while Alice holds...")
	gb, err := arb.RequestFloor(room.ID, bob.ID, 5)
	if err != nil {
		log.Fatalf("request: %v", err)
	}
	fmt.Printf("    queued=%v position=%d\n\n", gb.Queued, gb.Position)

	fmt.Println("[3] Alice speaks...")
	err = arb.Speak(context.Background(), aliceLease, speech.Payload{
		Text:    "Hello everyone, welcome to the stream!",
		Emotion: "happy",
	})
	if err != nil {
		log.Fatalf("speak: %v", err)
	}
	fmt.Println()

	fmt.Println("[4] Alice releases; Bob is granted after cooldown...")
	arb.ReleaseFloor(aliceLease)
	bobLease := waitGrant(grants, bob.ID)
	fmt.Println()

	fmt.Println("[5] Bob speaks and releases...")
	err = arb.Speak(context.Background(), bobLease, speech.Payload{
		Text:  "Thanks Alice! Glad to be here.",
		Speed: 1.5,
	})
	if err != nil {
		log.Fatalf("speak: %v", err)
	}
	arb.ReleaseFloor(bobLease)
	time.Sleep(*cooldown + 100*time.Millisecond)

	snap, err := arb.FloorState(room.ID)
	if err != nil {
		log.Fatalf("state: %v", err)
	}
	fmt.Printf("\nFinal state: %s holder=%q queue=%d\n", snap.State, snap.CurrentHolder, len(snap.Queue))
	fmt.Println("=== done ===")
}

func waitGrant(grants <-chan floor.Lease, holderID string) floor.Lease {
	for {
		select {
		case l := <-grants:
			if l.HolderID == holderID {
				return l
			}
		case <-time.After(5 * time.Second):
			log.Fatalf("timed out waiting for grant to %s", holderID)
		}
	}
}
