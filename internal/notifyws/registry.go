package notifyws

import (
	"context"
	"encoding/json"
	"sync"

	ws "nhooyr.io/websocket"
)

// Registry keeps at most one event connection per participant per room.
type Registry struct {
	mu    sync.Mutex
	conns map[string]map[string]*ws.Conn // room -> participant -> conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]map[string]*ws.Conn)}
}

// Replace sets the connection for a participant and closes the previous one
// if present.
func (r *Registry) Replace(roomID, participantID string, c *ws.Conn) (prevClosed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room := r.conns[roomID]
	if room == nil {
		room = make(map[string]*ws.Conn)
		r.conns[roomID] = room
	}
	if old, ok := room[participantID]; ok && old != nil {
		_ = old.Close(ws.StatusNormalClosure, "replaced")
		prevClosed = true
	}
	room[participantID] = c
	return
}

func (r *Registry) Remove(roomID, participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room := r.conns[roomID]; room != nil {
		delete(room, participantID)
		if len(room) == 0 {
			delete(r.conns, roomID)
		}
	}
}

// BroadcastRoom sends v to every connection in the room. Best-effort: a
// failed write closes that connection and moves on.
func (r *Registry) BroadcastRoom(ctx context.Context, roomID string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	r.mu.Lock()
	targets := make(map[string]*ws.Conn, len(r.conns[roomID]))
	for pid, c := range r.conns[roomID] {
		targets[pid] = c
	}
	r.mu.Unlock()

	for pid, c := range targets {
		if err := c.Write(ctx, ws.MessageText, b); err != nil {
			_ = c.Close(ws.StatusNormalClosure, "write failed")
			r.Remove(roomID, pid)
		}
	}
}
