package notifyws

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"aitubertalk/server/internal/auth"
	"aitubertalk/server/internal/config"
	"aitubertalk/server/internal/hub"
	"aitubertalk/server/internal/rooms"

	ws "nhooyr.io/websocket"
)

// Server pushes room events to connected participants over websockets.
// Clients connect to /ws/events?room_id=...&participant_id=... with a
// bearer participant token and receive every hub event for their room.
type Server struct {
	Cfg   config.Config
	Rooms *rooms.Store
	Reg   *Registry

	handle hub.Handle
}

func NewServer(cfg config.Config, rs *rooms.Store, reg *Registry, h *hub.Hub) *Server {
	s := &Server{Cfg: cfg, Rooms: rs, Reg: reg}
	s.handle = h.Subscribe(s.push)
	return s
}

func (s *Server) push(e hub.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Reg.BroadcastRoom(ctx, e.RoomID, e)
}

func (s *Server) HandleEventsWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	roomID := q.Get("room_id")
	participantID := q.Get("participant_id")
	if roomID == "" || participantID == "" {
		http.Error(w, "missing room_id or participant_id", http.StatusBadRequest)
		return
	}
	if !s.Rooms.Exists(roomID) {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}
	if !s.Rooms.IsMember(roomID, participantID) {
		http.Error(w, "not in room", http.StatusForbidden)
		return
	}
	// Auth header
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	token := strings.TrimPrefix(authz, "Bearer ")
	if s.Cfg.Auth.TokenSecret == "" {
		http.Error(w, "participant auth not configured", http.StatusUnauthorized)
		return
	}
	if _, _, _, err := auth.ValidateParticipantToken(s.Cfg.Auth.TokenSecret, token, roomID, participantID, time.Now(), s.Cfg.Auth.TokenSkewSecs); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	c, err := ws.Accept(w, r, nil)
	if err != nil {
		log.Printf("[notifyws] accept: %v", err)
		return
	}
	if s.Reg.Replace(roomID, participantID, c) {
		log.Printf("[notifyws] replaced connection room=%s participant=%s", roomID, participantID)
	}

	// The stream is push-only. Reads drain client pings and detect close.
	ctx := r.Context()
	for {
		if _, _, err := c.Read(ctx); err != nil {
			break
		}
	}
	_ = c.Close(ws.StatusNormalClosure, "done")
	s.Reg.Remove(roomID, participantID)
}
