package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"aitubertalk/server/internal/arbiter"
	"aitubertalk/server/internal/auth"
	"aitubertalk/server/internal/config"
	"aitubertalk/server/internal/events"
	"aitubertalk/server/internal/floor"
	"aitubertalk/server/internal/hub"
	"aitubertalk/server/internal/rooms"
	"aitubertalk/server/internal/speech"
)

type Handlers struct {
	cfg    config.Config
	rooms  *rooms.Store
	events *events.Store
	arb    *arbiter.Service
	hub    *hub.Hub
}

func NewHandlers(cfg config.Config, rs *rooms.Store, es *events.Store, arb *arbiter.Service, h *hub.Hub) *Handlers {
	return &Handlers{cfg: cfg, rooms: rs, events: es, arb: arb, hub: h}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func floorErrStatus(err error) int {
	switch {
	case errors.Is(err, floor.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, floor.ErrNotInRoom), errors.Is(err, floor.ErrNotHolder):
		return http.StatusForbidden
	case errors.Is(err, floor.ErrDuplicateRequest):
		return http.StatusConflict
	case errors.Is(err, floor.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, floor.ErrLeaseExpired):
		return http.StatusGone
	case errors.Is(err, floor.ErrExceedsLeaseWindow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, floor.ErrRoomClosed):
		return http.StatusNotFound
	}
	var te *speech.TransportError
	if errors.As(err, &te) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handlers) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var cfg rooms.CreateConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	room, err := h.rooms.Create(cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handlers) HandleListRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := rooms.Filter{
		OwnerID:      q.Get("owner"),
		NameContains: q.Get("name"),
	}
	if v := q.Get("public"); v != "" {
		pub := v == "true" || v == "1"
		f.Public = &pub
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.MaxResults = n
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": h.rooms.List(f)})
}

func (h *Handlers) HandleGetRoom(w http.ResponseWriter, r *http.Request, id string) {
	room, err := h.rooms.Get(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handlers) HandleDeleteRoom(w http.ResponseWriter, r *http.Request, id string) {
	if !h.rooms.Delete(id) {
		http.NotFound(w, r)
		return
	}
	h.arb.CloseRoom(id)
	h.events.Forget(id)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handlers) HandleJoinRoom(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Type   string `json:"type"`
		Name   string `json:"name"`
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	p, err := h.rooms.Join(id, body.Type, body.Name, body.UserID)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, rooms.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	exp := time.Now().Add(time.Duration(h.cfg.Auth.TokenExpMin) * time.Minute).Unix()
	token, err := auth.GenerateParticipantToken(h.cfg.Auth.TokenSecret, id, p.ID, exp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.hub.Publish(hub.Event{Type: hub.EventParticipantJoined, RoomID: id, ParticipantID: p.ID})
	writeJSON(w, http.StatusOK, map[string]any{
		"participant": p,
		"token":       token,
	})
}

func (h *Handlers) HandleLeaveRoom(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		ParticipantID string `json:"participant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if !h.rooms.Exists(id) {
		http.NotFound(w, r)
		return
	}
	left := h.rooms.Leave(id, body.ParticipantID)
	if left {
		// Holder departure forces release; queued departure is silent.
		h.arb.OnParticipantLeft(id, body.ParticipantID)
		h.hub.Publish(hub.Event{Type: hub.EventParticipantLeft, RoomID: id, ParticipantID: body.ParticipantID})
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "left": left})
}

func (h *Handlers) HandleFloorState(w http.ResponseWriter, r *http.Request, id string) {
	snap, err := h.arb.FloorState(id)
	if err != nil {
		http.Error(w, err.Error(), floorErrStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handlers) HandleFloorRequest(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		ParticipantID string `json:"participant_id"`
		Priority      *int   `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	// An absent priority means the default, not zero.
	priority := arbiter.DefaultPriority
	if body.Priority != nil {
		priority = *body.Priority
	}
	g, err := h.arb.RequestFloor(id, body.ParticipantID, priority)
	if err != nil {
		http.Error(w, err.Error(), floorErrStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handlers) HandleFloorRelease(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		LeaseID string `json:"lease_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	h.arb.ReleaseFloor(floor.Lease{ID: body.LeaseID, RoomID: id})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handlers) HandleFloorCancel(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		ParticipantID string `json:"participant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	removed := h.arb.CancelRequest(id, body.ParticipantID)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "removed": removed})
}

func (h *Handlers) HandleSpeak(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		LeaseID       string  `json:"lease_id"`
		Text          string  `json:"text"`
		Emotion       string  `json:"emotion"`
		Speed         float64 `json:"speed"`
		TargetAITuber string  `json:"target_aituber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	err := h.arb.Speak(r.Context(), floor.Lease{ID: body.LeaseID, RoomID: id}, speech.Payload{
		Text:          body.Text,
		Emotion:       body.Emotion,
		Speed:         body.Speed,
		TargetAITuber: body.TargetAITuber,
	})
	if err != nil {
		http.Error(w, err.Error(), floorErrStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handlers) HandleSendMessage(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		ParticipantID string `json:"participant_id"`
		Content       string `json:"content"`
		TargetAITuber string `json:"target_aituber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Content == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}
	if !h.rooms.Exists(id) {
		http.NotFound(w, r)
		return
	}
	sender, ok := h.rooms.Member(id, body.ParticipantID)
	if !ok {
		http.Error(w, floor.ErrNotInRoom.Error(), http.StatusForbidden)
		return
	}
	msg := hub.Message{
		ID:            uuid.New().String(),
		RoomID:        id,
		SenderID:      sender.ID,
		SenderName:    sender.Name,
		Content:       body.Content,
		TargetAITuber: body.TargetAITuber,
		SentAt:        time.Now().UTC(),
	}
	h.hub.Publish(hub.Event{
		Type:          hub.EventMessageReceived,
		RoomID:        id,
		ParticipantID: sender.ID,
		Message:       &msg,
	})
	writeJSON(w, http.StatusOK, msg)
}

func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request, id string) {
	if !h.rooms.Exists(id) {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id": id,
		"events":  h.events.List(id),
	})
}
