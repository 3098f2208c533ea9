package api

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/rooms", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.HandleCreateRoom(w, r)
		case http.MethodGet:
			h.HandleListRooms(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/rooms/", func(w http.ResponseWriter, r *http.Request) {
		// /rooms/{id} | /join | /leave | /events | /messages | /floor[/request|release|cancel|speak]
		path := strings.TrimSuffix(r.URL.Path, "/")
		const prefix = "/rooms/"
		if !strings.HasPrefix(path, prefix) {
			http.NotFound(w, r)
			return
		}
		rest := strings.TrimPrefix(path, prefix)
		parts := strings.Split(rest, "/")
		if len(parts) == 0 || parts[0] == "" {
			http.NotFound(w, r)
			return
		}
		id := parts[0]
		tail := ""
		if len(parts) > 1 {
			tail = parts[1]
		}

		switch tail {
		case "":
			switch r.Method {
			case http.MethodGet:
				h.HandleGetRoom(w, r, id)
			case http.MethodDelete:
				h.HandleDeleteRoom(w, r, id)
			default:
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			}
			return
		case "join":
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.HandleJoinRoom(w, r, id)
			return
		case "leave":
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.HandleLeaveRoom(w, r, id)
			return
		case "events":
			if r.Method != http.MethodGet {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.HandleListEvents(w, r, id)
			return
		case "messages":
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.HandleSendMessage(w, r, id)
			return
		case "floor":
			if len(parts) == 2 {
				if r.Method != http.MethodGet {
					http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
					return
				}
				h.HandleFloorState(w, r, id)
				return
			}
			action := parts[2]
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			switch action {
			case "request":
				h.HandleFloorRequest(w, r, id)
			case "release":
				h.HandleFloorRelease(w, r, id)
			case "cancel":
				h.HandleFloorCancel(w, r, id)
			case "speak":
				h.HandleSpeak(w, r, id)
			default:
				http.NotFound(w, r)
			}
			return
		default:
			http.NotFound(w, r)
			return
		}
	})

	return mux
}
