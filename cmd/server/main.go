package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"aitubertalk/server/internal/api"
	"aitubertalk/server/internal/arbiter"
	"aitubertalk/server/internal/clock"
	"aitubertalk/server/internal/config"
	"aitubertalk/server/internal/events"
	"aitubertalk/server/internal/floor"
	"aitubertalk/server/internal/hub"
	"aitubertalk/server/internal/notifyws"
	"aitubertalk/server/internal/rooms"
	"aitubertalk/server/internal/speech"
)

func main() {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	cfg := config.Load()

	rs := rooms.NewStore()
	h := hub.New()
	es := events.NewStore(0)
	es.Attach(h)

	var engine speech.Engine
	if cfg.Speech.Endpoint != "" {
		engine = speech.NewHTTPEngine(cfg.Speech.Endpoint, cfg.Speech.APIKey, cfg.Speech.CharsPerSec)
	} else {
		log.Printf("no speech endpoint configured; using local estimation engine")
		engine = speech.NewLocalEngine(cfg.Speech.CharsPerSec)
	}

	arb := arbiter.New(clock.New(), rs, engine, h, floor.Options{
		MaxDuration: time.Duration(cfg.Floor.MaxDurationSec) * time.Second,
		Cooldown:    time.Duration(cfg.Floor.CooldownMs) * time.Millisecond,
		QueueLimit:  cfg.Floor.QueueLimit,
	})

	handlers := api.NewHandlers(cfg, rs, es, arb, h)
	mux := http.NewServeMux()
	mux.Handle("/", api.NewRouter(handlers))
	// WS event push route
	reg := notifyws.NewRegistry()
	wss := notifyws.NewServer(cfg, rs, reg, h)
	mux.HandleFunc("/ws/events", wss.HandleEventsWS)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Printf("shutdown signal received; stopping server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	log.Printf("server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Println("server error:", err)
		os.Exit(1)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
