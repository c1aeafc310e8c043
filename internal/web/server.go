// Package web serves the dashboard HTML and an SSE stream of cycle events.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/recallagent/rebalancer/internal/domain"
)

const eventPollInterval = 2 * time.Second

type cycleEventReader interface {
	EventsAfter(index uint64) ([]domain.CycleEventRecord, error)
}

// Server exposes HTTP endpoints serving the HTML UI and an SSE stream.
type Server struct {
	Addr   string
	Events cycleEventReader
}

// NewServer creates a new web server instance.
func NewServer(addr string, events cycleEventReader) *Server {
	return &Server{Addr: addr, Events: events}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/events/stream", s.handleEventStream)

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	if s.Events == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "cycle event store not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// send a comment heartbeat every 30s so proxies keep connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(eventPollInterval)
	defer pollTicker.Stop()

	lastIndex := uint64(0)
	sendEvents := func() error {
		records, err := s.Events.EventsAfter(lastIndex)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		for _, record := range records {
			payload, err := json.Marshal(record.Event)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: %s\n", record.Event.Type)
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = record.Index
		}
		return nil
	}

	if err := sendEvents(); err != nil {
		http.Error(w, "failed to load cycle events", http.StatusInternalServerError)
		log.Printf("event stream initial load: %v", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendEvents(); err != nil {
				log.Printf("event stream poll err: %v", err)
			}
		}
	}
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Rebalancer</title>
  <style>
    body { font-family: monospace; background: #111; color: #ddd; margin: 2rem; }
    h1 { font-size: 1.2rem; }
    #events { list-style: none; padding: 0; }
    #events li { padding: .3rem .5rem; border-bottom: 1px solid #333; }
    .snapshot { color: #8fbcbb; }
    .opportunity { color: #ebcb8b; }
    .trade { color: #a3be8c; }
  </style>
</head>
<body>
  <h1>Portfolio rebalancer: cycle events</h1>
  <ul id="events"></ul>
  <script>
    const list = document.getElementById('events');
    const src = new EventSource('/events/stream');
    const add = (type, e) => {
      const ev = JSON.parse(e.data);
      const li = document.createElement('li');
      li.className = type;
      li.textContent = ev.ts + ' [' + type + '] ' +
        (ev.total_value ? '$' + ev.total_value + ' ' : '') +
        (ev.tier ? 'tier=' + ev.tier + ' ' : '') +
        (ev.detail || '');
      list.prepend(li);
    };
    ['snapshot', 'opportunity', 'trade'].forEach(t =>
      src.addEventListener(t, e => add(t, e)));
  </script>
</body>
</html>`
