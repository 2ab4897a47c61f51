package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"transcript-logger/internal/loki"
	"transcript-logger/internal/turnevt"
)

const (
	maxBodyLen   = 1 << 20 // 1 MiB — matches the conversation server's limit.
	maxJSONDepth = 100
)

// Pusher is the write-path port the server forwards turn events through.
// *loki.Client satisfies it.
type Pusher interface {
	Job() string
	Push(ctx context.Context, rec loki.Record) error
	HealthSnapshot() loki.HealthSnapshot
}

// IngestEvent is a lightweight value type carrying only the fields the TUI
// needs. It decouples the TUI from the full turnevt / loki types.
type IngestEvent struct {
	MessageType string
	SessionID   string
	TurnNumber  int
	BodySize    int
	Timestamp   time.Time
}

// Server is the HTTP bridge for receiving transcript turn events from the
// conversation server and pushing them to the log backend.
type Server struct {
	pusher   Pusher
	mux      *http.ServeMux
	ingested atomic.Int64
	errors   atomic.Int64
	lastTurn atomic.Value // stores time.Time
	onIngest func(IngestEvent)
}

// SetOnIngest registers a callback invoked after each successful push.
// The callback must be non-blocking (e.g. a non-blocking channel send).
func (s *Server) SetOnIngest(fn func(IngestEvent)) {
	s.onIngest = fn
}

// ErrCount returns the atomic error counter for direct reads by the TUI.
func (s *Server) ErrCount() *atomic.Int64 {
	return &s.errors
}

// New creates a new ingest Server wired to the given Pusher.
func New(p Pusher) *Server {
	srv := &Server{pusher: p}
	mux := http.NewServeMux()
	mux.HandleFunc("/ingest", srv.handleIngest)
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/stats", srv.handleStats)
	srv.mux = mux
	return srv
}

// Handler returns the HTTP handler for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyLen+1))
	if err != nil {
		s.errors.Add(1)
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxBodyLen {
		s.errors.Add(1)
		jsonError(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}
	if len(body) == 0 {
		s.errors.Add(1)
		jsonError(w, "empty body", http.StatusBadRequest)
		return
	}

	if err := checkJSONDepth(body, maxJSONDepth); err != nil {
		s.errors.Add(1)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var evt turnevt.TranscriptEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		s.errors.Add(1)
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if evt.SessionID == "" {
		s.errors.Add(1)
		jsonError(w, "missing sessionId", http.StatusBadRequest)
		return
	}
	if evt.MessageType == "" {
		s.errors.Add(1)
		jsonError(w, "missing messageType", http.StatusBadRequest)
		return
	}

	rec := loki.TurnEventToRecord(s.pusher.Job(), evt)

	if err := s.pusher.Push(r.Context(), rec); err != nil {
		s.errors.Add(1)
		jsonError(w, "push failed", http.StatusServiceUnavailable)
		return
	}

	s.ingested.Add(1)
	s.lastTurn.Store(time.Now())

	if s.onIngest != nil {
		s.onIngest(IngestEvent{
			MessageType: evt.MessageType,
			SessionID:   evt.SessionID,
			TurnNumber:  evt.TurnNumber,
			BodySize:    len(body),
			Timestamp:   time.Unix(evt.Timestamp, 0),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "accepted",
		"id":     uuid.New().String(),
	})
}

// jsonError writes a JSON error response with the correct Content-Type.
func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.pusher.HealthSnapshot()
	resp := map[string]interface{}{
		"ingested":      s.ingested.Load(),
		"errors":        s.errors.Load(),
		"entries_total": snap.EntriesTotal,
		"errors_total":  snap.ErrorsTotal,
	}
	if !snap.LastSuccess.IsZero() {
		resp["last_success"] = snap.LastSuccess.Format(time.RFC3339)
	}
	if last := s.lastTurn.Load(); last != nil {
		if t, ok := last.(time.Time); ok {
			resp["last_turn"] = t.Format(time.RFC3339)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// checkJSONDepth scans raw JSON tokens to reject payloads that exceed maxDepth
// nesting levels.
func checkJSONDepth(data []byte, maxDepth int) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	depth := 0
	for {
		t, err := dec.Token()
		if err != nil {
			return nil // io.EOF or parse error — let Unmarshal handle it
		}
		switch t {
		case json.Delim('{'), json.Delim('['):
			depth++
			if depth > maxDepth {
				return fmt.Errorf("JSON nesting exceeds maximum depth of %d", maxDepth)
			}
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
	}
}
