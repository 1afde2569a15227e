// Package server is the HTTP boundary of the classifier: the platform glue
// posts captured notification events here, and the consuming app uses the
// administrative endpoints to inspect supported sources, force a rules
// refresh and drain the pending queue. Handlers carry no decision logic of
// their own; they delegate to the engine, the rule manager and the queue.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"BankSentinel/internal/dispatch"
	"BankSentinel/internal/engine"
	"BankSentinel/internal/queue"
	"BankSentinel/internal/rules"
)

type Server struct {
	Manager    *rules.Manager
	Dispatcher *dispatch.Dispatcher
	Queue      queue.Queue
}

func New(m *rules.Manager, d *dispatch.Dispatcher, q queue.Queue) *Server {
	return &Server{Manager: m, Dispatcher: d, Queue: q}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.health)
	mux.HandleFunc("/notifications", s.notifications)
	mux.HandleFunc("/sources", s.sources)
	mux.HandleFunc("/refresh", s.refresh)
	mux.HandleFunc("/pending", s.pending)
	return mux
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// notificationEvent is one captured (source, title, text) triple.
type notificationEvent struct {
	SourceKey string `json:"sourceKey"`
	Title     string `json:"title"`
	Text      string `json:"text"`
}

// notifications ingests one notification event. 202 with the record when a
// rule matched and the record was persisted, 204 when the event produced no
// classification (unsupported source, ignored, or no rule matched).
func (s *Server) notifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var evt notificationEvent
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		writeErr(w, fmt.Errorf("decode event: %w", err), http.StatusBadRequest)
		return
	}
	if evt.SourceKey == "" {
		writeErr(w, fmt.Errorf("sourceKey is required"), http.StatusBadRequest)
		return
	}

	rec := engine.Classify(s.Manager.Current(), evt.SourceKey, evt.Title, evt.Text)
	if rec == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := s.Dispatcher.Dispatch(r.Context(), rec); err != nil {
		writeErr(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, rec)
}

// sources lists the source keys the live rule set supports.
func (s *Server) sources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sources": s.Manager.Current().SourceKeys(),
	})
}

// refresh forces an immediate rule-set refresh. A failure leaves the
// previous rule set live and is reported to the caller only.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.Manager.Refresh(r.Context()); err != nil {
		writeErr(w, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"banks": len(s.Manager.Current().Banks),
	})
}

// pending reads (GET) or clears (DELETE) the pending queue.
func (s *Server) pending(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		records, err := s.Queue.Pending()
		if err != nil {
			writeErr(w, err, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count":   len(records),
			"pending": records,
		})
	case http.MethodDelete:
		n, err := s.Queue.Clear()
		if err != nil {
			writeErr(w, err, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cleared": n})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
