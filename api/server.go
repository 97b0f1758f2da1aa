package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tokenplane/export"
	"tokenplane/model"
	"tokenplane/storage"
)

// RunFunc executes one export run end to end: resolve, render, persist.
// progress may be nil.
type RunFunc func(ctx context.Context, progress func(stage string, message string)) (*model.ExportRecord, error)

// Server exposes the export engine over REST and WebSocket.
type Server struct {
	store     *storage.Store
	runExport RunFunc
	ws        *WSConnectionManager
	upgrader  websocket.Upgrader
}

// NewServer creates an API server around an export run function.
func NewServer(store *storage.Store, runFn RunFunc) *Server {
	return &Server{
		store:     store,
		runExport: runFn,
		ws:        NewWSConnectionManager(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/api/export/latest.css", s.handleLatestCSS)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/ws", s.handleWS)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	writeJSON(w, http.StatusOK, resp)
}

// ---------- message protocol ----------

type inboundMessage struct {
	Type string `json:"type"`
}

type exportCompleteMessage struct {
	Type           string `json:"type"`
	CSS            string `json:"css"`
	VariableCount  int    `json:"variableCount"`
	CollectionName string `json:"collectionName"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type progressMessage struct {
	Type    string `json:"type"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

func completeMessage(rec *model.ExportRecord) exportCompleteMessage {
	return exportCompleteMessage{
		Type:           "export-complete",
		CSS:            rec.CSS,
		VariableCount:  rec.VariableCount,
		CollectionName: rec.CollectionName,
	}
}

// ---------- run-now ----------

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if s.runExport == nil {
		http.Error(w, "export runner not configured", http.StatusInternalServerError)
		return
	}

	rec, err := s.runExport(r.Context(), nil)
	if err != nil {
		log.Printf("run export: %v", err)
		writeJSON(w, exportErrorStatus(err), errorMessage{Type: "error", Message: err.Error()})
		return
	}

	// Let connected trigger UIs pick up runs started over REST.
	s.ws.Broadcast(completeMessage(rec))

	writeJSON(w, http.StatusOK, completeMessage(rec))
}

// exportErrorStatus maps the run error taxonomy onto HTTP statuses:
// misconfigured or empty stores are the client's data, everything else
// is a server-side failure.
func exportErrorStatus(err error) int {
	var cfgErr *export.ConfigurationError
	var noData *export.NoDataError
	if errors.As(err, &cfgErr) || errors.As(err, &noData) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) handleLatestCSS(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Latest()
	if err != nil {
		http.Error(w, "failed to load exports", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "no export available", http.StatusNotFound)
		return
	}

	filename := fmt.Sprintf("tokens-%s.css", rec.Timestamp.Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write([]byte(rec.CSS))
}

// ---------- history ----------

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid from", http.StatusBadRequest)
			return
		}
		from = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid to", http.StatusBadRequest)
			return
		}
		to = t
	}

	records, err := s.store.ListExports(from, to)
	if err != nil {
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// ---------- websocket ----------

// handleWS speaks the trigger protocol: the client sends
// {"type":"start-export"} to run one export and receives exactly one of
// {"type":"export-complete",...} or {"type":"error",...} per run, with
// progress messages in between. {"type":"close"} ends the session.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	s.ws.Add(conn)
	defer func() {
		s.ws.Remove(conn)
		conn.Close()
	}()

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "start-export":
			s.runForConn(r.Context(), conn)
		case "close":
			return
		default:
			_ = s.ws.WriteJSON(conn, errorMessage{Type: "error", Message: fmt.Sprintf("unknown message type %q", msg.Type)})
		}
	}
}

func (s *Server) runForConn(ctx context.Context, conn *websocket.Conn) {
	if s.runExport == nil {
		_ = s.ws.WriteJSON(conn, errorMessage{Type: "error", Message: "export runner not configured"})
		return
	}

	progress := func(stage string, message string) {
		_ = s.ws.WriteJSON(conn, progressMessage{Type: "progress", Stage: stage, Message: message})
	}

	rec, err := s.runExport(ctx, progress)
	if err != nil {
		log.Printf("run export: %v", err)
		_ = s.ws.WriteJSON(conn, errorMessage{Type: "error", Message: err.Error()})
		return
	}

	_ = s.ws.WriteJSON(conn, completeMessage(rec))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON error: %v", err)
	}
}
