// Package server wires the screen storage engine's session manager,
// buffer broadcaster, and websocket handlers behind a gorilla/mux
// router, the same composition root shape the teacher's daemon would
// have had for pkg/session + pkg/termsocket + pkg/api.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vibetunnel/screenengine/internal/config"
	"github.com/vibetunnel/screenengine/pkg/api"
	"github.com/vibetunnel/screenengine/pkg/session"
	"github.com/vibetunnel/screenengine/pkg/termsocket"
)

// Server is screenctl's debug/demo HTTP server: it spawns PTY sessions,
// feeds their output through the paged engine, and exposes both a raw
// PTY relay and a binary snapshot feed over websockets.
type Server struct {
	cfg     config.Config
	log     *zap.SugaredLogger
	httpSrv *http.Server

	sessions *session.Manager
	buffers  *termsocket.Manager
}

// New builds a Server from cfg, rooting session control files under
// controlPath. cfg.ListenAddr is the only field consulted at listen
// time; cols/rows set each new session's size. cfg.BudgetBytes is kept
// but not passed to any PageList: every session's buffer uses
// pagelist.New's default budget.
func New(cfg config.Config, controlPath string, log *zap.SugaredLogger) *Server {
	sessions := session.NewManager(controlPath)
	buffers := termsocket.NewManager(sessions)

	s := &Server{
		cfg:      cfg,
		log:      log,
		sessions: sessions,
		buffers:  buffers,
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	router.HandleFunc("/sessions", s.handleListSessions).Methods(http.MethodGet)
	router.Handle("/ws/raw", api.NewRawTerminalWebSocketHandler(sessions))
	router.Handle("/ws/snapshot/{sessionId}", api.NewSnapshotWebSocketHandler(buffers))

	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ApplyConfig is the config.Watcher reload callback. It records the
// reloaded BudgetBytes in s.cfg and nothing else: no running PageList's
// budget changes, and reloaded cols/rows/listenAddr are ignored.
func (s *Server) ApplyConfig(cfg config.Config) {
	s.cfg.BudgetBytes = cfg.BudgetBytes
}

// ListenAndServe blocks serving HTTP until ctx is canceled, then shuts
// the server down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("listening", "addr", s.cfg.ListenAddr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Shutdown()
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown stops accepting connections and drains termsocket's
// subscriber goroutines.
func (s *Server) Shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.httpSrv.Shutdown(shutdownCtx)
	s.buffers.Shutdown()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	sessions, _ := s.sessions.ListSessions()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":       "ok",
		"sessionCount": len(sessions),
	})
}

type createSessionRequest struct {
	Command []string `json:"command"`
	Cwd     string   `json:"cwd"`
	Name    string   `json:"name"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Command) == 0 {
		req.Command = []string{"/bin/sh"}
	}
	if req.Name == "" {
		req.Name = uuid.NewString()
	}

	sess, err := s.sessions.CreateSession(session.Config{
		Command: req.Command,
		Cwd:     req.Cwd,
		Name:    req.Name,
		Width:   s.cfg.Cols,
		Height:  s.cfg.Rows,
	})
	if err != nil {
		s.log.Errorw("create session failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if _, err := s.buffers.GetOrCreateBuffer(sess.ID); err != nil {
		s.log.Errorw("create buffer failed", "session", sess.ID, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sess.Info())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.ListSessions()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sessions)
}
