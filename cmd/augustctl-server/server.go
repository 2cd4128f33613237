package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/augustctl/augustctl-go/cmd/augustctl-server/api"
	"github.com/augustctl/augustctl-go/pkg/lock"
)

// Messages returned in Result.Msg.
const (
	msgCompleted       = "Command completed. Disconnected."
	msgAlreadyLocked   = "Lock is already locked"
	msgAlreadyUnlocked = "Lock is already unlocked"
)

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Addr             string
	DBPath           string
	Version          string
	OperationTimeout time.Duration
}

// Result is the body of the /api/status, /api/lock and /api/unlock routes.
// Status is 0 when the command ran, 1 when the lock already was in the
// requested state and -1 on failure.
type Result struct {
	Status int    `json:"status"`
	Ret    string `json:"ret"`
	Msg    string `json:"msg"`
}

// Server is the HTTP front end of one lock.
type Server struct {
	config ServerConfig
	mux    *http.ServeMux
	server *http.Server
	store  *api.Store

	// mu serializes lock operations; a Lock handles one caller at a time.
	mu   sync.Mutex
	lock *lock.Lock
}

// NewServer creates a new server with the given configuration.
func NewServer(cfg ServerConfig) (*Server, error) {
	store, err := api.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
		store:  store,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:    cfg.Addr,
		Handler: s.mux,
	}

	return s, nil
}

// SetLock binds the lock served by the lock routes. Until then they
// answer 503.
func (s *Server) SetLock(l *lock.Lock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lock = l
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/lock", s.handleLock)
	s.mux.HandleFunc("/api/unlock", s.handleUnlock)

	s.mux.HandleFunc("/api/v1/health", s.handleHealth)
	s.mux.HandleFunc("/api/v1/history", s.handleHistory)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.serveLockOperation(w, r, api.OperationStatus, func(ctx context.Context, l *lock.Lock, current lock.Status) (Result, error) {
		return Result{Status: 0, Ret: current.String(), Msg: msgCompleted}, nil
	})
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	s.serveLockOperation(w, r, api.OperationLock, func(ctx context.Context, l *lock.Lock, current lock.Status) (Result, error) {
		if current != lock.StatusUnlocked {
			return Result{Status: 1, Ret: current.String(), Msg: msgAlreadyLocked}, nil
		}
		if _, err := l.ForceLock(ctx); err != nil {
			return Result{}, err
		}
		return Result{Status: 0, Ret: lock.StatusLocked.String(), Msg: msgCompleted}, nil
	})
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	s.serveLockOperation(w, r, api.OperationUnlock, func(ctx context.Context, l *lock.Lock, current lock.Status) (Result, error) {
		if current != lock.StatusLocked {
			return Result{Status: 1, Ret: current.String(), Msg: msgAlreadyUnlocked}, nil
		}
		if _, err := l.ForceUnlock(ctx); err != nil {
			return Result{}, err
		}
		return Result{Status: 0, Ret: lock.StatusUnlocked.String(), Msg: msgCompleted}, nil
	})
}

type lockAction func(ctx context.Context, l *lock.Lock, current lock.Status) (Result, error)

// serveLockOperation runs connect, status, action and disconnect under
// the server mutex, and records the outcome.
func (s *Server) serveLockOperation(w http.ResponseWriter, r *http.Request, name string, action lockAction) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lock == nil {
		http.Error(w, "Lock not available", http.StatusServiceUnavailable)
		return
	}

	entry := &api.Entry{
		LockID:    s.lock.ID(),
		Operation: name,
		StartedAt: time.Now(),
	}

	res, err := s.runLocked(r.Context(), action)
	finished := time.Now()
	entry.FinishedAt = &finished

	switch {
	case err != nil:
		entry.Outcome = api.OutcomeFailed
		entry.Error = err.Error()
		log.Printf("%s failed: %v", name, err)
	case res.Status == 0:
		entry.Outcome = api.OutcomeCompleted
		entry.LockState = res.Ret
	default:
		entry.Outcome = api.OutcomeSkipped
		entry.LockState = res.Ret
	}
	if rerr := s.store.Record(entry); rerr != nil {
		log.Printf("Failed to record history: %v", rerr)
	}

	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Result{Status: -1, Msg: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// runLocked performs one connect/operate/disconnect cycle. s.mu must be held.
func (s *Server) runLocked(ctx context.Context, action lockAction) (res Result, err error) {
	if s.config.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.OperationTimeout)
		defer cancel()
	}

	defer func() {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lock.DefaultResponseTimeout)
		defer cancel()
		if derr := s.lock.Disconnect(dctx); derr != nil {
			err = errors.Join(err, fmt.Errorf("disconnect: %w", derr))
		}
	}()

	if err := s.lock.Connect(ctx); err != nil {
		return Result{}, fmt.Errorf("connect: %w", err)
	}
	current, err := s.lock.Status(ctx)
	if err != nil {
		return Result{}, err
	}
	return action(ctx, s.lock, current)
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	version := s.config.Version
	if version == "" {
		version = "dev"
	}

	s.mu.Lock()
	bound := s.lock != nil
	s.mu.Unlock()

	lockState := "unavailable"
	if bound {
		lockState = "available"
	}

	resp := map[string]string{
		"status":  "ok",
		"version": version,
		"lock":    lockState,
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleHistory lists recorded operations. Query parameters limit and
// offset page through the history.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := s.store.List(limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	total, err := s.store.Count()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []api.Entry{}
	}

	writeJSON(w, http.StatusOK, api.HistoryResponse{Entries: entries, Total: total})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for running ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Close closes the store.
func (s *Server) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
