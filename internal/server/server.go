package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"liftlog/internal/api"
	"liftlog/internal/metrics"
)

type contextKey string

const userIDKey contextKey = "userID"

// Server is the reference sync collaborator. It owns a change-log
// store separate from any client database and speaks the push, pull
// and full endpoints the engine drives.
type Server struct {
	store  *Store
	logger *slog.Logger
	router chi.Router
}

// New creates a sync server backed by the given store
func New(store *Store, logger *slog.Logger) *Server {
	s := &Server{
		store:  store,
		logger: logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/sync", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/push", instrumented(metrics.EndpointPush, s.handlePush))
		r.Get("/pull", instrumented(metrics.EndpointPull, s.handlePull))
		r.Get("/full", instrumented(metrics.EndpointFull, s.handleFull))
	})

	r.Get("/healthz", instrumented(metrics.EndpointHealth, s.handleHealth))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// requireAuth resolves the bearer token to a user id and rejects the
// request with 401 when the token is missing or unknown
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, ok, err := s.store.Authenticate(token)
		if err != nil {
			s.logger.Error("auth lookup failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int64)

	var req api.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.store.ApplyChanges(userID, req.Changes); err != nil {
		s.logger.Error("failed to apply push batch",
			"user_id", userID,
			"changes", len(req.Changes),
			"error", err)
		writeError(w, http.StatusInternalServerError, "failed to apply changes")
		return
	}

	s.logger.Info("applied push batch", "user_id", userID, "changes", len(req.Changes))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int64)

	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid since parameter")
			return
		}
		since = parsed
	}

	changes, watermark, err := s.store.ChangesSince(userID, since)
	if err != nil {
		s.logger.Error("failed to collect changes", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to collect changes")
		return
	}

	writeJSON(w, http.StatusOK, api.PullResponse{
		Changes:   changes,
		Watermark: watermark,
	})
}

func (s *Server) handleFull(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int64)

	changes, watermark, err := s.store.Snapshot(userID)
	if err != nil {
		s.logger.Error("failed to build snapshot", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build snapshot")
		return
	}

	writeJSON(w, http.StatusOK, api.PullResponse{
		Changes:   changes,
		Watermark: watermark,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
