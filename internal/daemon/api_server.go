package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"streamwatch/internal/api"
	"streamwatch/internal/config"
	"streamwatch/internal/logging"
	"streamwatch/internal/services"
	"streamwatch/internal/store"
)

type apiServer struct {
	bind         string
	logger       *slog.Logger
	daemon       *Daemon
	detectionSvc *api.DetectionService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	svc := api.NewDetectionService(d.store)
	mux := http.NewServeMux()
	srv := &apiServer{
		bind:         bind,
		logger:       logger,
		daemon:       d,
		detectionSvc: svc,
	}

	token := cfg.Paths.APIToken
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/health", authMiddleware(token, srv.handleHealth))
	mux.HandleFunc("/api/candidates", authMiddleware(token, srv.handleCandidates))
	mux.HandleFunc("/api/detections", authMiddleware(token, srv.handleDetections))
	mux.HandleFunc("/api/detections/", authMiddleware(token, srv.handleDetection))
	mux.HandleFunc("/api/references", authMiddleware(token, srv.handleReferences))
	mux.HandleFunc("/api/references/", authMiddleware(token, srv.handleReference))
	mux.HandleFunc("/api/test-notification", authMiddleware(token, srv.handleTestNotification))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:         status.Running,
		PID:             status.PID,
		DetectionDBPath: status.DetectionDBPath,
		LockFilePath:    status.LockFilePath,
		Pipeline:        api.FromSummary(status.Pipeline),
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	summary, err := s.daemon.DetectionHealth(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	database, err := s.daemon.DatabaseHealth(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		Summary:  api.FromHealthSummary(summary),
		Database: api.FromDatabaseHealth(database),
	})
}

func (s *apiServer) handleCandidates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.CandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid candidate payload")
		return
	}
	if strings.TrimSpace(req.Platform) == "" || strings.TrimSpace(req.URL) == "" {
		s.writeError(w, http.StatusBadRequest, "platform and url are required")
		return
	}
	detection, created, err := s.daemon.Enqueue(r.Context(), req.Platform, req.URL, req.Title)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	s.writeJSON(w, code, api.CandidateResponse{Detection: api.FromDetection(detection), Created: created})
}

func (s *apiServer) handleDetections(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodDelete:
		s.handleDetectionsClear(w, r)
		return
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var statuses []store.Status
	for _, value := range r.URL.Query()["status"] {
		status, ok := store.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		statuses = append(statuses, status)
	}

	items, err := s.detectionSvc.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.DetectionListResponse{Items: items})
}

// handleDetectionsClear serves DELETE /api/detections. The scope query
// parameter limits removal to enforced or errored detections.
func (s *apiServer) handleDetectionsClear(w http.ResponseWriter, r *http.Request) {
	var (
		removed int64
		err     error
	)
	switch scope := strings.TrimSpace(r.URL.Query().Get("scope")); scope {
	case "", "all":
		removed, err = s.daemon.ClearDetections(r.Context())
	case "enforced":
		removed, err = s.daemon.ClearEnforced(r.Context())
	case "errored":
		removed, err = s.daemon.ClearErrored(r.Context())
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown scope %q", scope))
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ClearResponse{Removed: removed})
}

// handleDetection serves /api/detections/{id} and the stage trigger routes
// /api/detections/{id}/capture|match|enforce|retry.
func (s *apiServer) handleDetection(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/detections/")
	idStr, action, _ := strings.Cut(rest, "/")
	if idStr == "" || strings.Contains(action, "/") {
		s.writeError(w, http.StatusNotFound, "detection not found")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid detection id")
		return
	}

	if action != "" {
		s.handleDetectionAction(w, r, id, action)
		return
	}

	switch r.Method {
	case http.MethodGet:
		detail, err := s.detectionSvc.Describe(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if detail == nil {
			s.writeError(w, http.StatusNotFound, "detection not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.DetectionResponse{Item: *detail})
	case http.MethodDelete:
		removed, err := s.daemon.RemoveDetection(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !removed {
			s.writeError(w, http.StatusNotFound, "detection not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.RemoveResponse{Removed: true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleDetectionAction(w http.ResponseWriter, r *http.Request, id int64, action string) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var err error
	switch action {
	case "capture":
		err = s.daemon.pipeline.RunCapture(r.Context(), id)
	case "match":
		err = s.daemon.pipeline.RunMatch(r.Context(), id)
	case "enforce":
		err = s.daemon.pipeline.RunEnforce(r.Context(), id)
	case "retry":
		var count int64
		count, err = s.daemon.RetryErrored(r.Context(), []int64{id})
		if err == nil && count == 0 {
			s.writeError(w, http.StatusConflict, "detection is not in a retryable state")
			return
		}
	default:
		s.writeError(w, http.StatusNotFound, "unknown detection action")
		return
	}
	if err != nil {
		s.writeError(w, statusForError(err), err.Error())
		return
	}

	detail, err := s.detectionSvc.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if detail == nil {
		s.writeError(w, http.StatusNotFound, "detection not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.DetectionResponse{Item: *detail})
}

func (s *apiServer) handleReferences(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		platform := strings.TrimSpace(r.URL.Query().Get("platform"))
		references, err := s.daemon.ListReferences(r.Context(), platform)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.ReferenceListResponse{Items: api.FromReferences(references)})
	case http.MethodPost:
		var req api.ReferenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid reference payload")
			return
		}
		if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Platform) == "" {
			s.writeError(w, http.StatusBadRequest, "title and platform are required")
			return
		}
		reference, err := s.daemon.UpsertReference(r.Context(), &store.Reference{
			Title:            req.Title,
			Platform:         req.Platform,
			ContentType:      req.ContentType,
			VideoFingerprint: req.VideoFingerprint,
			AudioFingerprint: req.AudioFingerprint,
		})
		if err != nil {
			s.writeError(w, statusForError(err), err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, api.ReferenceResponse{Item: api.FromReference(reference)})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleReference(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/api/references/")
	if idStr == "" || strings.Contains(idStr, "/") {
		s.writeError(w, http.StatusNotFound, "reference not found")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid reference id")
		return
	}
	removed, err := s.daemon.RemoveReference(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		s.writeError(w, http.StatusNotFound, "reference not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.RemoveResponse{Removed: true})
}

func (s *apiServer) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sent, message, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, message)
		return
	}
	s.writeJSON(w, http.StatusOK, api.TestNotificationResponse{Sent: sent, Message: message})
}

// statusForError maps service error markers onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusConflict
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "api-server")
}
