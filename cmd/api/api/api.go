package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/manzolo/docker-compose-playground-sub001/cmd/api/config"
	"github.com/manzolo/docker-compose-playground-sub001/lib/catalog"
	"github.com/manzolo/docker-compose-playground-sub001/lib/groups"
	"github.com/manzolo/docker-compose-playground-sub001/lib/lifecycle"
	"github.com/manzolo/docker-compose-playground-sub001/lib/logger"
	"github.com/manzolo/docker-compose-playground-sub001/lib/operations"
	"github.com/manzolo/docker-compose-playground-sub001/lib/runtime"
)

// ApiService holds the managers behind the HTTP handlers.
type ApiService struct {
	Config      *config.Config
	Resolver    *catalog.Resolver
	Runtime     runtime.Runtime
	Controller  lifecycle.Controller
	Coordinator groups.Coordinator
	Tracker     operations.Tracker
}

// New creates a new ApiService
func New(
	config *config.Config,
	resolver *catalog.Resolver,
	rt runtime.Runtime,
	controller lifecycle.Controller,
	coordinator groups.Coordinator,
	tracker operations.Tracker,
) *ApiService {
	return &ApiService{
		Config:      config,
		Resolver:    resolver,
		Runtime:     rt,
		Controller:  controller,
		Coordinator: coordinator,
		Tracker:     tracker,
	}
}

// Routes mounts all API routes on the router.
func (s *ApiService) Routes(r chi.Router) {
	r.Get("/images", s.ListImages)
	r.Get("/images/{name}/logs", s.GetImageLogs)
	r.Post("/images/{name}/start", s.StartImage)
	r.Post("/images/{name}/stop", s.StopImage)
	r.Post("/images/{name}/restart", s.RestartImage)

	r.Get("/groups", s.ListGroups)
	r.Post("/groups/{name}/start", s.StartGroup)
	r.Post("/groups/{name}/stop", s.StopGroup)

	r.Post("/containers/stop-all", s.StopAll)
	r.Post("/containers/restart-all", s.RestartAll)
	r.Post("/containers/cleanup", s.Cleanup)

	r.Get("/operations", s.ListOperations)
	r.Get("/operations/{id}", s.GetOperation)
	r.Delete("/operations/{id}", s.DeleteOperation)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type operationAccepted struct {
	OperationID string `json:"operation_id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Code: code, Message: message})
}

// resolveCatalog loads the layered catalog for a request. Parse and
// validation failures abort the request; no partial catalog is ever used.
func (s *ApiService) resolveCatalog(w http.ResponseWriter, r *http.Request) (*catalog.Catalog, bool) {
	cat, err := s.Resolver.Resolve(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "catalog resolution failed", "error", err)
		writeError(w, http.StatusInternalServerError, "invalid_catalog", err.Error())
		return nil, false
	}
	return cat, true
}

// background returns a detached context carrying the request logger, for work
// that must outlive the request.
func background(r *http.Request) context.Context {
	return logger.AddToContext(context.Background(), logger.FromContext(r.Context()))
}

// Healthz reports daemon liveness.
func (s *ApiService) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
