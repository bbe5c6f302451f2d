package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/manzolo/docker-compose-playground-sub001/lib/catalog"
	"github.com/manzolo/docker-compose-playground-sub001/lib/compose"
	"github.com/manzolo/docker-compose-playground-sub001/lib/lifecycle"
	"github.com/manzolo/docker-compose-playground-sub001/lib/logger"
	"github.com/manzolo/docker-compose-playground-sub001/lib/operations"
	"github.com/manzolo/docker-compose-playground-sub001/lib/runtime"
)

// imageStatus is the dashboard view of one catalog image.
type imageStatus struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Shell       string `json:"shell"`
	MOTD        string `json:"motd,omitempty"`
	Running     bool   `json:"running"`
	Container   string `json:"container,omitempty"`
}

// ListImages returns every catalog image with its runtime state.
func (s *ApiService) ListImages(w http.ResponseWriter, r *http.Request) {
	cat, ok := s.resolveCatalog(w, r)
	if !ok {
		return
	}

	managed, err := s.Runtime.ListManaged(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error", err.Error())
		return
	}
	running := lo.SliceToMap(managed, func(c runtime.ContainerState) (string, runtime.ContainerState) {
		return c.Name, c
	})

	out := make([]imageStatus, 0, cat.Len())
	for _, def := range cat.Images() {
		st := imageStatus{
			Name:        def.Name,
			Image:       def.Image,
			Category:    def.Category,
			Description: def.Description,
			Shell:       def.Shell,
			MOTD:        def.MOTD,
		}
		if c, ok := running[compose.ContainerName(def.Name)]; ok && c.Running() {
			st.Running = true
			st.Container = c.Name
		}
		out = append(out, st)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetImageLogs returns the tail of the image's container output.
func (s *ApiService) GetImageLogs(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	cat, ok := s.resolveCatalog(w, r)
	if !ok {
		return
	}
	if _, ok := cat.Image(name); !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown image: "+name)
		return
	}

	tail := 100
	if v := r.URL.Query().Get("tail"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "tail must be a positive integer")
			return
		}
		tail = n
	}

	logs, err := s.Runtime.ContainerLogs(r.Context(), compose.ContainerName(name), tail)
	if err != nil {
		if errors.Is(err, runtime.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "container not running: "+name)
			return
		}
		writeError(w, http.StatusInternalServerError, "error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "logs": logs})
}

// StartImage starts one image asynchronously and returns the operation id.
func (s *ApiService) StartImage(w http.ResponseWriter, r *http.Request) {
	s.runImageOperation(w, r, operations.KindStart)
}

// StopImage stops one image asynchronously and returns the operation id.
func (s *ApiService) StopImage(w http.ResponseWriter, r *http.Request) {
	s.runImageOperation(w, r, operations.KindStop)
}

// RestartImage restarts one image asynchronously and returns the operation id.
func (s *ApiService) RestartImage(w http.ResponseWriter, r *http.Request) {
	s.runImageOperation(w, r, operations.KindRestart)
}

func (s *ApiService) runImageOperation(w http.ResponseWriter, r *http.Request, kind operations.Kind) {
	name := chi.URLParam(r, "name")

	cat, ok := s.resolveCatalog(w, r)
	if !ok {
		return
	}
	if _, ok := cat.Image(name); !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown image: "+name)
		return
	}

	op := s.Tracker.Create(kind, name, 1)

	// Detach from the request: the client polls the operation instead.
	go s.executeImage(background(r), cat, kind, name, op.ID)

	writeJSON(w, http.StatusAccepted, operationAccepted{OperationID: op.ID})
}

func (s *ApiService) executeImage(ctx context.Context, cat *catalog.Catalog, kind operations.Kind, name, opID string) {
	log := logger.FromContext(ctx)

	switch kind {
	case operations.KindStart:
		res, err := s.Controller.Start(ctx, cat, name)
		s.recordStartOutcome(opID, res, err)
	case operations.KindRestart:
		res, err := s.Controller.Restart(ctx, cat, name)
		s.recordStartOutcome(opID, res, err)
	case operations.KindStop:
		err := s.Controller.Stop(ctx, cat, name)
		switch {
		case err == nil:
			_ = s.Tracker.Increment(opID, operations.CounterStopped)
			_ = s.Tracker.Increment(opID, operations.CounterRemoved)
		default:
			_ = s.Tracker.Increment(opID, operations.CounterFailed)
			_ = s.Tracker.AppendError(opID, err.Error())
		}
	}

	if err := s.Tracker.Complete(opID); err != nil {
		log.ErrorContext(ctx, "complete operation", "operation", opID, "error", err)
	}
}

func (s *ApiService) recordStartOutcome(opID string, res *lifecycle.StartResult, err error) {
	if err != nil {
		_ = s.Tracker.Increment(opID, operations.CounterFailed)
		_ = s.Tracker.AppendError(opID, err.Error())
		return
	}
	_ = s.Tracker.Increment(opID, operations.CounterStarted)
	for _, warning := range res.Warnings {
		_ = s.Tracker.AppendError(opID, warning)
	}
}
