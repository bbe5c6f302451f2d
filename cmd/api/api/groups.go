package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/manzolo/docker-compose-playground-sub001/lib/groups"
	"github.com/manzolo/docker-compose-playground-sub001/lib/operations"
)

// groupSummary is the listing view of one named group.
type groupSummary struct {
	Name   string   `json:"name"`
	Images []string `json:"images"`
}

// ListGroups returns every named group in the catalog.
func (s *ApiService) ListGroups(w http.ResponseWriter, r *http.Request) {
	cat, ok := s.resolveCatalog(w, r)
	if !ok {
		return
	}

	out := make([]groupSummary, 0)
	for _, g := range cat.Groups() {
		out = append(out, groupSummary{Name: g.Name, Images: g.Images})
	}
	writeJSON(w, http.StatusOK, out)
}

// StartGroup starts every member of a group asynchronously.
func (s *ApiService) StartGroup(w http.ResponseWriter, r *http.Request) {
	s.runGroupOperation(w, r, operations.KindStartGroup)
}

// StopGroup stops every member of a group asynchronously.
func (s *ApiService) StopGroup(w http.ResponseWriter, r *http.Request) {
	s.runGroupOperation(w, r, operations.KindStopGroup)
}

func (s *ApiService) runGroupOperation(w http.ResponseWriter, r *http.Request, kind operations.Kind) {
	name := chi.URLParam(r, "name")

	cat, ok := s.resolveCatalog(w, r)
	if !ok {
		return
	}
	members, err := groups.Members(cat, name)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "unknown group: "+name)
		return
	}

	op := s.Tracker.Create(kind, name, len(members))

	ctx := background(r)
	switch kind {
	case operations.KindStartGroup:
		go s.Coordinator.StartGroup(ctx, cat, name, op.ID)
	case operations.KindStopGroup:
		go s.Coordinator.StopGroup(ctx, cat, name, op.ID)
	}

	writeJSON(w, http.StatusAccepted, operationAccepted{OperationID: op.ID})
}

// StopAll stops every catalog image asynchronously.
func (s *ApiService) StopAll(w http.ResponseWriter, r *http.Request) {
	cat, ok := s.resolveCatalog(w, r)
	if !ok {
		return
	}

	op := s.Tracker.Create(operations.KindStopGroup, "all", cat.Len())
	go s.Coordinator.StopAll(background(r), cat, op.ID)

	writeJSON(w, http.StatusAccepted, operationAccepted{OperationID: op.ID})
}

// RestartAll restarts every catalog image asynchronously.
func (s *ApiService) RestartAll(w http.ResponseWriter, r *http.Request) {
	cat, ok := s.resolveCatalog(w, r)
	if !ok {
		return
	}

	op := s.Tracker.Create(operations.KindStartGroup, "all", cat.Len())
	go s.Coordinator.RestartAll(background(r), cat, op.ID)

	writeJSON(w, http.StatusAccepted, operationAccepted{OperationID: op.ID})
}

// Cleanup force-removes every managed container asynchronously, including
// orphans no longer present in the catalog.
func (s *ApiService) Cleanup(w http.ResponseWriter, r *http.Request) {
	states, err := s.Runtime.ListManaged(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "runtime_error", err.Error())
		return
	}

	op := s.Tracker.Create(operations.KindCleanup, "all", len(states))
	go s.Coordinator.Cleanup(background(r), op.ID)

	writeJSON(w, http.StatusAccepted, operationAccepted{OperationID: op.ID})
}
