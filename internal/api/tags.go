package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bricknest/portal-core/internal/tag"
)

// tagResponse is the wire form of a stored tag.
type tagResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Type        string         `json:"type"`
	Attr        map[string]any `json:"attr,omitempty"`
	LastUpdated time.Time      `json:"last_updated"`
}

func toTagResponse(rec *tag.Record) tagResponse {
	return tagResponse{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		Type:        rec.Type,
		Attr:        rec.Attr,
		LastUpdated: rec.LastUpdated,
	}
}

// createTagRequest is the body accepted by POST /api/tags.
type createTagRequest struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Attr        map[string]any `json:"attr"`
}

// handleListTags returns all stored tag records.
func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	records, err := s.repo.List(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list tags")
		return
	}

	tags := make([]tagResponse, 0, len(records))
	for i := range records {
		tags = append(tags, toTagResponse(&records[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags, "count": len(tags)})
}

// handleGetTag returns a single tag record by ID.
func (s *Server) handleGetTag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, tag.ErrNotFound) {
			writeNotFound(w, "tag not found")
			return
		}
		writeInternalError(w, "failed to get tag")
		return
	}

	writeJSON(w, http.StatusOK, toTagResponse(rec))
}

// handleCreateTag registers a new tag through the registry so the
// type's factory validates attributes before anything is persisted.
func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req createTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	created, err := s.registry.Create(r.Context(), req.ID, req.Type, req.Name, req.Description, req.Attr)
	if err != nil {
		switch {
		case errors.Is(err, tag.ErrExists):
			writeConflict(w, "tag already exists")
		case errors.Is(err, tag.ErrInvalidArgument),
			errors.Is(err, tag.ErrUnknownType),
			errors.Is(err, tag.ErrMissingAttributes):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, "failed to create tag")
		}
		return
	}

	s.logger.Info("tag created via API", "id", created.Identifier(), "type", created.Type())
	writeJSON(w, http.StatusCreated, tagResponse{
		ID:          created.Identifier(),
		Name:        created.Name(),
		Description: created.Description(),
		Type:        created.Type(),
		Attr:        created.Attributes(),
	})
}

// handleDeleteTag removes a tag record and evicts it from the registry cache.
func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.registry.Delete(r.Context(), id); err != nil {
		writeInternalError(w, "failed to delete tag")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
