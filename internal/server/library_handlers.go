package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/constructhq/constructor/internal/document"
	"github.com/constructhq/constructor/internal/library"
)

// templateRequest is the body of template create/update calls.
type templateRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Tags        []string         `json:"tags"`
	Blocks      []document.Block `json:"blocks"`
	Preview     *string          `json:"preview"`
	Author      *string          `json:"author"`
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter, err := filterFromQuery(r, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	s.listTemplates(w, filter)
}

// handleListReady lists only system templates.
func (s *Server) handleListReady(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter, err := filterFromQuery(r, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	isCustom := false
	filter.IsCustom = &isCustom
	s.listTemplates(w, filter)
}

func (s *Server) listTemplates(w http.ResponseWriter, filter library.Filter) {
	templates, err := s.templates.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list templates: %v", err)
		return
	}
	if templates == nil {
		templates = []*library.Template{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	t, err := s.templates.Get(id)
	if errors.Is(err, library.ErrNotFound) {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load template: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleUploadTemplate stores a user-authored template.
func (s *Server) handleUploadTemplate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.createTemplate(w, r, true, "user")
}

// handleCreateReady stores a system template.
func (s *Server) handleCreateReady(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.createTemplate(w, r, false, "system")
}

func (s *Server) createTemplate(w http.ResponseWriter, r *http.Request, isCustom bool, defaultAuthor string) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Category == nil || strings.TrimSpace(*req.Category) == "" {
		writeError(w, http.StatusBadRequest, "category is required")
		return
	}
	if len(req.Blocks) == 0 {
		writeError(w, http.StatusBadRequest, "blocks are required")
		return
	}

	t := library.Template{
		Name:     *req.Name,
		Category: *req.Category,
		Tags:     req.Tags,
		Blocks:   req.Blocks,
		IsCustom: isCustom,
		Author:   defaultAuthor,
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Preview != nil {
		t.Preview = *req.Preview
	}
	if req.Author != nil && *req.Author != "" {
		t.Author = *req.Author
	}

	if err := s.templates.Create(&t); err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, &t)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	t, err := s.templates.Update(id, library.Update{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		Blocks:      req.Blocks,
		Preview:     req.Preview,
	})
	switch {
	case errors.Is(err, library.ErrNotFound):
		writeError(w, http.StatusNotFound, "template not found")
	case errors.Is(err, library.ErrReadOnly):
		writeError(w, http.StatusForbidden, "system templates cannot be edited")
	case err != nil:
		writeError(w, http.StatusBadRequest, "%v", err)
	default:
		writeJSON(w, http.StatusOK, t)
	}
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	err = s.templates.Delete(id)
	switch {
	case errors.Is(err, library.ErrNotFound):
		writeError(w, http.StatusNotFound, "template not found")
	case errors.Is(err, library.ErrReadOnly):
		writeError(w, http.StatusForbidden, "system templates cannot be deleted")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to delete template: %v", err)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "template deleted"})
	}
}

// filterFromQuery reads the shared list filters: category, author,
// comma-separated tags, and optionally is_custom.
func filterFromQuery(r *http.Request, allowCustom bool) (library.Filter, error) {
	q := r.URL.Query()
	filter := library.Filter{
		Category: q.Get("category"),
		Author:   q.Get("author"),
	}

	if tags := q.Get("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}

	if allowCustom {
		if raw := q.Get("is_custom"); raw != "" {
			isCustom, err := strconv.ParseBool(raw)
			if err != nil {
				return filter, errors.New("is_custom must be a boolean")
			}
			filter.IsCustom = &isCustom
		}
	}
	return filter, nil
}
