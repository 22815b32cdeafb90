package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/constructhq/constructor/internal/document"
	"github.com/constructhq/constructor/internal/palette"
)

func (s *Server) handlePalettePresets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, palette.Presets())
}

func (s *Server) handlePaletteGenerate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, palette.Generate())
}

func (s *Server) handleListPalettes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var projectID *int64
	if raw := r.URL.Query().Get("project_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "project_id must be an integer")
			return
		}
		projectID = &id
	}

	palettes, err := s.palettes.List(projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list palettes: %v", err)
		return
	}
	if palettes == nil {
		palettes = []*palette.Saved{}
	}
	writeJSON(w, http.StatusOK, palettes)
}

func (s *Server) handleSavePalette(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Name        string          `json:"name"`
		ProjectID   *int64          `json:"project_id"`
		Palette     palette.Palette `json:"palette"`
		Description string          `json:"description"`
		IsPreset    bool            `json:"is_preset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	saved := palette.Saved{
		Name:        req.Name,
		ProjectID:   req.ProjectID,
		Palette:     req.Palette,
		Description: req.Description,
		IsPreset:    req.IsPreset,
	}
	if err := s.palettes.Save(&saved); err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, &saved)
}

func (s *Server) handleGenerateLanding(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Prompt     string   `json:"prompt"`
		Categories []string `json:"categories"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	writeJSON(w, http.StatusOK, s.generator.Generate(req.Prompt, req.Categories))
}

func (s *Server) handleSupportedBlocks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]any{"blocks": document.Descriptors()})
}
