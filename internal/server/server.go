package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/constructhq/constructor/internal/collab"
	"github.com/constructhq/constructor/internal/generate"
	"github.com/constructhq/constructor/internal/library"
	"github.com/constructhq/constructor/internal/logger"
	"github.com/constructhq/constructor/internal/palette"
)

// Server provides the HTTP interface: the room websocket endpoint, the
// operator summaries, and the library/palette/generation APIs.
type Server struct {
	addr       string
	registry   *collab.Registry
	settings   collab.Settings
	templates  *library.Store
	palettes   *palette.Store
	generator  *generate.Generator
	router     *httprouter.Router
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// New creates a server around the given collaborators.
func New(addr string, registry *collab.Registry, settings collab.Settings, templates *library.Store, palettes *palette.Store) *Server {
	s := &Server{
		addr:      addr,
		registry:  registry,
		settings:  settings,
		templates: templates,
		palettes:  palettes,
		generator: generate.New(),
		router:    httprouter.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The editor runs on a different origin.
				return true
			},
		},
	}

	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server in the background.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:        s.addr,
		Handler:     s.router,
		ReadTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("server listening on %s", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error: %v", err)
		}
	}()
	return nil
}

// Stop shuts the HTTP server down gracefully.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Collaboration
	s.router.GET("/ws/rooms/:room_id", s.handleRoomSocket)
	s.router.GET("/", s.handleSummary)
	s.router.GET("/rooms/:room_id/info", s.handleRoomInfo)

	// Block template library
	s.router.GET("/api/v1/library/blocks", s.handleListTemplates)
	s.router.GET("/api/v1/library/ready", s.handleListReady)
	s.router.GET("/api/v1/library/block/:id", s.handleGetTemplate)
	s.router.POST("/api/v1/library/upload", s.handleUploadTemplate)
	s.router.POST("/api/v1/library/ready", s.handleCreateReady)
	s.router.PUT("/api/v1/library/block/:id", s.handleUpdateTemplate)
	s.router.DELETE("/api/v1/library/block/:id", s.handleDeleteTemplate)

	// Palettes
	s.router.GET("/api/v1/palettes/presets", s.handlePalettePresets)
	s.router.POST("/api/v1/palettes/generate", s.handlePaletteGenerate)
	s.router.GET("/api/v1/palettes", s.handleListPalettes)
	s.router.POST("/api/v1/palettes", s.handleSavePalette)

	// Generation
	s.router.POST("/api/v1/ai/generate-landing", s.handleGenerateLanding)
	s.router.GET("/api/v1/ai/supported-blocks", s.handleSupportedBlocks)
}

// handleRoomSocket upgrades the connection and attaches the participant
// to its room. The display name query parameter is mandatory.
func (s *Server) handleRoomSocket(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID := ps.ByName("room_id")
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		http.Error(w, "name query parameter is required", http.StatusBadRequest)
		return
	}

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("failed to upgrade websocket for room %s: %v", roomID, err)
		return
	}

	room := s.registry.GetOrCreate(roomID)
	client := collab.NewClient(s.registry, room, wsConn, name, s.settings)
	client.Start()
}

// handleSummary reports process-wide room and participant counts.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats := s.registry.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Constructor WebSocket Server",
		"rooms_count": stats.RoomsCount,
		"total_users": stats.TotalUsers,
	})
}

// handleRoomInfo reports one room's participants and document presence.
func (s *Server) handleRoomInfo(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	room, ok := s.registry.Get(ps.ByName("room_id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Room not found"})
		return
	}
	writeJSON(w, http.StatusOK, room.Info())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]string{"detail": fmt.Sprintf(format, args...)})
}
