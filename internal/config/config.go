package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config represents application configuration
type Config struct {
	// Addr is the listen address of the HTTP/WebSocket server.
	Addr string `json:"addr"`
	// DatabasePath is the SQLite file holding templates and palettes.
	DatabasePath string `json:"database_path"`
	// LogLevel is one of debug, info, warn, error, none.
	LogLevel string `json:"log_level"`
	// LogPath duplicates the log to a file when non-empty.
	LogPath string `json:"log_path,omitempty"`
	// RoomGraceSeconds is how long an empty room survives before
	// eviction.
	RoomGraceSeconds int `json:"room_grace_seconds"`
	// SendQueueSize is the per-connection outbound queue capacity.
	SendQueueSize int `json:"send_queue_size"`
	// MaxMessageBytes caps the size of one inbound websocket frame.
	MaxMessageBytes int64 `json:"max_message_bytes"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Addr:             ":8000",
		DatabasePath:     "constructor.db",
		LogLevel:         "info",
		RoomGraceSeconds: 60,
		SendQueueSize:    256,
		MaxMessageBytes:  1 << 20,
	}
}

// Load reads configuration from path, falling back to defaults for a
// missing file and for any field left unset.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Addr == "" {
		cfg.Addr = Default().Addr
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = Default().DatabasePath
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = Default().LogLevel
	}
	if cfg.RoomGraceSeconds <= 0 {
		cfg.RoomGraceSeconds = Default().RoomGraceSeconds
	}
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = Default().SendQueueSize
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = Default().MaxMessageBytes
	}
	return cfg, nil
}
