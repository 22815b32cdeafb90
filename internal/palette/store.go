package palette

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound reports a missing palette id.
var ErrNotFound = errors.New("palette not found")

// Saved is a palette persisted in the store, optionally bound to a
// project.
type Saved struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name,omitempty"`
	ProjectID   *int64  `json:"project_id,omitempty"`
	Palette     Palette `json:"palette"`
	Description string  `json:"description,omitempty"`
	IsPreset    bool    `json:"is_preset"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists palettes in SQLite. It shares the database handle with
// the other stores.
type Store struct {
	db *sql.DB
}

// OpenDB wraps an existing database handle, creating the palette schema
// if needed.
func OpenDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to initialize palette schema: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS palettes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		project_id INTEGER,
		primary_color TEXT NOT NULL,
		secondary_color TEXT,
		background_color TEXT NOT NULL,
		text_color TEXT NOT NULL,
		accent_color TEXT NOT NULL,
		surface_color TEXT,
		border_color TEXT,
		additional_colors TEXT,
		description TEXT,
		is_preset BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_palettes_project ON palettes(project_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save validates and inserts a palette, assigning its id and creation
// time.
func (s *Store) Save(p *Saved) error {
	if err := p.Palette.Validate(); err != nil {
		return err
	}

	var additional []byte
	if p.Palette.AdditionalColors != nil {
		var err error
		additional, err = json.Marshal(p.Palette.AdditionalColors)
		if err != nil {
			return fmt.Errorf("failed to marshal additional colors: %w", err)
		}
	}

	p.CreatedAt = time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO palettes (name, project_id, primary_color, secondary_color, background_color,
		                       text_color, accent_color, surface_color, border_color,
		                       additional_colors, description, is_preset, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.ProjectID, p.Palette.Primary, nullable(p.Palette.Secondary), p.Palette.Background,
		p.Palette.Text, p.Palette.Accent, nullable(p.Palette.Surface), nullable(p.Palette.Border),
		nullableBytes(additional), p.Description, p.IsPreset, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert palette: %w", err)
	}

	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	return nil
}

// SeedPresets inserts the built-in palettes when the store holds no
// presets yet, so a fresh database starts with something to offer.
func (s *Store) SeedPresets() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM palettes WHERE is_preset`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count presets: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, preset := range Presets() {
		saved := Saved{Name: preset.Name, Palette: preset.Palette, IsPreset: true}
		if err := s.Save(&saved); err != nil {
			return fmt.Errorf("failed to seed preset %q: %w", preset.Name, err)
		}
	}
	return nil
}

// Get fetches one saved palette by id.
func (s *Store) Get(id int64) (*Saved, error) {
	row := s.db.QueryRow(selectColumns+` WHERE id = ?`, id)
	p, err := scanSaved(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// List fetches saved palettes, oldest first. When projectID is non-nil
// only palettes bound to that project are returned.
func (s *Store) List(projectID *int64) ([]*Saved, error) {
	query := selectColumns
	var args []any
	if projectID != nil {
		query += ` WHERE project_id = ?`
		args = append(args, *projectID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query palettes: %w", err)
	}
	defer rows.Close()

	var out []*Saved
	for rows.Next() {
		p, err := scanSaved(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const selectColumns = `SELECT id, name, project_id, primary_color, secondary_color, background_color,
       text_color, accent_color, surface_color, border_color, additional_colors,
       description, is_preset, created_at FROM palettes`

type scanner interface {
	Scan(dest ...any) error
}

func scanSaved(row scanner) (*Saved, error) {
	var p Saved
	var name, secondary, surface, border, additional, description sql.NullString
	var projectID sql.NullInt64

	err := row.Scan(&p.ID, &name, &projectID, &p.Palette.Primary, &secondary, &p.Palette.Background,
		&p.Palette.Text, &p.Palette.Accent, &surface, &border, &additional,
		&description, &p.IsPreset, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	p.Name = name.String
	p.Description = description.String
	p.Palette.Secondary = secondary.String
	p.Palette.Surface = surface.String
	p.Palette.Border = border.String
	if projectID.Valid {
		p.ProjectID = &projectID.Int64
	}
	if additional.Valid && additional.String != "" {
		if err := json.Unmarshal([]byte(additional.String), &p.Palette.AdditionalColors); err != nil {
			return nil, fmt.Errorf("failed to decode additional colors for palette %d: %w", p.ID, err)
		}
	}
	return &p, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
