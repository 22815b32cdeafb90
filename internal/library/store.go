package library

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/constructhq/constructor/internal/document"
)

var (
	// ErrNotFound reports a missing template id.
	ErrNotFound = errors.New("template not found")
	// ErrReadOnly reports an attempt to modify a system template.
	ErrReadOnly = errors.New("system templates are read-only")
)

// Template is one reusable block composition in the library.
type Template struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category"`
	Tags        []string         `json:"tags"`
	Author      string           `json:"author,omitempty"`
	Preview     string           `json:"preview,omitempty"`
	Blocks      []document.Block `json:"blocks"`
	IsCustom    bool             `json:"is_custom"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Filter narrows List results. Nil/zero fields match everything; Tags
// matches templates carrying at least one of the given tags.
type Filter struct {
	Category string
	Author   string
	Tags     []string
	IsCustom *bool
}

// Store persists block templates in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (and creates, if needed) the template store at path. The
// special path ":memory:" yields an ephemeral store for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// OpenDB wraps an existing database handle, creating the template
// schema if needed. Used when several stores share one SQLite file.
func OpenDB(db *sql.DB) (*Store, error) {
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS block_templates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		category TEXT NOT NULL,
		tags TEXT,
		author TEXT,
		preview TEXT,
		blocks TEXT NOT NULL,
		is_custom BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_block_templates_category ON block_templates(category);
	CREATE INDEX IF NOT EXISTS idx_block_templates_author ON block_templates(author);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Create validates and inserts a template, assigning its id and
// creation time.
func (s *Store) Create(t *Template) error {
	for _, b := range t.Blocks {
		if err := document.Validate(b); err != nil {
			return fmt.Errorf("invalid block in template: %w", err)
		}
	}

	tags, err := json.Marshal(emptyIfNil(t.Tags))
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	blocks, err := json.Marshal(t.Blocks)
	if err != nil {
		return fmt.Errorf("failed to marshal blocks: %w", err)
	}

	t.CreatedAt = time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO block_templates (name, description, category, tags, author, preview, blocks, is_custom, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.Description, t.Category, string(tags), t.Author, t.Preview, string(blocks), t.IsCustom, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}

	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	return nil
}

// Get fetches one template by id.
func (s *Store) Get(id int64) (*Template, error) {
	row := s.db.QueryRow(
		`SELECT id, name, description, category, tags, author, preview, blocks, is_custom, created_at
		 FROM block_templates WHERE id = ?`, id)

	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// List fetches templates matching the filter, oldest first. Tag
// matching happens in Go because tags live in a JSON column.
func (s *Store) List(f Filter) ([]*Template, error) {
	query := `SELECT id, name, description, category, tags, author, preview, blocks, is_custom, created_at
	          FROM block_templates`
	var conds []string
	var args []any

	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.Author != "" {
		conds = append(conds, "author = ?")
		args = append(args, f.Author)
	}
	if f.IsCustom != nil {
		conds = append(conds, "is_custom = ?")
		args = append(args, *f.IsCustom)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var out []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		if len(f.Tags) > 0 && !hasAnyTag(t.Tags, f.Tags) {
			continue
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update applies a partial update to a custom template. Nil fields stay
// unchanged. System templates cannot be edited.
type Update struct {
	Name        *string
	Description *string
	Category    *string
	Tags        []string
	Blocks      []document.Block
	Preview     *string
}

// Update modifies a custom template in place and returns the new row.
func (s *Store) Update(id int64, u Update) (*Template, error) {
	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !t.IsCustom {
		return nil, ErrReadOnly
	}

	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Category != nil {
		t.Category = *u.Category
	}
	if u.Tags != nil {
		t.Tags = u.Tags
	}
	if u.Preview != nil {
		t.Preview = *u.Preview
	}
	if u.Blocks != nil {
		for _, b := range u.Blocks {
			if err := document.Validate(b); err != nil {
				return nil, fmt.Errorf("invalid block in template: %w", err)
			}
		}
		t.Blocks = u.Blocks
	}

	tags, err := json.Marshal(emptyIfNil(t.Tags))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	blocks, err := json.Marshal(t.Blocks)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal blocks: %w", err)
	}

	_, err = s.db.Exec(
		`UPDATE block_templates SET name = ?, description = ?, category = ?, tags = ?, preview = ?, blocks = ? WHERE id = ?`,
		t.Name, t.Description, t.Category, string(tags), t.Preview, string(blocks), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return t, nil
}

// Delete removes a custom template. System templates cannot be deleted.
func (s *Store) Delete(id int64) error {
	t, err := s.Get(id)
	if err != nil {
		return err
	}
	if !t.IsCustom {
		return ErrReadOnly
	}

	_, err = s.db.Exec(`DELETE FROM block_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (*Template, error) {
	var t Template
	var description, author, preview sql.NullString
	var tags, blocks string

	err := row.Scan(&t.ID, &t.Name, &description, &t.Category, &tags, &author, &preview, &blocks, &t.IsCustom, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	t.Author = author.String
	t.Preview = preview.String

	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags for template %d: %w", t.ID, err)
		}
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if err := json.Unmarshal([]byte(blocks), &t.Blocks); err != nil {
		return nil, fmt.Errorf("failed to decode blocks for template %d: %w", t.ID, err)
	}
	return &t, nil
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func emptyIfNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
