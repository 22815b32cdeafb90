package generate

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/constructhq/constructor/internal/document"
	"github.com/constructhq/constructor/internal/palette"
)

// Landing is a generated page scaffold: blocks ready for the editor, a
// color palette, and generation metadata.
type Landing struct {
	Blocks  []document.Block `json:"blocks"`
	Palette palette.Palette  `json:"palette"`
	Meta    map[string]any   `json:"meta"`
}

// Generator builds landing scaffolds from a text prompt. It is a mock
// stand-in for a real model: output is assembled from fixed block
// shapes seeded with the prompt text.
type Generator struct {
	model string
}

// New creates a mock generator.
func New() *Generator {
	return &Generator{model: "mock-llm"}
}

// Generate builds a landing for the prompt. Categories hint at which
// block kinds to include; an empty list means all of them. Every block
// in the result passes structural validation.
func (g *Generator) Generate(prompt string, categories []string) *Landing {
	want := func(category string) bool {
		if len(categories) == 0 {
			return true
		}
		for _, c := range categories {
			if strings.EqualFold(c, category) {
				return true
			}
		}
		return false
	}

	headline := strings.TrimSpace(prompt)
	if len(headline) > 80 {
		headline = headline[:80]
	}

	var blocks []document.Block
	if want("hero") {
		blocks = append(blocks,
			document.Block{
				"id": blockID(), "type": document.TypeText,
				"content": headline,
				"style":   map[string]any{"fontSize": "32px", "fontWeight": "bold", "textAlign": "center"},
			},
			document.Block{
				"id": blockID(), "type": document.TypeImage,
				"url":   "https://placehold.co/1200x480",
				"style": map[string]any{"width": "100%"},
			},
		)
	}
	if want("features") {
		blocks = append(blocks, document.Block{
			"id": blockID(), "type": document.TypeGrid,
			"settings": map[string]any{"columns": 2, "rows": 1, "gapX": 16, "gapY": 16},
			"cells": []any{
				map[string]any{"block": map[string]any{
					"id": blockID(), "type": document.TypeText,
					"content": "Why choose us",
				}},
				map[string]any{"block": map[string]any{
					"id": blockID(), "type": document.TypeText,
					"content": "Built for " + headline,
				}},
			},
		})
	}
	if want("cta") {
		blocks = append(blocks, document.Block{
			"id": blockID(), "type": document.TypeButton,
			"text": "Get started", "link": "#",
			"style": map[string]any{"textAlign": "center"},
		})
	}

	// Keep only structurally valid blocks, the way the renderer
	// assembles its final page JSON.
	valid := blocks[:0]
	for _, b := range blocks {
		if err := document.Validate(b); err == nil {
			valid = append(valid, b)
		}
	}

	return &Landing{
		Blocks:  valid,
		Palette: palette.Generate(),
		Meta: map[string]any{
			"model":        g.model,
			"prompt":       prompt,
			"generated_at": time.Now().UTC().Format(time.RFC3339),
			"version":      "1.0.0",
		},
	}
}

func blockID() string {
	bytes := make([]byte, 6)
	_, _ = rand.Read(bytes)
	return "gen-" + hex.EncodeToString(bytes)
}
