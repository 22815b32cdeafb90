package document

import "fmt"

// requiredFields maps each block type to the fields that must be present
// besides id and type.
var requiredFields = map[string][]string{
	TypeText:      {"content"},
	TypeImage:     {"url"},
	TypeButton:    {"text"},
	TypeVideo:     {"url"},
	TypeContainer: {"children"},
	TypeGrid:      nil,
}

// Validate checks the structural shape of a block: id and type must be
// present, the type must be one of the supported kinds, and the
// type-specific required fields must exist. Nested blocks are not
// descended into; callers validate each uploaded block individually.
func Validate(b Block) error {
	if b.ID() == "" {
		return fmt.Errorf("block is missing an id")
	}

	typ := b.Type()
	required, ok := requiredFields[typ]
	if !ok {
		return fmt.Errorf("block %q has unsupported type %q", b.ID(), typ)
	}

	for _, field := range required {
		if _, present := b[field]; !present {
			return fmt.Errorf("block %q of type %q is missing field %q", b.ID(), typ, field)
		}
	}
	return nil
}

// Descriptor describes one supported block type for API consumers.
type Descriptor struct {
	Type           string   `json:"type"`
	Description    string   `json:"description"`
	RequiredFields []string `json:"required_fields"`
}

// Descriptors lists all supported block types with their required
// fields.
func Descriptors() []Descriptor {
	return []Descriptor{
		{Type: TypeText, Description: "Text block", RequiredFields: []string{"id", "type", "content"}},
		{Type: TypeImage, Description: "Image block", RequiredFields: []string{"id", "type", "url"}},
		{Type: TypeButton, Description: "Button", RequiredFields: []string{"id", "type", "text"}},
		{Type: TypeVideo, Description: "Video block", RequiredFields: []string{"id", "type", "url"}},
		{Type: TypeContainer, Description: "Container for other blocks", RequiredFields: []string{"id", "type", "children"}},
		{Type: TypeGrid, Description: "Grid of cells", RequiredFields: []string{"id", "type", "settings", "cells"}},
	}
}
