package document

import "encoding/json"

// Block is one node of the page tree. Blocks are open JSON objects: the
// editor attaches styling, event bindings and other fields the server
// never interprets, so only the keys the server cares about get typed
// accessors.
type Block map[string]any

// Cell is one slot of a grid block, optionally holding a nested block.
type Cell map[string]any

// Block type names
const (
	TypeText      = "text"
	TypeImage     = "image"
	TypeButton    = "button"
	TypeVideo     = "video"
	TypeContainer = "container"
	TypeGrid      = "grid"
)

// ID returns the block id, or "" if unset
func (b Block) ID() string {
	s, _ := b["id"].(string)
	return s
}

// Type returns the block type, or "" if unset
func (b Block) Type() string {
	s, _ := b["type"].(string)
	return s
}

// Children returns the child blocks of a container. The second return
// value is false when the field is absent or not a list of objects.
func (b Block) Children() ([]Block, bool) {
	return blockList(b["children"])
}

// Cells returns the cells of a grid block.
func (b Block) Cells() ([]Cell, bool) {
	raw, ok := b["cells"].([]any)
	if ok {
		cells := make([]Cell, 0, len(raw))
		for _, el := range raw {
			m, ok := el.(map[string]any)
			if !ok {
				return nil, false
			}
			cells = append(cells, Cell(m))
		}
		return cells, true
	}
	cells, ok := b["cells"].([]Cell)
	return cells, ok
}

// Block returns the block held by the cell, if any.
func (c Cell) Block() (Block, bool) {
	switch v := c["block"].(type) {
	case map[string]any:
		return Block(v), true
	case Block:
		return v, true
	}
	return nil, false
}

// blockList coerces a decoded JSON value into a list of blocks.
func blockList(v any) ([]Block, bool) {
	switch list := v.(type) {
	case []Block:
		return list, true
	case []any:
		out := make([]Block, 0, len(list))
		for _, el := range list {
			m, ok := el.(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, Block(m))
		}
		return out, true
	}
	return nil, false
}

// Document is the authoritative in-memory state of one room: the block
// tree plus the theme/header/footer maps. Editors send full documents
// with extra top-level fields (project name, palette, version); those
// are kept verbatim in Extra so a round trip loses nothing.
type Document struct {
	Blocks []Block
	Theme  map[string]any
	Header map[string]any
	Footer map[string]any
	Extra  map[string]json.RawMessage
}

// IsEmpty reports whether the document carries no state at all.
func (d *Document) IsEmpty() bool {
	return len(d.Blocks) == 0 &&
		len(d.Theme) == 0 &&
		len(d.Header) == 0 &&
		len(d.Footer) == 0 &&
		len(d.Extra) == 0
}

// UnmarshalJSON decodes a document, routing unknown top-level keys into
// Extra.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = Document{}
	for key, val := range raw {
		switch key {
		case "blocks":
			if err := json.Unmarshal(val, &d.Blocks); err != nil {
				return err
			}
		case "theme":
			if err := json.Unmarshal(val, &d.Theme); err != nil {
				return err
			}
		case "header":
			if err := json.Unmarshal(val, &d.Header); err != nil {
				return err
			}
		case "footer":
			if err := json.Unmarshal(val, &d.Footer); err != nil {
				return err
			}
		default:
			if d.Extra == nil {
				d.Extra = make(map[string]json.RawMessage)
			}
			d.Extra[key] = val
		}
	}
	return nil
}

// MarshalJSON encodes the document with Extra keys folded back in.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 4+len(d.Extra))
	blocks := d.Blocks
	if blocks == nil {
		blocks = []Block{}
	}
	out["blocks"] = blocks
	if d.Theme != nil {
		out["theme"] = d.Theme
	}
	if d.Header != nil {
		out["header"] = d.Header
	}
	if d.Footer != nil {
		out["footer"] = d.Footer
	}
	for key, val := range d.Extra {
		out[key] = val
	}
	return json.Marshal(out)
}
