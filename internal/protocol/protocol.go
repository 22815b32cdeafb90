package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/constructhq/constructor/internal/document"
)

// Message types exchanged over a room connection. Client-originated
// types map one-to-one onto operations; the rest are server-originated
// events.
const (
	TypeSyncState    = "sync_state"
	TypeAddBlock     = "add_block"
	TypeUpdateBlock  = "update_block"
	TypeDeleteBlock  = "delete_block"
	TypeMoveBlock    = "move_block"
	TypeUpdateTheme  = "update_theme"
	TypeUpdateHeader = "update_header"
	TypeUpdateFooter = "update_footer"
	TypeCursorUpdate = "cursor_update"

	TypeJoin      = "join"
	TypeLeave     = "leave"
	TypeUsersList = "users_list"
)

// ErrUnknownType reports a message type outside the recognized set.
var ErrUnknownType = errors.New("unknown message type")

// Envelope is the wire format of every message: a type tag, a payload
// whose shape depends on the type, and a client-supplied RFC 3339
// timestamp.
type Envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp string          `json:"timestamp"`
}

// Marshal builds a complete wire frame for a server-originated message,
// stamping it with the current time.
func Marshal(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}
	return json.Marshal(Envelope{
		Type:      msgType,
		Payload:   raw,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Op is one decoded client operation. The set is closed: every variant
// corresponds to exactly one recognized message type.
type Op interface {
	op()
}

// SyncState replaces the room document wholesale.
type SyncState struct {
	Document document.Document
}

// AddBlock appends a block to the root sequence.
type AddBlock struct {
	Block document.Block
}

// UpdateBlock shallow-merges Data into the first block matching BlockID.
type UpdateBlock struct {
	BlockID string
	Data    map[string]any
}

// DeleteBlock removes the first block matching BlockID.
type DeleteBlock struct {
	BlockID string
}

// MoveBlock reorders the root sequence.
type MoveBlock struct {
	FromIndex int
	ToIndex   int
}

// UpdateTheme shallow-merges fields into the document theme.
type UpdateTheme struct {
	Fields map[string]any
}

// UpdateHeader shallow-merges fields into the document header.
type UpdateHeader struct {
	Fields map[string]any
}

// UpdateFooter shallow-merges fields into the document footer.
type UpdateFooter struct {
	Fields map[string]any
}

// CursorUpdate carries ephemeral cursor positions; relayed, never
// applied to the document.
type CursorUpdate struct{}

func (SyncState) op()    {}
func (AddBlock) op()     {}
func (UpdateBlock) op()  {}
func (DeleteBlock) op()  {}
func (MoveBlock) op()    {}
func (UpdateTheme) op()  {}
func (UpdateHeader) op() {}
func (UpdateFooter) op() {}
func (CursorUpdate) op() {}

// Decode validates an envelope against the operation vocabulary and
// returns the typed operation. ErrUnknownType signals a type outside
// the set; any other error means the payload did not match the shape
// its type requires.
func Decode(env *Envelope) (Op, error) {
	switch env.Type {
	case TypeSyncState:
		var doc document.Document
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &doc); err != nil {
				return nil, fmt.Errorf("invalid sync_state payload: %w", err)
			}
		}
		return SyncState{Document: doc}, nil

	case TypeAddBlock:
		var p struct {
			Block document.Block `json:"block"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("invalid add_block payload: %w", err)
		}
		if p.Block == nil {
			return nil, errors.New("add_block payload is missing a block")
		}
		return AddBlock{Block: p.Block}, nil

	case TypeUpdateBlock:
		var p struct {
			BlockID string         `json:"blockId"`
			Data    map[string]any `json:"data"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("invalid update_block payload: %w", err)
		}
		if p.BlockID == "" {
			return nil, errors.New("update_block payload is missing blockId")
		}
		return UpdateBlock{BlockID: p.BlockID, Data: p.Data}, nil

	case TypeDeleteBlock:
		var p struct {
			BlockID string `json:"blockId"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("invalid delete_block payload: %w", err)
		}
		if p.BlockID == "" {
			return nil, errors.New("delete_block payload is missing blockId")
		}
		return DeleteBlock{BlockID: p.BlockID}, nil

	case TypeMoveBlock:
		var p struct {
			FromIndex *int `json:"fromIndex"`
			ToIndex   *int `json:"toIndex"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("invalid move_block payload: %w", err)
		}
		if p.FromIndex == nil || p.ToIndex == nil {
			return nil, errors.New("move_block payload is missing an index")
		}
		return MoveBlock{FromIndex: *p.FromIndex, ToIndex: *p.ToIndex}, nil

	case TypeUpdateTheme:
		fields, err := decodeFields(env)
		if err != nil {
			return nil, err
		}
		return UpdateTheme{Fields: fields}, nil

	case TypeUpdateHeader:
		fields, err := decodeFields(env)
		if err != nil {
			return nil, err
		}
		return UpdateHeader{Fields: fields}, nil

	case TypeUpdateFooter:
		fields, err := decodeFields(env)
		if err != nil {
			return nil, err
		}
		return UpdateFooter{Fields: fields}, nil

	case TypeCursorUpdate:
		return CursorUpdate{}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
}

func decodeFields(env *Envelope) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(env.Payload, &fields); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", env.Type, err)
	}
	return fields, nil
}
