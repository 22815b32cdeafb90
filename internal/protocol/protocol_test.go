package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(t *testing.T, msgType, payload string) *Envelope {
	t.Helper()
	return &Envelope{
		Type:      msgType,
		Payload:   json.RawMessage(payload),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func TestDecodeSyncState(t *testing.T) {
	op, err := Decode(envelope(t, TypeSyncState, `{"blocks":[{"id":"b1","type":"text","content":"A"}]}`))
	require.NoError(t, err)

	sync, ok := op.(SyncState)
	require.True(t, ok)
	require.Len(t, sync.Document.Blocks, 1)
	assert.Equal(t, "b1", sync.Document.Blocks[0].ID())
}

func TestDecodeAddBlock(t *testing.T) {
	op, err := Decode(envelope(t, TypeAddBlock, `{"block":{"id":"b2","type":"button","text":"Go"}}`))
	require.NoError(t, err)

	add, ok := op.(AddBlock)
	require.True(t, ok)
	assert.Equal(t, "b2", add.Block.ID())
}

func TestDecodeAddBlockMissingBlock(t *testing.T) {
	_, err := Decode(envelope(t, TypeAddBlock, `{}`))
	assert.Error(t, err)
}

func TestDecodeUpdateBlock(t *testing.T) {
	op, err := Decode(envelope(t, TypeUpdateBlock, `{"blockId":"b1","data":{"content":"B"}}`))
	require.NoError(t, err)

	upd, ok := op.(UpdateBlock)
	require.True(t, ok)
	assert.Equal(t, "b1", upd.BlockID)
	assert.Equal(t, map[string]any{"content": "B"}, upd.Data)
}

func TestDecodeDeleteBlock(t *testing.T) {
	op, err := Decode(envelope(t, TypeDeleteBlock, `{"blockId":"b1"}`))
	require.NoError(t, err)
	assert.Equal(t, DeleteBlock{BlockID: "b1"}, op)
}

func TestDecodeMoveBlock(t *testing.T) {
	op, err := Decode(envelope(t, TypeMoveBlock, `{"fromIndex":0,"toIndex":2}`))
	require.NoError(t, err)
	assert.Equal(t, MoveBlock{FromIndex: 0, ToIndex: 2}, op)
}

func TestDecodeMoveBlockMissingIndex(t *testing.T) {
	_, err := Decode(envelope(t, TypeMoveBlock, `{"fromIndex":0}`))
	assert.Error(t, err)
}

func TestDecodeMergeOps(t *testing.T) {
	op, err := Decode(envelope(t, TypeUpdateTheme, `{"mode":"dark"}`))
	require.NoError(t, err)
	assert.Equal(t, UpdateTheme{Fields: map[string]any{"mode": "dark"}}, op)

	op, err = Decode(envelope(t, TypeUpdateHeader, `{"companyName":"Acme"}`))
	require.NoError(t, err)
	assert.IsType(t, UpdateHeader{}, op)

	op, err = Decode(envelope(t, TypeUpdateFooter, `{"text":"bye"}`))
	require.NoError(t, err)
	assert.IsType(t, UpdateFooter{}, op)
}

func TestDecodeCursorUpdate(t *testing.T) {
	op, err := Decode(envelope(t, TypeCursorUpdate, `{"x":10,"y":20}`))
	require.NoError(t, err)
	assert.IsType(t, CursorUpdate{}, op)
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode(envelope(t, "resize_block", `{}`))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDecodeBadPayload(t *testing.T) {
	_, err := Decode(envelope(t, TypeUpdateBlock, `[1,2,3]`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownType)
}

func TestMarshalProducesValidEnvelope(t *testing.T) {
	frame, err := Marshal(TypeJoin, JoinPayload{ID: "user-1", Name: "Ann"})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, TypeJoin, env.Type)

	_, err = time.Parse(time.RFC3339, env.Timestamp)
	assert.NoError(t, err)

	var payload JoinPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, JoinPayload{ID: "user-1", Name: "Ann"}, payload)
}
