package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDocument builds a tree with a block nested three levels deep:
// root -> container -> grid -> cell. It goes through JSON so the nested
// lists have the same dynamic types a decoded client message has.
func testDocument(t *testing.T) *Document {
	t.Helper()
	raw := `{
		"blocks": [
			{"id": "b1", "type": "text", "content": "A"},
			{"id": "c1", "type": "container", "children": [
				{"id": "b2", "type": "button", "text": "Go", "link": "#"},
				{"id": "g1", "type": "grid", "settings": {"columns": 2}, "cells": [
					{"block": {"id": "b3", "type": "text", "content": "deep"}},
					{"block": null}
				]}
			]},
			{"id": "b4", "type": "image", "url": "https://example.com/x.png"}
		]
	}`
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return &doc
}

func rootIDs(doc *Document) []string {
	ids := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		ids = append(ids, b.ID())
	}
	return ids
}

func TestFindRootBlock(t *testing.T) {
	doc := testDocument(t)

	loc, ok := Find(doc, "b1")
	require.True(t, ok)
	assert.Equal(t, "A", loc.Block()["content"])
}

func TestFindNestedThreeLevels(t *testing.T) {
	doc := testDocument(t)

	loc, ok := Find(doc, "b3")
	require.True(t, ok)
	assert.Equal(t, "deep", loc.Block()["content"])
}

func TestFindMissing(t *testing.T) {
	doc := testDocument(t)

	_, ok := Find(doc, "nope")
	assert.False(t, ok)
}

func TestFindFirstMatchPreOrder(t *testing.T) {
	// Two blocks share an id: one nested inside the first container,
	// one at root level after it. Pre-order must find the nested one.
	raw := `{"blocks": [
		{"id": "c1", "type": "container", "children": [
			{"id": "dup", "type": "text", "content": "nested"}
		]},
		{"id": "dup", "type": "text", "content": "root"}
	]}`
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	loc, ok := Find(&doc, "dup")
	require.True(t, ok)
	assert.Equal(t, "nested", loc.Block()["content"])
}

func TestUpdateModifiesOnlyMatch(t *testing.T) {
	doc := testDocument(t)

	loc, ok := Find(doc, "b1")
	require.True(t, ok)
	loc.Update(map[string]any{"content": "B"})

	assert.Equal(t, "B", doc.Blocks[0]["content"])
	assert.Equal(t, []string{"b1", "c1", "b4"}, rootIDs(doc))

	// Untouched blocks stay untouched.
	deep, ok := Find(doc, "b3")
	require.True(t, ok)
	assert.Equal(t, "deep", deep.Block()["content"])
}

func TestUpdateNestedBlock(t *testing.T) {
	doc := testDocument(t)

	loc, ok := Find(doc, "b3")
	require.True(t, ok)
	loc.Update(map[string]any{"content": "updated", "style": map[string]any{"color": "#fff"}})

	again, ok := Find(doc, "b3")
	require.True(t, ok)
	assert.Equal(t, "updated", again.Block()["content"])
	assert.Equal(t, map[string]any{"color": "#fff"}, again.Block()["style"])
}

func TestUpdateIsShallowMerge(t *testing.T) {
	doc := testDocument(t)

	loc, _ := Find(doc, "b2")
	loc.Update(map[string]any{"text": "Stop"})

	assert.Equal(t, "Stop", loc.Block()["text"])
	assert.Equal(t, "#", loc.Block()["link"], "unmentioned fields survive a merge")
}

func TestRemoveRootBlock(t *testing.T) {
	doc := testDocument(t)

	loc, ok := Find(doc, "b1")
	require.True(t, ok)
	loc.Remove()

	assert.Equal(t, []string{"c1", "b4"}, rootIDs(doc))
	_, ok = Find(doc, "b1")
	assert.False(t, ok)
}

func TestRemoveContainerChild(t *testing.T) {
	doc := testDocument(t)

	loc, ok := Find(doc, "b2")
	require.True(t, ok)
	loc.Remove()

	_, ok = Find(doc, "b2")
	assert.False(t, ok)

	// The grid sibling is still reachable.
	_, ok = Find(doc, "g1")
	assert.True(t, ok)
	_, ok = Find(doc, "b3")
	assert.True(t, ok)
}

func TestRemoveCellBlockNullsTheCell(t *testing.T) {
	doc := testDocument(t)

	loc, ok := Find(doc, "b3")
	require.True(t, ok)
	loc.Remove()

	_, ok = Find(doc, "b3")
	assert.False(t, ok)

	// The grid keeps both cells; the first one just went empty.
	grid, ok := Find(doc, "g1")
	require.True(t, ok)
	cells, ok := grid.Block().Cells()
	require.True(t, ok)
	require.Len(t, cells, 2)
	_, hasBlock := cells[0].Block()
	assert.False(t, hasBlock)
}

func TestRemoveMissingLeavesDocumentUnchanged(t *testing.T) {
	doc := testDocument(t)
	before, err := json.Marshal(doc)
	require.NoError(t, err)

	_, ok := Find(doc, "ghost")
	assert.False(t, ok)

	after, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestAppendPreservesOrder(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{"blocks":[{"id":"b1","type":"text","content":"A"}]}`), &doc))

	Append(&doc, Block{"id": "b2", "type": "button", "text": "Go"})

	assert.Equal(t, []string{"b1", "b2"}, rootIDs(&doc))
}

func TestReorder(t *testing.T) {
	doc := testDocument(t)

	require.True(t, Reorder(doc, 0, 2))
	assert.Equal(t, []string{"c1", "b4", "b1"}, rootIDs(doc))

	require.True(t, Reorder(doc, 2, 0))
	assert.Equal(t, []string{"b1", "c1", "b4"}, rootIDs(doc))
}

func TestReorderIsPermutation(t *testing.T) {
	doc := testDocument(t)

	require.True(t, Reorder(doc, 1, 0))
	assert.ElementsMatch(t, []string{"b1", "c1", "b4"}, rootIDs(doc))
	assert.Len(t, doc.Blocks, 3)
}

func TestReorderOutOfRangeIsNoOp(t *testing.T) {
	doc := testDocument(t)
	before, err := json.Marshal(doc)
	require.NoError(t, err)

	assert.False(t, Reorder(doc, -1, 1))
	assert.False(t, Reorder(doc, 0, 3))
	assert.False(t, Reorder(doc, 5, 0))

	after, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestMergeTheme(t *testing.T) {
	var doc Document

	MergeTheme(&doc, map[string]any{"mode": "dark"})
	MergeTheme(&doc, map[string]any{"accent": "#ff0000"})

	assert.Equal(t, map[string]any{"mode": "dark", "accent": "#ff0000"}, doc.Theme)
}

func TestMergeHeaderAndFooter(t *testing.T) {
	var doc Document

	MergeHeader(&doc, map[string]any{"companyName": "Acme"})
	MergeFooter(&doc, map[string]any{"text": "© Acme"})
	MergeHeader(&doc, map[string]any{"companyName": "Acme Inc"})

	assert.Equal(t, "Acme Inc", doc.Header["companyName"])
	assert.Equal(t, "© Acme", doc.Footer["text"])
}
