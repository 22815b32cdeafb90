package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/constructhq/constructor/internal/document"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleTemplate(name string, custom bool) *Template {
	return &Template{
		Name:     name,
		Category: "hero",
		Tags:     []string{"landing", "top"},
		Author:   "system",
		IsCustom: custom,
		Blocks: []document.Block{
			{"id": "b1", "type": "text", "content": "Welcome"},
			{"id": "b2", "type": "button", "text": "Go"},
		},
	}
}

func TestCreateAndGet(t *testing.T) {
	store := openTestStore(t)

	tpl := sampleTemplate("Hero A", true)
	require.NoError(t, store.Create(tpl))
	require.NotZero(t, tpl.ID)

	got, err := store.Get(tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hero A", got.Name)
	assert.Equal(t, "hero", got.Category)
	assert.Equal(t, []string{"landing", "top"}, got.Tags)
	assert.True(t, got.IsCustom)
	require.Len(t, got.Blocks, 2)
	assert.Equal(t, "b1", got.Blocks[0].ID())
	assert.False(t, got.CreatedAt.IsZero())
}

func TestCreateRejectsInvalidBlocks(t *testing.T) {
	store := openTestStore(t)

	tpl := sampleTemplate("Broken", true)
	tpl.Blocks = append(tpl.Blocks, document.Block{"id": "b3", "type": "text"})
	assert.Error(t, store.Create(tpl))
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFilters(t *testing.T) {
	store := openTestStore(t)

	hero := sampleTemplate("Hero", false)
	require.NoError(t, store.Create(hero))

	footer := sampleTemplate("Footer", true)
	footer.Category = "footer"
	footer.Author = "ann"
	footer.Tags = []string{"bottom"}
	require.NoError(t, store.Create(footer))

	all, err := store.List(Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byCategory, err := store.List(Filter{Category: "footer"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Footer", byCategory[0].Name)

	byAuthor, err := store.List(Filter{Author: "ann"})
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)

	byTag, err := store.List(Filter{Tags: []string{"top", "nonexistent"}})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "Hero", byTag[0].Name)

	isCustom := false
	system, err := store.List(Filter{IsCustom: &isCustom})
	require.NoError(t, err)
	require.Len(t, system, 1)
	assert.Equal(t, "Hero", system[0].Name)
}

func TestUpdateCustomTemplate(t *testing.T) {
	store := openTestStore(t)

	tpl := sampleTemplate("Old", true)
	require.NoError(t, store.Create(tpl))

	name := "New"
	updated, err := store.Update(tpl.ID, Update{
		Name: &name,
		Tags: []string{"fresh"},
		Blocks: []document.Block{
			{"id": "n1", "type": "image", "url": "https://example.com/n.png"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, []string{"fresh"}, updated.Tags)

	got, err := store.Get(tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	require.Len(t, got.Blocks, 1)
	assert.Equal(t, "n1", got.Blocks[0].ID())
	assert.Equal(t, "hero", got.Category, "unset fields stay unchanged")
}

func TestUpdateSystemTemplateRefused(t *testing.T) {
	store := openTestStore(t)

	tpl := sampleTemplate("System", false)
	require.NoError(t, store.Create(tpl))

	name := "Hijacked"
	_, err := store.Update(tpl.ID, Update{Name: &name})
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)

	custom := sampleTemplate("Mine", true)
	require.NoError(t, store.Create(custom))
	system := sampleTemplate("Stock", false)
	require.NoError(t, store.Create(system))

	require.NoError(t, store.Delete(custom.ID))
	_, err := store.Get(custom.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(system.ID), ErrReadOnly)
	assert.ErrorIs(t, store.Delete(999), ErrNotFound)
}
