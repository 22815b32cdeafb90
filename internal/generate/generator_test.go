package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/constructhq/constructor/internal/document"
)

func TestGenerateProducesValidBlocks(t *testing.T) {
	landing := New().Generate("Coffee subscription service", nil)

	require.NotEmpty(t, landing.Blocks)
	for _, b := range landing.Blocks {
		assert.NoError(t, document.Validate(b))
	}
	assert.NoError(t, landing.Palette.Validate())
	assert.Equal(t, "mock-llm", landing.Meta["model"])
	assert.Equal(t, "Coffee subscription service", landing.Meta["prompt"])
}

func TestGenerateUniqueBlockIDs(t *testing.T) {
	landing := New().Generate("Bakery", nil)

	seen := make(map[string]bool)
	for _, b := range landing.Blocks {
		assert.False(t, seen[b.ID()], "duplicate id %s", b.ID())
		seen[b.ID()] = true
	}
}

func TestGenerateCategoryFilter(t *testing.T) {
	landing := New().Generate("Bakery", []string{"cta"})

	require.Len(t, landing.Blocks, 1)
	assert.Equal(t, document.TypeButton, landing.Blocks[0].Type())
}

func TestGenerateTruncatesLongPrompt(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	landing := New().Generate(string(long), []string{"hero"})

	require.NotEmpty(t, landing.Blocks)
	content, _ := landing.Blocks[0]["content"].(string)
	assert.LessOrEqual(t, len(content), 80)
}
