package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsAreValid(t *testing.T) {
	presets := Presets()
	require.Len(t, presets, 5)
	for _, preset := range presets {
		assert.NoError(t, preset.Palette.Validate(), "preset %s", preset.Name)
	}
}

func TestGenerateReturnsValidPalette(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.NoError(t, Generate().Validate())
	}
}

func TestValidate(t *testing.T) {
	valid := Palette{
		Primary: "#007bff", Background: "#ffffff", Text: "#212529", Accent: "#28a745",
	}
	assert.NoError(t, valid.Validate())

	missing := valid
	missing.Accent = ""
	assert.Error(t, missing.Validate())

	badHex := valid
	badHex.Primary = "blue"
	assert.Error(t, badHex.Validate())

	badOptional := valid
	badOptional.Border = "#zzzzzz"
	assert.Error(t, badOptional.Validate())

	badAdditional := valid
	badAdditional.AdditionalColors = map[string]string{"highlight": "nope"}
	assert.Error(t, badAdditional.Validate())

	withExtras := valid
	withExtras.Surface = "#f8f9fa"
	withExtras.AdditionalColors = map[string]string{"highlight": "#ff00ff"}
	assert.NoError(t, withExtras.Validate())
}
