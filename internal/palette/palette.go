package palette

import (
	"fmt"
	"math/rand"
	"regexp"
)

// Palette is a color scheme applied to a generated page. Required
// colors are always set; the rest may be empty.
type Palette struct {
	Primary          string            `json:"primary"`
	Secondary        string            `json:"secondary,omitempty"`
	Background       string            `json:"background"`
	Text             string            `json:"text"`
	Accent           string            `json:"accent"`
	Surface          string            `json:"surface,omitempty"`
	Border           string            `json:"border,omitempty"`
	AdditionalColors map[string]string `json:"additional_colors,omitempty"`
}

// Preset is a named, built-in palette.
type Preset struct {
	Name string `json:"name"`
	Palette
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// presets are the built-in color schemes offered to every project.
var presets = []Preset{
	{Name: "Ocean Blue", Palette: Palette{
		Primary: "#007bff", Secondary: "#6c757d", Background: "#ffffff",
		Text: "#212529", Accent: "#28a745", Surface: "#f8f9fa", Border: "#dee2e6",
	}},
	{Name: "Purple Dream", Palette: Palette{
		Primary: "#6f42c1", Secondary: "#e83e8c", Background: "#ffffff",
		Text: "#343a40", Accent: "#fd7e14", Surface: "#f8f9fa", Border: "#dee2e6",
	}},
	{Name: "Green Fresh", Palette: Palette{
		Primary: "#20c997", Secondary: "#17a2b8", Background: "#ffffff",
		Text: "#212529", Accent: "#ffc107", Surface: "#f8f9fa", Border: "#dee2e6",
	}},
	{Name: "Red Energy", Palette: Palette{
		Primary: "#dc3545", Secondary: "#6c757d", Background: "#ffffff",
		Text: "#212529", Accent: "#fd7e14", Surface: "#f8f9fa", Border: "#dee2e6",
	}},
	{Name: "Dark Mode", Palette: Palette{
		Primary: "#0d6efd", Secondary: "#6c757d", Background: "#212529",
		Text: "#ffffff", Accent: "#ffc107", Surface: "#343a40", Border: "#495057",
	}},
}

// Presets returns the built-in palettes.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// Generate picks a random preset palette.
func Generate() Palette {
	return presets[rand.Intn(len(presets))].Palette
}

// Validate checks that required colors are present and every set color
// is a #RRGGBB value.
func (p Palette) Validate() error {
	required := map[string]string{
		"primary":    p.Primary,
		"background": p.Background,
		"text":       p.Text,
		"accent":     p.Accent,
	}
	for name, val := range required {
		if val == "" {
			return fmt.Errorf("palette is missing required color %q", name)
		}
	}

	optional := map[string]string{
		"secondary": p.Secondary,
		"surface":   p.Surface,
		"border":    p.Border,
	}
	for name, val := range required {
		if !hexColor.MatchString(val) {
			return fmt.Errorf("palette color %q is not a hex color: %q", name, val)
		}
	}
	for name, val := range optional {
		if val != "" && !hexColor.MatchString(val) {
			return fmt.Errorf("palette color %q is not a hex color: %q", name, val)
		}
	}
	for name, val := range p.AdditionalColors {
		if !hexColor.MatchString(val) {
			return fmt.Errorf("additional color %q is not a hex color: %q", name, val)
		}
	}
	return nil
}
