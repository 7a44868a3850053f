package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Metadata struct {
	Name        string   `json:"name" toml:"name" yaml:"name"`
	Description string   `json:"description" toml:"description" yaml:"description"`
	Author      string   `json:"author" toml:"author" yaml:"author"`
	Version     string   `json:"version" toml:"version" yaml:"version"`
	Tags        []string `json:"tags" toml:"tags" yaml:"tags"`
}

// ThemeSpec is the on-disk form of a user theme: a built-in base plus colour
// overrides.
type ThemeSpec struct {
	Metadata *Metadata        `json:"metadata" toml:"metadata" yaml:"metadata"`
	Base     string           `json:"base" toml:"base" yaml:"base"`
	Colors   PaletteSpec      `json:"colors" toml:"colors" yaml:"colors"`
	Methods  MethodColorsSpec `json:"methods" toml:"methods" yaml:"methods"`
}

type PaletteSpec struct {
	Text    *string `json:"text" toml:"text" yaml:"text"`
	Muted   *string `json:"muted" toml:"muted" yaml:"muted"`
	Accent  *string `json:"accent" toml:"accent" yaml:"accent"`
	Error   *string `json:"error" toml:"error" yaml:"error"`
	Success *string `json:"success" toml:"success" yaml:"success"`
	Warning *string `json:"warning" toml:"warning" yaml:"warning"`
	Panel   *string `json:"panel" toml:"panel" yaml:"panel"`
	Border  *string `json:"border" toml:"border" yaml:"border"`
}

type MethodColorsSpec struct {
	GET     *string `json:"get" toml:"get" yaml:"get"`
	POST    *string `json:"post" toml:"post" yaml:"post"`
	PUT     *string `json:"put" toml:"put" yaml:"put"`
	PATCH   *string `json:"patch" toml:"patch" yaml:"patch"`
	DELETE  *string `json:"delete" toml:"delete" yaml:"delete"`
	Default *string `json:"default" toml:"default" yaml:"default"`
}

func basePalette(name string) (Palette, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dark", "default":
		return DarkPalette(), nil
	case "light":
		return LightPalette(), nil
	default:
		return Palette{}, fmt.Errorf("base: unknown theme %q", name)
	}
}

// ApplySpec builds a theme from the spec's base palette and overrides.
func ApplySpec(spec ThemeSpec) (Theme, error) {
	palette, err := basePalette(spec.Base)
	if err != nil {
		return Theme{}, err
	}
	methods := defaultMethodColors()

	overrides := []struct {
		field  string
		target *lipgloss.Color
		value  *string
	}{
		{"colors.text", &palette.Text, spec.Colors.Text},
		{"colors.muted", &palette.Muted, spec.Colors.Muted},
		{"colors.accent", &palette.Accent, spec.Colors.Accent},
		{"colors.error", &palette.Error, spec.Colors.Error},
		{"colors.success", &palette.Success, spec.Colors.Success},
		{"colors.warning", &palette.Warning, spec.Colors.Warning},
		{"colors.panel", &palette.Panel, spec.Colors.Panel},
		{"colors.border", &palette.Border, spec.Colors.Border},
		{"methods.get", &methods.GET, spec.Methods.GET},
		{"methods.post", &methods.POST, spec.Methods.POST},
		{"methods.put", &methods.PUT, spec.Methods.PUT},
		{"methods.patch", &methods.PATCH, spec.Methods.PATCH},
		{"methods.delete", &methods.DELETE, spec.Methods.DELETE},
		{"methods.default", &methods.Default, spec.Methods.Default},
	}
	for _, o := range overrides {
		if o.value == nil {
			continue
		}
		c, err := toColor(o.field, *o.value)
		if err != nil {
			return Theme{}, err
		}
		*o.target = c
	}
	return FromPalette(palette, methods), nil
}

func toColor(field string, value string) (lipgloss.Color, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%s: colour value may not be empty", field)
	}
	return lipgloss.Color(trimmed), nil
}
