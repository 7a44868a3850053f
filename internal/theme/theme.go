package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/postcrab/postcrab/internal/request"
)

// Palette is the small set of colours every style is derived from.
type Palette struct {
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Accent  lipgloss.Color
	Error   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Panel   lipgloss.Color
	Border  lipgloss.Color
}

type MethodColors struct {
	GET     lipgloss.Color
	POST    lipgloss.Color
	PUT     lipgloss.Color
	PATCH   lipgloss.Color
	DELETE  lipgloss.Color
	Default lipgloss.Color
}

func (m MethodColors) For(method request.Method) lipgloss.Color {
	var c lipgloss.Color
	switch method {
	case request.MethodGet:
		c = m.GET
	case request.MethodPost:
		c = m.POST
	case request.MethodPut:
		c = m.PUT
	case request.MethodPatch:
		c = m.PATCH
	case request.MethodDelete:
		c = m.DELETE
	}
	if c == "" {
		return m.Default
	}
	return c
}

type Theme struct {
	Palette        Palette
	MethodColors   MethodColors
	AppFrame       lipgloss.Style
	HeaderBrand    lipgloss.Style
	HeaderValue    lipgloss.Style
	Label          lipgloss.Style
	LabelFocused   lipgloss.Style
	Field          lipgloss.Style
	FieldFocused   lipgloss.Style
	Option         lipgloss.Style
	OptionActive   lipgloss.Style
	SendButton     lipgloss.Style
	Error          lipgloss.Style
	Success        lipgloss.Style
	Notification   lipgloss.Style
	ResponseBorder lipgloss.Style
	ResponseStatus lipgloss.Style
	Spinner        lipgloss.Style
	StatusBar      lipgloss.Style
	StatusBarKey   lipgloss.Style
	StatusBarValue lipgloss.Style
	DiffAdded      lipgloss.Style
	DiffRemoved    lipgloss.Style
	DiffHunk       lipgloss.Style
}

// DarkPalette follows the dark window colours: a grey panel with a blue send
// accent and a red error line.
func DarkPalette() Palette {
	return Palette{
		Text:    lipgloss.Color("#fcfcfc"),
		Muted:   lipgloss.Color("#9a9996"),
		Accent:  lipgloss.Color("#3584e4"),
		Error:   lipgloss.Color("#e62d42"),
		Success: lipgloss.Color("#33d17a"),
		Warning: lipgloss.Color("#f6d32d"),
		Panel:   lipgloss.Color("#38383c"),
		Border:  lipgloss.Color("#5e5c64"),
	}
}

func LightPalette() Palette {
	return Palette{
		Text:    lipgloss.Color("#241f31"),
		Muted:   lipgloss.Color("#77767b"),
		Accent:  lipgloss.Color("#1c71d8"),
		Error:   lipgloss.Color("#c01c28"),
		Success: lipgloss.Color("#26a269"),
		Warning: lipgloss.Color("#c88800"),
		Panel:   lipgloss.Color("#ebebed"),
		Border:  lipgloss.Color("#c0bfbc"),
	}
}

func defaultMethodColors() MethodColors {
	return MethodColors{
		GET:     lipgloss.Color("#34d399"),
		POST:    lipgloss.Color("#60a5fa"),
		PUT:     lipgloss.Color("#f59e0b"),
		PATCH:   lipgloss.Color("#14b8a6"),
		DELETE:  lipgloss.Color("#f87171"),
		Default: lipgloss.Color("#9ca3af"),
	}
}

func FromPalette(p Palette, methods MethodColors) Theme {
	base := lipgloss.NewStyle().Foreground(p.Text)
	return Theme{
		Palette:      p,
		MethodColors: methods,
		AppFrame:     lipgloss.NewStyle().Padding(0, 1),
		HeaderBrand: lipgloss.NewStyle().
			Foreground(p.Text).
			Background(p.Accent).
			Bold(true).
			Padding(0, 1),
		HeaderValue:  lipgloss.NewStyle().Foreground(p.Muted),
		Label:        lipgloss.NewStyle().Foreground(p.Muted),
		LabelFocused: lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		Field: base.
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		FieldFocused: base.
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Accent).
			Padding(0, 1),
		Option: lipgloss.NewStyle().Foreground(p.Muted).Padding(0, 1),
		OptionActive: lipgloss.NewStyle().
			Foreground(p.Text).
			Background(p.Panel).
			Bold(true).
			Padding(0, 1),
		SendButton: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(p.Accent).
			Bold(true).
			Padding(0, 2),
		Error:   lipgloss.NewStyle().Foreground(p.Error).Bold(true),
		Success: lipgloss.NewStyle().Foreground(p.Success),
		Notification: lipgloss.NewStyle().
			Foreground(p.Text).
			Background(p.Panel).
			Padding(0, 1),
		ResponseBorder: base.
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Border),
		ResponseStatus: lipgloss.NewStyle().Foreground(p.Muted).Italic(true),
		Spinner:        lipgloss.NewStyle().Foreground(p.Accent),
		StatusBar:      lipgloss.NewStyle().Foreground(p.Muted).Padding(0, 1),
		StatusBarKey:   lipgloss.NewStyle().Foreground(p.Warning).Bold(true),
		StatusBarValue: lipgloss.NewStyle().Foreground(p.Text),
		DiffAdded:      lipgloss.NewStyle().Foreground(p.Success),
		DiffRemoved:    lipgloss.NewStyle().Foreground(p.Error),
		DiffHunk:       lipgloss.NewStyle().Foreground(p.Accent).Faint(true),
	}
}

func DefaultTheme() Theme {
	return FromPalette(DarkPalette(), defaultMethodColors())
}

func LightTheme() Theme {
	return FromPalette(LightPalette(), defaultMethodColors())
}

// Lookup returns a built-in theme by name, or the default one.
func Lookup(name string) Theme {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "light":
		return LightTheme()
	default:
		return DefaultTheme()
	}
}
