package highlight

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/muesli/termenv"

	"github.com/postcrab/postcrab/internal/request"
)

const (
	LangJSON = "json"
	LangXML  = "xml"
	LangText = "text"
)

// LanguageFor maps the selected content type to its language. The UI uses it
// to pick the body placeholder.
func LanguageFor(ct request.ContentType) string {
	switch ct {
	case request.ContentJSON:
		return LangJSON
	case request.ContentXML:
		return LangXML
	default:
		return LangText
	}
}

// Detect guesses a response language from its first non-blank character.
func Detect(body string) string {
	trimmed := strings.TrimLeft(body, " \t\r\n")
	switch {
	case strings.HasPrefix(trimmed, "{"), strings.HasPrefix(trimmed, "["):
		return LangJSON
	case strings.HasPrefix(trimmed, "<"):
		return LangXML
	default:
		return LangText
	}
}

// Pretty indents JSON for display. Anything that does not parse is returned as is.
func Pretty(text, lang string) string {
	if lang != LangJSON {
		return text
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(strings.TrimSpace(text)), "", "  "); err != nil {
		return text
	}
	return buf.String()
}

type Renderer struct {
	style     *chroma.Style
	formatter chroma.Formatter
}

// NewRenderer picks a chroma formatter that matches the terminal's colour
// profile. An Ascii profile disables colouring.
func NewRenderer(styleName string, profile termenv.Profile) *Renderer {
	r := &Renderer{style: styles.Get(styleName)}
	if r.style == nil {
		r.style = styles.Fallback
	}
	if name := formatterName(profile); name != "" {
		r.formatter = formatters.Get(name)
	}
	return r
}

func formatterName(profile termenv.Profile) string {
	switch profile {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI256:
		return "terminal256"
	case termenv.ANSI:
		return "terminal"
	default:
		return ""
	}
}

func (r *Renderer) Enabled() bool {
	return r != nil && r.formatter != nil
}

// Render colours text as lang. Failures fall back to the plain text.
func (r *Renderer) Render(text, lang string) string {
	if !r.Enabled() || text == "" || lang == LangText {
		return text
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		return text
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}
	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.style, iterator); err != nil {
		return text
	}
	return buf.String()
}
