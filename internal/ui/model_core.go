package ui

import (
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"

	"github.com/postcrab/postcrab/internal/config"
	"github.com/postcrab/postcrab/internal/highlight"
	"github.com/postcrab/postcrab/internal/logging"
	"github.com/postcrab/postcrab/internal/request"
	"github.com/postcrab/postcrab/internal/session"
	"github.com/postcrab/postcrab/internal/theme"
)

var _ tea.Model = (*Model)(nil)

type focusArea int

const (
	focusMethod focusArea = iota
	focusURL
	focusContentType
	focusBody
	focusResponse
)

const (
	urlPlaceholder  = "Enter address..."
	noResponseText  = "No response yet. Press ctrl+s to send."
	defaultWidth    = 100
	defaultHeight   = 30
	bodyHeight      = 6
)

type Config struct {
	Dispatcher  session.Dispatcher
	Theme       *theme.Theme
	Highlight   *highlight.Renderer
	Method      request.Method
	ContentType request.ContentType
	URL         string
	Body        string
	Version     string
	Logger      logrus.FieldLogger
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
}

type Model struct {
	session     *session.Session
	dispatcher  session.Dispatcher
	theme       theme.Theme
	highlighter *highlight.Renderer
	logger      logrus.FieldLogger
	clipboard   func(string) error
	version     string

	keys     keyMap
	help     help.Model
	url      textinput.Model
	body     textarea.Model
	response viewport.Model
	spinner  spinner.Model

	focus         focusArea
	showDiff      bool
	statusMessage statusMsg
	width         int
	height        int
	ready         bool
}

func New(cfg Config) Model {
	th := theme.DefaultTheme()
	if cfg.Theme != nil {
		th = *cfg.Theme
	}
	hl := cfg.Highlight
	if hl == nil {
		hl = highlight.NewRenderer(config.DefaultHighlightStyle, termenv.EnvColorProfile())
	}
	copyFn := cfg.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	sess := session.New(cfg.Method, cfg.ContentType)
	sess.SetURL(cfg.URL)
	sess.SetBody(cfg.Body)

	urlInput := textinput.New()
	urlInput.Placeholder = urlPlaceholder
	urlInput.Prompt = ""
	urlInput.CharLimit = 0
	urlInput.SetValue(cfg.URL)

	bodyInput := textarea.New()
	bodyInput.Placeholder = bodyPlaceholderFor(sess.ContentType())
	bodyInput.ShowLineNumbers = false
	bodyInput.CharLimit = 0
	bodyInput.SetValue(cfg.Body)

	model := Model{
		session:     sess,
		dispatcher:  cfg.Dispatcher,
		theme:       th,
		highlighter: hl,
		logger:      logging.OrDiscard(cfg.Logger),
		clipboard:   copyFn,
		version:     cfg.Version,
		keys:        defaultKeyMap(),
		help:        help.New(),
		url:         urlInput,
		body:        bodyInput,
		response:    viewport.New(defaultWidth, 10),
		spinner:     createRequestSpinner(th),
		width:       defaultWidth,
		height:      defaultHeight,
	}
	model.setFocus(focusURL)
	model.applyLayout()
	model.refreshResponse()
	return model
}

func createRequestSpinner(th theme.Theme) spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = th.Spinner
	return s
}

// Session exposes the request state, mainly for tests and the CLI.
func (m *Model) Session() *session.Session {
	return m.session
}

func (m *Model) focusOrder() []focusArea {
	order := []focusArea{focusMethod, focusURL, focusContentType}
	if m.session.BodyInputEnabled() {
		order = append(order, focusBody)
	}
	return append(order, focusResponse)
}

func (m *Model) cycleFocus(delta int) tea.Cmd {
	order := m.focusOrder()
	idx := 0
	for i, area := range order {
		if area == m.focus {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(order)) % len(order)
	return m.setFocus(order[idx])
}

func (m *Model) setFocus(area focusArea) tea.Cmd {
	if area == focusBody && !m.session.BodyInputEnabled() {
		area = focusURL
	}
	m.focus = area
	m.url.Blur()
	m.body.Blur()
	switch area {
	case focusURL:
		return m.url.Focus()
	case focusBody:
		return m.body.Focus()
	}
	return nil
}

func (m *Model) selectMethod(method request.Method) tea.Cmd {
	m.session.SelectMethod(method)
	var cmd tea.Cmd
	if m.focus == focusBody && !m.session.BodyInputEnabled() {
		cmd = m.setFocus(focusURL)
	}
	m.applyLayout()
	return cmd
}

func (m *Model) selectContentType(ct request.ContentType) {
	m.session.SelectContentType(ct)
	m.body.Placeholder = bodyPlaceholderFor(ct)
}

// bodyPlaceholderFor hints at the body shape the content type expects.
func bodyPlaceholderFor(ct request.ContentType) string {
	switch highlight.LanguageFor(ct) {
	case highlight.LangJSON:
		return `{"key": "value"}`
	case highlight.LangXML:
		return "<root></root>"
	default:
		return "Request body"
	}
}

func (m *Model) setStatusMessage(msg statusMsg) {
	m.statusMessage = msg
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
