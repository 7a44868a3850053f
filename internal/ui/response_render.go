package ui

import (
	"strings"

	udiff "github.com/aymanbagabas/go-udiff"

	"github.com/postcrab/postcrab/internal/highlight"
)

// refreshResponse re-renders the viewport from the session.
func (m *Model) refreshResponse() {
	if m.showDiff {
		m.response.SetContent(m.renderDiff(m.session.PreviousResponse(), m.session.Response()))
		m.response.GotoTop()
		return
	}

	body := m.session.Response()
	if body == "" {
		placeholder := noResponseText
		if m.session.Status() != "" {
			placeholder = "(empty body)"
		}
		m.response.SetContent(m.theme.HeaderValue.Render(placeholder))
		m.response.GotoTop()
		return
	}

	lang := highlight.Detect(body)
	pretty := highlight.Pretty(body, lang)
	m.response.SetContent(m.highlighter.Render(pretty, lang))
	m.response.GotoTop()
}

func responseDiff(previous, current string) string {
	if previous == current {
		return ""
	}
	return udiff.Unified("previous", "current", ensureTrailingNewline(previous), ensureTrailingNewline(current))
}

func (m *Model) renderDiff(previous, current string) string {
	diff := responseDiff(
		highlight.Pretty(previous, highlight.Detect(previous)),
		highlight.Pretty(current, highlight.Detect(current)),
	)
	if strings.TrimSpace(diff) == "" {
		return m.theme.HeaderValue.Render("Responses are identical")
	}

	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
			lines[i] = m.theme.DiffHunk.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = m.theme.DiffAdded.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = m.theme.DiffRemoved.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func ensureTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
