package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/postcrab/postcrab/internal/request"
	"github.com/postcrab/postcrab/internal/session"
)

const appName = "PostCrab"

func (m Model) View() string {
	sections := []string{
		m.renderHeader(),
		m.renderMethodRow(),
		m.renderURLRow(),
		m.renderContentTypeRow(),
	}
	if m.session.BodyInputEnabled() {
		sections = append(sections, m.renderBody())
	}
	if errText := m.session.Error(); errText != "" {
		sections = append(sections, m.renderError(errText))
	} else {
		sections = append(sections, m.renderResponsePane())
	}
	sections = append(sections, m.renderStatusBar())
	return m.theme.AppFrame.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) innerWidth() int {
	return maxInt(m.width-m.theme.AppFrame.GetHorizontalFrameSize(), 20)
}

func (m Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render(appName)
	parts := []string{}
	if v := strings.TrimSpace(m.version); v != "" {
		parts = append(parts, v)
	}
	state := m.session.State().String()
	if m.session.State() == session.AwaitingResponse {
		state = m.spinner.View() + " " + state
	}
	parts = append(parts, state)
	return lipgloss.JoinHorizontal(lipgloss.Center, brand, " ", m.theme.HeaderValue.Render(strings.Join(parts, " · ")))
}

func (m Model) label(text string, area focusArea) string {
	style := m.theme.Label
	if m.focus == area {
		style = m.theme.LabelFocused
	}
	return style.Width(9).Render(text)
}

func (m Model) renderMethodRow() string {
	current := m.session.Method()
	options := make([]string, 0, len(request.Methods()))
	for _, method := range request.Methods() {
		style := m.theme.Option
		if method == current {
			style = m.theme.OptionActive.Foreground(m.theme.MethodColors.For(method))
		}
		options = append(options, style.Render(method.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, m.label("Method", focusMethod), strings.Join(options, ""))
}

func (m Model) renderURLRow() string {
	field := m.theme.Field
	if m.focus == focusURL {
		field = m.theme.FieldFocused
	}
	button := m.theme.SendButton.Render("Send")
	width := m.innerWidth() - 9 - lipgloss.Width(button) - field.GetHorizontalFrameSize() - 1
	box := field.Width(maxInt(width, 10)).Render(m.url.View())
	return lipgloss.JoinHorizontal(lipgloss.Center, m.label("URL", focusURL), box, " ", button)
}

func (m Model) renderContentTypeRow() string {
	current := m.session.ContentType()
	options := make([]string, 0, len(request.ContentTypes()))
	for _, ct := range request.ContentTypes() {
		mark := "( )"
		style := m.theme.Option
		if ct == current {
			mark = "(•)"
			style = m.theme.OptionActive
		}
		options = append(options, style.Render(mark+" "+ct.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, m.label("Content", focusContentType), strings.Join(options, ""))
}

func (m Model) renderBody() string {
	field := m.theme.Field
	if m.focus == focusBody {
		field = m.theme.FieldFocused
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.label("Body", focusBody), field.Render(m.body.View()))
}

func (m Model) renderError(text string) string {
	return m.theme.Error.Render(truncate(text, m.innerWidth()))
}

func (m Model) renderResponsePane() string {
	border := m.theme.ResponseBorder
	if m.focus == focusResponse {
		border = border.BorderForeground(m.theme.Palette.Accent)
	}
	title := "Response"
	if m.showDiff {
		title = "Diff (previous → current)"
	}
	if status := m.session.Status(); status != "" {
		title += "  " + m.theme.ResponseStatus.Render(status)
	}
	titleStyle := m.theme.Label
	if m.focus == focusResponse {
		titleStyle = m.theme.LabelFocused
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		border.Render(m.response.View()),
	)
}

func (m Model) renderStatusBar() string {
	width := m.innerWidth() - m.theme.StatusBar.GetHorizontalFrameSize()
	helpView := m.help.ShortHelpView(m.keys.ShortHelp())

	msg := m.statusMessage
	var style lipgloss.Style
	switch msg.level {
	case statusError:
		style = m.theme.Error
	case statusSuccess:
		style = m.theme.Success
	case statusWarn:
		style = m.theme.StatusBarKey
	default:
		style = m.theme.StatusBarValue
	}

	left := ""
	if msg.text != "" {
		room := width - lipgloss.Width(helpView) - 1
		if room < 10 {
			room = width
			helpView = ""
		}
		left = style.Render(truncate(msg.text, room))
	}
	line := left
	if helpView != "" {
		gap := width - lipgloss.Width(left) - lipgloss.Width(helpView)
		line = left + strings.Repeat(" ", maxInt(gap, 1)) + helpView
	}
	return m.theme.StatusBar.Render(ansi.Truncate(line, width, "…"))
}

// applyLayout sizes the widgets for the current window and form state.
func (m *Model) applyLayout() {
	width := m.innerWidth()
	fieldFrame := m.theme.Field.GetHorizontalFrameSize()

	m.url.Width = maxInt(width-9-fieldFrame-lipgloss.Width(m.theme.SendButton.Render("Send"))-2, 10)
	m.body.SetWidth(maxInt(width-9-fieldFrame, 10))
	m.body.SetHeight(bodyHeight)
	m.help.Width = width - m.theme.StatusBar.GetHorizontalFrameSize()

	// header, method, url (3 rows with border), content type, response title, status bar
	used := 1 + 1 + 3 + 1 + 1 + 1
	if m.session.BodyInputEnabled() {
		used += bodyHeight + m.theme.Field.GetVerticalFrameSize()
	}
	used += m.theme.ResponseBorder.GetVerticalFrameSize() + m.theme.AppFrame.GetVerticalFrameSize()

	m.response.Width = maxInt(width-m.theme.ResponseBorder.GetHorizontalFrameSize(), 10)
	m.response.Height = maxInt(m.height-used, 3)
}

func truncate(text string, width int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(text, width, "…")
}
