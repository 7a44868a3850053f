package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/postcrab/postcrab/internal/request"
	"github.com/postcrab/postcrab/internal/session"
)

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.ready = true
		m.applyLayout()
		m.refreshResponse()
	case tea.KeyMsg:
		if cmd := m.handleKey(typed); cmd != nil {
			cmds = append(cmds, cmd)
		}
	case responseMsg:
		m.handleResponse(typed)
	case statusMsg:
		m.setStatusMessage(typed)
	case spinner.TickMsg:
		if m.session.State() == session.AwaitingResponse {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(typed)
			cmds = append(cmds, cmd)
		}
	default:
		if cmd := m.updateFocused(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.session.Shutdown()
		return tea.Quit
	case key.Matches(msg, m.keys.Send):
		return m.send()
	case key.Matches(msg, m.keys.NextFocus):
		return m.cycleFocus(1)
	case key.Matches(msg, m.keys.PrevFocus):
		return m.cycleFocus(-1)
	case key.Matches(msg, m.keys.NextMethod):
		return m.selectMethod(m.session.Method().Next())
	case key.Matches(msg, m.keys.NextContent):
		m.selectContentType(m.session.ContentType().Next())
		return nil
	case key.Matches(msg, m.keys.Copy):
		return m.copyResponse()
	case key.Matches(msg, m.keys.Diff):
		m.toggleDiff()
		return nil
	}

	switch m.focus {
	case focusMethod:
		switch {
		case key.Matches(msg, m.keys.Right):
			return m.selectMethod(m.session.Method().Next())
		case key.Matches(msg, m.keys.Left):
			return m.selectMethod(prevMethod(m.session.Method()))
		}
		return nil
	case focusContentType:
		switch {
		case key.Matches(msg, m.keys.Right):
			m.selectContentType(m.session.ContentType().Next())
		case key.Matches(msg, m.keys.Left):
			m.selectContentType(prevContentType(m.session.ContentType()))
		}
		return nil
	case focusURL:
		if msg.Type == tea.KeyEnter {
			return m.send()
		}
	}
	return m.updateFocused(msg)
}

// updateFocused forwards msg to the focused widget and mirrors edits into
// the session.
func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case focusURL:
		m.url, cmd = m.url.Update(msg)
		m.session.SetURL(m.url.Value())
	case focusBody:
		m.body, cmd = m.body.Update(msg)
		m.session.SetBody(m.body.Value())
	case focusResponse:
		m.response, cmd = m.response.Update(msg)
	}
	return cmd
}

// send validates the form and, when valid, returns a command that performs
// the dispatch off the update loop. The result comes back as a responseMsg.
func (m *Model) send() tea.Cmd {
	m.session.SetURL(m.url.Value())
	m.session.SetBody(m.body.Value())

	job, err := m.session.Send()
	if err != nil {
		m.logger.WithError(err).Debug("send rejected")
		m.applyLayout()
		return nil
	}
	if m.dispatcher == nil {
		m.session.Receive(job.Token, request.Failure("no dispatcher configured"))
		m.applyLayout()
		return nil
	}

	m.setStatusMessage(statusMsg{text: "Sending " + job.Spec.Method.String() + " " + job.Spec.URL, level: statusInfo})
	m.applyLayout()

	dispatcher := m.dispatcher
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return responseMsg{token: job.Token, outcome: dispatcher.Dispatch(job.Ctx, job.Spec)}
	})
}

func (m *Model) handleResponse(msg responseMsg) {
	if !m.session.Receive(msg.token, msg.outcome) {
		m.logger.WithField("token", msg.token).Debug("discarded stale response")
		return
	}

	out := msg.outcome
	if out.OK {
		level := statusSuccess
		if out.StatusCode >= 400 {
			level = statusWarn
		}
		m.setStatusMessage(statusMsg{
			text:  fmt.Sprintf("%s in %s", out.Status, out.Duration.Round(time.Millisecond)),
			level: level,
		})
	} else {
		m.setStatusMessage(statusMsg{text: "Request failed", level: statusError})
	}
	m.applyLayout()
	m.refreshResponse()
}

func (m *Model) toggleDiff() {
	if !m.showDiff && m.session.PreviousResponse() == "" {
		m.setStatusMessage(statusMsg{text: "No previous response to compare", level: statusInfo})
		return
	}
	m.showDiff = !m.showDiff
	m.refreshResponse()
}

func prevMethod(cur request.Method) request.Method {
	all := request.Methods()
	for i, m := range all {
		if m == cur {
			return all[(i-1+len(all))%len(all)]
		}
	}
	return request.MethodGet
}

func prevContentType(cur request.ContentType) request.ContentType {
	all := request.ContentTypes()
	for i, c := range all {
		if c == cur {
			return all[(i-1+len(all))%len(all)]
		}
	}
	return request.ContentJSON
}
