package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) copyResponse() tea.Cmd {
	content, status := m.responseCopyPayload()
	if status != nil {
		m.setStatusMessage(*status)
		return nil
	}

	copyFn := m.clipboard
	label := "response"
	if m.showDiff {
		label = "diff"
	}
	return func() tea.Msg {
		if err := copyFn(content); err != nil {
			return statusMsg{text: fmt.Sprintf("Copy failed: %v", err), level: statusError}
		}
		return statusMsg{text: fmt.Sprintf("Copied %s (%d bytes)", label, len(content)), level: statusSuccess}
	}
}

func (m *Model) responseCopyPayload() (string, *statusMsg) {
	body := m.session.Response()
	if body == "" {
		return "", &statusMsg{text: "No response available to copy", level: statusWarn}
	}
	if m.showDiff {
		return responseDiff(m.session.PreviousResponse(), body), nil
	}
	return body, nil
}
