package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Send        key.Binding
	NextFocus   key.Binding
	PrevFocus   key.Binding
	NextMethod  key.Binding
	NextContent key.Binding
	Copy        key.Binding
	Diff        key.Binding
	Quit        key.Binding
	Left        key.Binding
	Right       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send: key.NewBinding(
			key.WithKeys("ctrl+s", "ctrl+r"),
			key.WithHelp("ctrl+s", "send"),
		),
		NextFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		PrevFocus: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev field"),
		),
		NextMethod: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "method"),
		),
		NextContent: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "content type"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy"),
		),
		Diff: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "diff"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l", " "),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.NextFocus, k.NextMethod, k.NextContent, k.Copy, k.Diff, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Quit},
		{k.NextFocus, k.PrevFocus},
		{k.NextMethod, k.NextContent},
		{k.Copy, k.Diff},
	}
}
