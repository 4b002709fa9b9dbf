package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	next   key.Binding
	prev   key.Binding
	enter  key.Binding
	back   key.Binding
	stats  key.Binding
	enrich key.Binding
	reload key.Binding
	yes    key.Binding
	no     key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		next:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next kind")),
		prev:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev kind")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		stats:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stats")),
		enrich: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "enrich")),
		reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		yes:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.next, k.prev, k.stats},
		{k.enrich, k.reload, k.back},
		{k.yes, k.no, k.quit},
	}
}
