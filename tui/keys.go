package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"ap-task/experiment"
)

type keyMap struct {
	Continue key.Binding
	Play     key.Binding
	Left     key.Binding
	Right    key.Binding
	BigLeft  key.Binding
	BigRight key.Binding
	Quit     key.Binding
	Abort    key.Binding
}

func binding(label, help string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, help))
}

func newKeyMap() keyMap {
	return keyMap{
		Continue: binding("enter", "continue", "enter"),
		Play:     binding("space", "play/pause", " ", "p"),
		Left:     binding("←/h", "lower", "left", "h"),
		Right:    binding("→/l", "higher", "right", "l"),
		BigLeft:  binding("H", "much lower", "shift+left", "H", "pgdown"),
		BigRight: binding("L", "much higher", "shift+right", "L", "pgup"),
		Quit:     binding("q", "quit", "q"),
		Abort:    binding("ctrl+c", "stop session", "ctrl+c"),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.BigLeft, k.BigRight, k.Play, k.Continue, k.Quit, k.Abort}
}

// forView enables only the keys that do something on the current screen
func (k keyMap) forView(v View, done bool) keyMap {
	sliding := v.ScreenVisible && (v.Screen.ID == experiment.ScreenVolume ||
		(v.Screen.ID == experiment.ScreenPitch && v.ResponseVisible))
	k.Left.SetEnabled(sliding)
	k.Right.SetEnabled(sliding)
	k.BigLeft.SetEnabled(sliding)
	k.BigRight.SetEnabled(sliding)
	k.Play.SetEnabled(v.ScreenVisible && v.Screen.ID == experiment.ScreenVolume)
	k.Continue.SetEnabled(v.ScreenVisible && v.ControlEnabled && !done)
	k.Quit.SetEnabled(done)
	return k
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
