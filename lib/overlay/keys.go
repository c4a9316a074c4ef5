// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package overlay

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the alternate picker.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Next      key.Binding // Advance the selected stage to its next alternate.
	Previous  key.Binding // Step the selected stage back one alternate.
	Original  key.Binding // Reset the selected stage to slot 0.
	Randomize key.Binding // Pick a random eligible alternate.
	Online    key.Binding // Toggle the online session flag.
	Quit      key.Binding
}

// DefaultKeyMap is the built-in key binding set. Vim-style navigation
// (j/k/h/l) alongside standard arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Next: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "next alt"),
	),
	Previous: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "previous alt"),
	),
	Original: key.NewBinding(
		key.WithKeys("0"),
		key.WithHelp("0", "original"),
	),
	Randomize: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "randomize"),
	),
	Online: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "toggle online"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
