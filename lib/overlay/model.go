// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package overlay

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altarc/altarc/lib/altregistry"
	"github.com/altarc/altarc/lib/asset"
	"github.com/altarc/altarc/lib/version"
)

// Backend is the selection surface the picker mutates. The bridge
// runtime satisfies it.
type Backend interface {
	Stages() []asset.StageID
	ListAlts(stage asset.StageID) []altregistry.Slot
	SlotInfo(stage asset.StageID, slot int) (altregistry.Slot, bool)
	GetAlt(stage asset.StageID) int
	SetAlt(stage asset.StageID, slot int) int
	CycleAlt(stage asset.StageID) int
	RandomizeAlt(stage asset.StageID) int
	Online() bool
	SetOnline(online bool)
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	onlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

// Model is the alternate picker. Stages are listed in registry order
// with the active slot and its display name; mutations apply
// immediately through the backend.
type Model struct {
	backend Backend
	keys    KeyMap

	stages []asset.StageID
	cursor int

	width  int
	height int
	ready  bool
}

// NewModel creates a picker over the given backend.
func NewModel(backend Backend) Model {
	return Model{
		backend: backend,
		keys:    DefaultKeyMap,
		stages:  backend.Stages(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.stages)-1 {
				m.cursor++
			}

		case key.Matches(msg, m.keys.Next):
			if stage, ok := m.selected(); ok {
				m.backend.CycleAlt(stage)
			}

		case key.Matches(msg, m.keys.Previous):
			if stage, ok := m.selected(); ok {
				m.backend.SetAlt(stage, m.previousSlot(stage))
			}

		case key.Matches(msg, m.keys.Original):
			if stage, ok := m.selected(); ok {
				m.backend.SetAlt(stage, 0)
			}

		case key.Matches(msg, m.keys.Randomize):
			if stage, ok := m.selected(); ok {
				m.backend.RandomizeAlt(stage)
			}

		case key.Matches(msg, m.keys.Online):
			m.backend.SetOnline(!m.backend.Online())
		}
	}

	return m, nil
}

// selected returns the stage under the cursor.
func (m Model) selected() (asset.StageID, bool) {
	if m.cursor < 0 || m.cursor >= len(m.stages) {
		return "", false
	}
	return m.stages[m.cursor], true
}

// previousSlot finds the discovered slot before the active one, 0
// when the active slot is the first alternate.
func (m Model) previousSlot(stage asset.StageID) int {
	active := m.backend.GetAlt(stage)
	previous := 0
	for _, slot := range m.backend.ListAlts(stage) {
		if slot.Index >= active {
			break
		}
		previous = slot.Index
	}
	return previous
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if len(m.stages) == 0 {
		return "No alternates discovered.\n\n" + dimStyle.Render("q to quit")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Altarc " + version.Short() + " — stage alternates"))
	b.WriteString("\n\n")

	for i, stage := range m.stages {
		line := m.stageLine(stage)
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

// stageLine renders one stage row: name, active slot, display name.
func (m Model) stageLine(stage asset.StageID) string {
	active := m.backend.GetAlt(stage)
	if active == 0 {
		return fmt.Sprintf("%-24s [s00] original", stage)
	}

	name := ""
	if slot, ok := m.backend.SlotInfo(stage, active); ok {
		name = slot.Name
	}
	return fmt.Sprintf("%-24s [s%02d] %s", stage, active, name)
}

func (m Model) statusLine() string {
	mode := "offline"
	if m.backend.Online() {
		mode = onlineStyle.Render("ONLINE — randomize restricted to wifi-safe")
	}
	help := "j/k move · h/l change · 0 original · r randomize · o online · q quit"
	return mode + "\n" + dimStyle.Render(help)
}
