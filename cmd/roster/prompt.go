package main

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	promptLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#34d474")).Bold(true)
	promptValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#c0c4d0"))
)

var errPromptCancelled = errors.New("cancelled")

// promptModel reads a single line, optionally masked.
type promptModel struct {
	label     string
	value     string
	masked    bool
	done      bool
	cancelled bool
}

func (m promptModel) Init() tea.Cmd { return nil }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyEnter:
		m.done = true
		return m, tea.Quit
	case tea.KeyCtrlC, tea.KeyEsc:
		m.cancelled = true
		return m, tea.Quit
	case tea.KeyBackspace:
		if m.value != "" {
			runes := []rune(m.value)
			m.value = string(runes[:len(runes)-1])
		}
	case tea.KeySpace:
		m.value += " "
	case tea.KeyRunes:
		m.value += string(key.Runes)
	}
	return m, nil
}

func (m promptModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	shown := m.value
	if m.masked {
		shown = strings.Repeat("•", utf8.RuneCountInString(m.value))
	}
	return promptLabelStyle.Render(m.label+": ") + promptValueStyle.Render(shown) + "█"
}

// prompt asks for one value on the terminal. The prompt renders on stderr
// so stdout stays clean for --json.
func (c *cli) prompt(label string, masked bool) (string, error) {
	p := tea.NewProgram(promptModel{label: label, masked: masked},
		tea.WithInput(c.in), tea.WithOutput(c.errOut))
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("prompt %s: %w", strings.ToLower(label), err)
	}
	m := final.(promptModel)
	if m.cancelled {
		return "", errPromptCancelled
	}
	return m.value, nil
}
