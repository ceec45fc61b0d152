package tui

import (
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 255

// editKey applies a keystroke to inline text. Backspace removes one rune,
// typed or pasted runes are appended up to maxInputLen runes, and every
// other key leaves the text unchanged.
func editKey(text string, msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeyBackspace:
		if text == "" {
			return text
		}
		runes := []rune(text)
		return string(runes[:len(runes)-1])
	case tea.KeySpace:
		return appendRunes(text, []rune{' '})
	case tea.KeyRunes:
		if msg.Alt {
			return text
		}
		return appendRunes(text, msg.Runes)
	}
	return text
}

func appendRunes(text string, add []rune) string {
	room := maxInputLen - utf8.RuneCountInString(text)
	if room <= 0 {
		return text
	}
	if len(add) > room {
		add = add[:room]
	}
	return text + strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		return r
	}, string(add))
}

// mask hides a secret, one bullet per rune.
func mask(s string) string {
	return strings.Repeat("•", utf8.RuneCountInString(s))
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// renderInput renders a labelled single-line input with a cursor when focused.
func renderInput(label, value, placeholder string, focused bool) string {
	prefix := "  "
	labelStyle := metaStyle
	if focused {
		prefix = inputPromptStyle.Render("> ")
		labelStyle = selectedStyle
	}
	shown := normalStyle.Render(value)
	if value == "" && !focused {
		shown = inputPlaceholderStyle.Render(placeholder)
	}
	if focused {
		shown += accentStyle.Render("█")
	}
	return prefix + labelStyle.Render(padCell(label, 12)) + " " + shown
}
