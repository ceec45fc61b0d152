package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestEditKeyAddCharacters(t *testing.T) {
	tests := []struct {
		name  string
		start string
		msg   tea.KeyMsg
		want  string
	}{
		{"append to empty", "", runes("a"), "a"},
		{"append letter", "hel", runes("l"), "hell"},
		{"append digit", "abc", runes("1"), "abc1"},
		{"append space", "hello", tea.KeyMsg{Type: tea.KeySpace}, "hello "},
		{"append special", "abc", runes("@"), "abc@"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := editKey(tc.start, tc.msg)
			if got != tc.want {
				t.Errorf("editKey(%q, %q) = %q, want %q", tc.start, tc.msg, got, tc.want)
			}
		})
	}
}

func TestEditKeyBackspace(t *testing.T) {
	tests := []struct {
		name  string
		start string
		want  string
	}{
		{"backspace on single char", "a", ""},
		{"backspace on longer string", "hello", "hell"},
		{"backspace on empty does nothing", "", ""},
		{"backspace removes whole rune", "hellé", "hell"},
		{"backspace removes emoji", "hello\U0001f600", "hello"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := editKey(tc.start, tea.KeyMsg{Type: tea.KeyBackspace})
			if got != tc.want {
				t.Errorf("editKey(%q, backspace) = %q, want %q", tc.start, got, tc.want)
			}
		})
	}
}

func TestEditKeyIgnoresNonPrintableKeys(t *testing.T) {
	keys := []tea.KeyType{
		tea.KeyEnter, tea.KeyEsc, tea.KeyUp, tea.KeyDown, tea.KeyLeft, tea.KeyRight,
		tea.KeyCtrlC, tea.KeyCtrlS, tea.KeyTab, tea.KeyShiftTab, tea.KeyF1,
		tea.KeyPgUp, tea.KeyPgDown, tea.KeyHome, tea.KeyEnd,
	}

	original := "hello"
	for _, k := range keys {
		msg := tea.KeyMsg{Type: k}
		t.Run(msg.String(), func(t *testing.T) {
			got := editKey(original, msg)
			if got != original {
				t.Errorf("editKey(%q, %q) = %q, want unchanged", original, msg, got)
			}
		})
	}
}

func TestEditKeyIgnoresAltRunes(t *testing.T) {
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x"), Alt: true}
	if got := editKey("hi", msg); got != "hi" {
		t.Errorf("alt+x changed text to %q", got)
	}
}

func TestEditKeyPaste(t *testing.T) {
	tests := []struct {
		name  string
		start string
		paste string
		want  string
	}{
		{"paste into empty", "", "hello world", "hello world"},
		{"paste appends", "hi ", "there", "hi there"},
		{"paste flattens newlines", "", "line1\nline2\tend", "line1 line2 end"},
		{"paste clamped at limit", strings.Repeat("a", maxInputLen-3), "abcdef", strings.Repeat("a", maxInputLen-3) + "abc"},
		{"paste rejected at limit", strings.Repeat("a", maxInputLen), "hello", strings.Repeat("a", maxInputLen)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(tc.paste), Paste: true}
			got := editKey(tc.start, msg)
			if got != tc.want {
				t.Errorf("editKey(%q, paste %q) = %q, want %q", tc.start, tc.paste, got, tc.want)
			}
		})
	}
}

func TestEditKeyPasteDoesNotAliasInput(t *testing.T) {
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a\nb")}
	editKey("", msg)
	if string(msg.Runes) != "a\nb" {
		t.Errorf("editKey mutated the key's runes: %q", string(msg.Runes))
	}
}

func TestEditKeyMaxInputLen(t *testing.T) {
	atLimit := strings.Repeat("a", maxInputLen)
	belowLimit := strings.Repeat("a", maxInputLen-1)
	cjkAtLimit := strings.Repeat("你", maxInputLen)

	tests := []struct {
		name string
		text string
		msg  tea.KeyMsg
		want string
	}{
		{"at limit rejects new char", atLimit, runes("b"), atLimit},
		{"below limit accepts new char", belowLimit, runes("b"), belowLimit + "b"},
		{"at limit backspace still works", atLimit, tea.KeyMsg{Type: tea.KeyBackspace}, atLimit[:len(atLimit)-1]},
		{"CJK at limit rejects new rune", cjkAtLimit, runes("好"), cjkAtLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := editKey(tt.text, tt.msg)
			if got != tt.want {
				t.Errorf("editKey(..., %q): len(got)=%d runes, len(want)=%d runes",
					tt.msg, len([]rune(got)), len([]rune(tt.want)))
			}
		})
	}
}

func TestMask(t *testing.T) {
	if got := mask("sécret"); got != "••••••" {
		t.Errorf("mask = %q, want one bullet per rune", got)
	}
	if got := mask(""); got != "" {
		t.Errorf("mask(\"\") = %q", got)
	}
}

func TestTruncStr(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{"under limit", "hello", 10, "hello"},
		{"at limit", "hello", 5, "hello"},
		{"over limit", "hello world", 5, "hell…"},
		{"empty string", "", 5, ""},
		{"single char over", "ab", 1, "…"},
		{"zero width", "ab", 0, ""},
		{"CJK chars", "你好世界", 3, "你好…"},
		{"multi-byte at boundary", "cafés are nice", 5, "café…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncStr(tt.s, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncStr(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestPadCell(t *testing.T) {
	if got := padCell("ab", 4); got != "ab  " {
		t.Errorf("padCell short = %q", got)
	}
	if got := padCell("abcdef", 4); got != "abc…" {
		t.Errorf("padCell long = %q", got)
	}
}

func TestTruncateToHeightLimitsLines(t *testing.T) {
	input := "line1\nline2\nline3\nline4\nline5\n"
	result := truncateToHeight(input, 3)

	lines := strings.Count(result, "\n")
	if lines > 3 {
		t.Errorf("truncateToHeight(5 lines, 3) produced %d newlines, want <= 3", lines)
	}
	if !strings.Contains(result, "line1") {
		t.Errorf("truncateToHeight result missing first line: %q", result)
	}
	if strings.Contains(result, "line4") {
		t.Errorf("truncateToHeight result should not contain line4: %q", result)
	}
}

func TestTruncateToHeightReturnsFullStringWhenWithinLimit(t *testing.T) {
	input := "line1\nline2\nline3\n"
	result := truncateToHeight(input, 10)
	if result != input {
		t.Errorf("truncateToHeight with maxLines > linecount: got %q, want %q", result, input)
	}
}

func TestTruncateToHeightNonPositiveMaxReturnsAll(t *testing.T) {
	input := "line1\nline2\n"
	for _, n := range []int{0, -1} {
		if result := truncateToHeight(input, n); result != input {
			t.Errorf("truncateToHeight with maxLines=%d should return input unchanged, got %q", n, result)
		}
	}
}

func TestRenderInput(t *testing.T) {
	focused := renderInput("email", "ada@", "you@example.com", true)
	if !strings.Contains(focused, "ada@") || !strings.Contains(focused, "█") {
		t.Errorf("focused input should show value and cursor: %q", focused)
	}
	empty := renderInput("email", "", "you@example.com", false)
	if !strings.Contains(empty, "you@example.com") {
		t.Errorf("unfocused empty input should show placeholder: %q", empty)
	}
}
