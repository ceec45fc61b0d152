package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/roster/internal/browser"
	"github.com/naveenspark/roster/pkg/domain"
	"github.com/naveenspark/roster/pkg/paging"
)

type resourceKind int

const (
	kindCompany resourceKind = iota
	kindEmployee
)

func (k resourceKind) String() string {
	if k == kindEmployee {
		return "employee"
	}
	return "company"
}

// -- messages --

type pageLoadedMsg struct {
	kind resourceKind
	err  error
}

type deleteDoneMsg struct {
	kind resourceKind
	id   domain.ID
	err  error
}

type statusMsg struct {
	kind resourceKind
	text string
	err  error
}

// -- model --

type column[R domain.Record] struct {
	title string
	width int
	value func(R) string
}

// rowLinks returns what "o" opens and what "c" copies for a row.
type rowLinks[R domain.Record] func(R) (openURL, copyText string)

type listModel[R domain.Record, D domain.Draft] struct {
	kind    resourceKind
	ctrl    *paging.Controller[R, D]
	columns []column[R]
	links   rowLinks[R]
	cursor  int
	status  string
	failed  bool
	width   int
	height  int
}

func newListModel[R domain.Record, D domain.Draft](kind resourceKind, ctrl *paging.Controller[R, D], cols []column[R], links rowLinks[R]) listModel[R, D] {
	return listModel[R, D]{kind: kind, ctrl: ctrl, columns: cols, links: links}
}

func (m listModel[R, D]) Init() tea.Cmd {
	return m.run(m.ctrl.Reload)
}

// run wraps a controller page action as a command.
func (m listModel[R, D]) run(action func(context.Context) error) tea.Cmd {
	kind := m.kind
	return func() tea.Msg {
		return pageLoadedMsg{kind: kind, err: action(context.Background())}
	}
}

func (m listModel[R, D]) selected() (R, bool) {
	s := m.ctrl.Snapshot()
	if m.cursor < 0 || m.cursor >= len(s.Records) {
		var zero R
		return zero, false
	}
	return s.Records[m.cursor], true
}

func (m listModel[R, D]) Update(msg tea.Msg) (listModel[R, D], tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case pageLoadedMsg:
		if msg.kind != m.kind || errors.Is(msg.err, paging.ErrSuperseded) {
			return m, nil
		}
		m.setResult("", msg.err)
		m.clampCursor()

	case deleteDoneMsg:
		if msg.kind != m.kind {
			return m, nil
		}
		m.setResult(fmt.Sprintf("%s %s deleted", m.kind, msg.id), msg.err)
		m.clampCursor()

	case statusMsg:
		if msg.kind == m.kind {
			m.setResult(msg.text, msg.err)
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *listModel[R, D]) setResult(ok string, err error) {
	if err != nil {
		m.failed = true
		m.status = describeErr(err)
		return
	}
	m.failed = false
	m.status = ok
}

func (m *listModel[R, D]) clampCursor() {
	n := len(m.ctrl.Snapshot().Records)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m listModel[R, D]) handleKey(msg tea.KeyMsg) (listModel[R, D], tea.Cmd) {
	s := m.ctrl.Snapshot()
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(s.Records)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "l", "]", "right":
		if !s.HasNext() {
			return m, nil
		}
		m.cursor = 0
		return m, m.run(m.ctrl.Next)
	case "h", "[", "left":
		if !s.HasPrev() {
			return m, nil
		}
		m.cursor = 0
		return m, m.run(m.ctrl.Prev)
	case "r":
		m.status = ""
		return m, m.run(m.ctrl.Reload)
	case "d":
		rec, ok := m.selected()
		if !ok || s.IsDeleting(rec.RecordID()) {
			return m, nil
		}
		return m, m.deleteCmd(rec.RecordID())
	case "o":
		rec, ok := m.selected()
		if !ok || m.links == nil {
			return m, nil
		}
		if u, _ := m.links(rec); u != "" {
			return m, openCmd(m.kind, u)
		}
		m.setResult("", nil)
		m.status = "nothing to open"
	case "c":
		rec, ok := m.selected()
		if !ok || m.links == nil {
			return m, nil
		}
		if _, text := m.links(rec); text != "" {
			return m, copyCmd(m.kind, text)
		}
	}
	return m, nil
}

// deleteCmd awaits the remote delete. The row's deleting marker is
// rendered meanwhile through the controller's change notifications.
func (m listModel[R, D]) deleteCmd(id domain.ID) tea.Cmd {
	kind, ctrl := m.kind, m.ctrl
	return func() tea.Msg {
		return deleteDoneMsg{kind: kind, id: id, err: ctrl.Delete(context.Background(), id)}
	}
}

func openCmd(kind resourceKind, url string) tea.Cmd {
	return func() tea.Msg {
		if err := browser.Open(url); err != nil {
			return statusMsg{kind: kind, err: err}
		}
		return statusMsg{kind: kind, text: "opened " + url}
	}
}

func copyCmd(kind resourceKind, text string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return statusMsg{kind: kind, err: err}
		}
		return statusMsg{kind: kind, text: "copied " + text}
	}
}

func (m listModel[R, D]) View() string {
	s := m.ctrl.Snapshot()
	var b strings.Builder

	var head strings.Builder
	head.WriteString("  ")
	for _, c := range m.columns {
		head.WriteString(padCell(c.title, c.width) + "  ")
	}
	b.WriteString(headerStyle.Render(strings.TrimRight(head.String(), " ")) + "\n")

	switch {
	case s.Status == paging.StatusLoading && len(s.Records) == 0:
		b.WriteString("  " + dimStyle.Render("loading…") + "\n")
	case s.Status == paging.StatusLoaded && len(s.Records) == 0:
		b.WriteString("  " + dimStyle.Render(fmt.Sprintf("no %s records yet, press n to add one", m.kind)) + "\n")
	}

	for i, rec := range s.Records {
		var row strings.Builder
		for _, c := range m.columns {
			row.WriteString(padCell(c.value(rec), c.width) + "  ")
		}
		line := strings.TrimRight(row.String(), " ")
		if s.IsDeleting(rec.RecordID()) {
			line += "  " + deletingStyle.Render("deleting…")
		}
		if i == m.cursor {
			b.WriteString(selectedRowBg.Render(accentStyle.Render("> ")+selectedStyle.Render(line)) + "\n")
		} else {
			b.WriteString("  " + normalStyle.Render(line) + "\n")
		}
	}

	b.WriteString("\n" + m.footer(s) + "\n")
	if m.status != "" {
		if m.failed {
			b.WriteString("  " + errorStyle.Render(m.status))
		} else {
			b.WriteString("  " + successStyle.Render(m.status))
		}
	}
	return b.String()
}

func (m listModel[R, D]) footer(s paging.State[R]) string {
	p := s.Pagination
	if !p.Known() {
		return "  " + metaStyle.Render(fmt.Sprintf("page %d", s.Page))
	}
	text := fmt.Sprintf("Showing %d to %d of %d results", p.From, p.To, p.Total)
	if p.Total == 0 {
		text = "No results"
	}
	pager := fmt.Sprintf("page %d of %d", s.Page, p.LastPage)
	if s.Status == paging.StatusLoading {
		pager += " · loading…"
	}
	return "  " + dimStyle.Render(text) + "  " + metaStyle.Render(pager)
}

// -- resource-specific columns --

func companyColumns() []column[domain.Company] {
	return []column[domain.Company]{
		{"ID", 5, func(c domain.Company) string { return c.ID.String() }},
		{"Name", 24, func(c domain.Company) string { return c.Name }},
		{"Email", 26, func(c domain.Company) string { return c.Email }},
		{"Website", 28, func(c domain.Company) string { return c.Website }},
		{"Logo", 4, func(c domain.Company) string {
			if c.Logo == "" {
				return "-"
			}
			return "yes"
		}},
	}
}

func employeeColumns() []column[domain.Employee] {
	return []column[domain.Employee]{
		{"ID", 5, func(e domain.Employee) string { return e.ID.String() }},
		{"Name", 24, func(e domain.Employee) string { return e.FullName() }},
		{"Email", 26, func(e domain.Employee) string { return e.Email }},
		{"Phone", 14, func(e domain.Employee) string { return e.Phone }},
		{"Company", 20, func(e domain.Employee) string { return e.CompanyName() }},
	}
}

func companyLinks(origin string) rowLinks[domain.Company] {
	return func(c domain.Company) (string, string) {
		if c.Website != "" {
			return c.Website, c.Email
		}
		return c.LogoURL(origin), c.Email
	}
}

func employeeLinks(e domain.Employee) (string, string) {
	return "", e.Email
}
