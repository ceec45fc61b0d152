package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/roster/pkg/client"
	"github.com/naveenspark/roster/pkg/domain"
	"github.com/naveenspark/roster/pkg/paging"
)

type view int

const (
	viewLogin view = iota
	viewCompanies
	viewEmployees
)

// changedMsg is delivered whenever a controller's state changes.
type changedMsg struct{}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

// App is the root Bubbletea model.
type App struct {
	client     *client.Client
	view       view
	login      loginModel
	companies  listModel[domain.Company, domain.CompanyDraft]
	employees  listModel[domain.Employee, domain.EmployeeDraft]
	form       formModel
	formOpen   bool
	signingOut bool
	changes    chan struct{}
	width      int
	height     int
	frame      int // logo shimmer animation frame
}

// NewApp creates a new TUI application. It starts on the login view unless
// the client's session already holds a token.
func NewApp(c *client.Client, log *slog.Logger) App {
	changes := make(chan struct{}, 1)
	notify := func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}
	companies := paging.New(c.Companies(), domain.ValidateCompany,
		paging.WithLogger(log), paging.WithOnChange(notify))
	employees := paging.New(c.Employees(), domain.ValidateEmployee,
		paging.WithLogger(log), paging.WithOnChange(notify))

	a := App{
		client:    c,
		login:     newLoginModel(c),
		companies: newListModel(kindCompany, companies, companyColumns(), companyLinks(c.Origin())),
		employees: newListModel(kindEmployee, employees, employeeColumns(), employeeLinks),
		changes:   changes,
	}
	if _, ok := c.Session().Token(); ok {
		a.view = viewCompanies
	}
	return a
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{shimmerTickCmd(), waitForChange(a.changes)}
	if a.view == viewCompanies {
		cmds = append(cmds, a.companies.Init())
	}
	return tea.Batch(cmds...)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + help(1) = 4 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.companies, _ = a.companies.Update(bodyMsg)
		a.employees, _ = a.employees.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case changedMsg:
		return a, waitForChange(a.changes)

	case loginDoneMsg:
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		if msg.err == nil && msg.result.OK() {
			a.view = viewCompanies
			return a, tea.Batch(cmd, a.companies.Init())
		}
		return a, cmd

	case logoutDoneMsg:
		a.signingOut = false
		a.formOpen = false
		a.view = viewLogin
		a.login = newLoginModel(a.client)
		switch {
		case msg.err != nil:
			a.login.status = "signed out locally: " + describeErr(msg.err)
		case msg.result.Message != "":
			a.login.status = msg.result.Message
		default:
			a.login.status = "signed out"
		}
		return a, nil

	case pageLoadedMsg, deleteDoneMsg, statusMsg:
		if unauthorized(msg) {
			return a.expire()
		}
		var cmd1, cmd2 tea.Cmd
		a.companies, cmd1 = a.companies.Update(msg)
		a.employees, cmd2 = a.employees.Update(msg)
		return a, tea.Batch(cmd1, cmd2)

	case formDoneMsg:
		if errors.Is(msg.err, domain.ErrUnauthorized) {
			return a.expire()
		}
		if msg.err == nil {
			a.formOpen = false
			kind := msg.kind
			return a, func() tea.Msg { return statusMsg{kind: kind, text: kind.String() + " saved"} }
		}
		a.form, _ = a.form.Update(msg)
		return a, nil

	case companyChoicesMsg:
		if a.formOpen {
			a.form, _ = a.form.Update(msg)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	if a.view == viewLogin {
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		return a, cmd
	}

	// Form overlay captures all keys when open
	if a.formOpen {
		if msg.String() == "esc" && !a.form.submitting {
			a.formOpen = false
			return a, nil
		}
		var cmd tea.Cmd
		a.form, cmd = a.form.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "1":
		if a.view != viewCompanies {
			a.view = viewCompanies
			return a, a.companies.Init()
		}
		return a, nil
	case "2":
		if a.view != viewEmployees {
			a.view = viewEmployees
			return a, a.employees.Init()
		}
		return a, nil
	case "L":
		if a.signingOut {
			return a, nil
		}
		a.signingOut = true
		return a, signOutCmd(a.client)
	case "n":
		return a.openForm(false)
	case "e":
		return a.openForm(true)
	}

	var cmd tea.Cmd
	switch a.view {
	case viewCompanies:
		a.companies, cmd = a.companies.Update(msg)
	case viewEmployees:
		a.employees, cmd = a.employees.Update(msg)
	}
	return a, cmd
}

// openForm opens the add form, or the edit form for the selected row.
func (a App) openForm(edit bool) (tea.Model, tea.Cmd) {
	switch a.view {
	case viewCompanies:
		var existing *domain.Company
		if edit {
			rec, ok := a.companies.selected()
			if !ok {
				return a, nil
			}
			existing = &rec
		}
		a.form = newCompanyForm(a.companies.ctrl, existing)
		a.formOpen = true
		return a, nil
	case viewEmployees:
		var existing *domain.Employee
		if edit {
			rec, ok := a.employees.selected()
			if !ok {
				return a, nil
			}
			existing = &rec
		}
		a.form = newEmployeeForm(a.employees.ctrl, existing)
		a.formOpen = true
		return a, loadCompanyChoices(a.client)
	}
	return a, nil
}

// expire drops the rejected token and returns to the login view.
func (a App) expire() (tea.Model, tea.Cmd) {
	if s := a.client.Session(); s != nil {
		s.ClearToken() //nolint:errcheck // the in-memory token is dropped regardless
	}
	a.formOpen = false
	a.view = viewLogin
	a.login = newLoginModel(a.client)
	a.login.failed = true
	a.login.status = describeErr(domain.ErrUnauthorized)
	return a, nil
}

func unauthorized(msg tea.Msg) bool {
	var err error
	switch m := msg.(type) {
	case pageLoadedMsg:
		err = m.err
	case deleteDoneMsg:
		err = m.err
	case statusMsg:
		err = m.err
	}
	return errors.Is(err, domain.ErrUnauthorized)
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)
	logoPad := max((a.width-lipgloss.Width(logo))/2, 0)
	header := strings.Repeat(" ", logoPad) + logo + "\n"

	// Tab bar: 1 Companies  2 Employees
	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"1", "Companies", viewCompanies},
		{"2", "Employees", viewEmployees},
	}
	var tabBar strings.Builder
	if a.view != viewLogin {
		colWidth := a.width / len(tabs)
		for _, t := range tabs {
			var label string
			if t.v == a.view {
				label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
			} else {
				label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
			}
			labelWidth := lipgloss.Width(label)
			leftPad := max((colWidth-labelWidth)/2, 0)
			rightPad := max(colWidth-labelWidth-leftPad, 0)
			tabBar.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
		}
	}

	var body, help string
	switch a.view {
	case viewLogin:
		body = a.login.View()
		help = helpBar("tab", "next", "enter", "sign in", "ctrl+c", "quit")
	case viewCompanies:
		body = a.companies.View()
		help = helpBar("1-2", "tabs", "j/k", "nav", "h/l", "page", "n", "add", "e", "edit", "d", "delete",
			"o", "open", "c", "copy email", "r", "reload", "L", "sign out", "q", "quit")
	case viewEmployees:
		body = a.employees.View()
		help = helpBar("1-2", "tabs", "j/k", "nav", "h/l", "page", "n", "add", "e", "edit", "d", "delete",
			"c", "copy email", "r", "reload", "L", "sign out", "q", "quit")
	}
	if a.signingOut {
		help = " " + dimStyle.Render("signing out…")
	}

	if a.formOpen {
		body = a.form.View()
		help = helpBar("tab", "next", "ctrl+s", "submit", "esc", "cancel")
		if a.form.kind == kindEmployee {
			help = helpBar("tab", "next", "h/l", "company", "ctrl+s", "submit", "esc", "cancel")
		}
	}

	chrome := 4
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")
	return fmt.Sprintf("%s\n%s\n%s\n%s", header, tabBar.String(), body, help)
}
