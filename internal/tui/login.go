package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/roster/pkg/client"
	"github.com/naveenspark/roster/pkg/domain"
)

// -- messages --

type loginDoneMsg struct {
	result client.AuthResult
	err    error
}

type logoutDoneMsg struct {
	result client.AuthResult
	err    error
}

// -- model --

const (
	loginEmail = iota
	loginPassword
	numLoginFields
)

type loginModel struct {
	client     *client.Client
	email      string
	password   string
	focus      int
	submitting bool
	status     string
	failed     bool
	fieldErrs  domain.FieldErrors
}

func newLoginModel(c *client.Client) loginModel {
	return loginModel{client: c}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		m.submitting = false
		m.password = ""
		switch {
		case msg.err != nil:
			m.failed = true
			m.status = describeErr(msg.err)
		case !msg.result.OK():
			m.failed = true
			m.status = msg.result.Message
			m.fieldErrs = msg.result.Fields
		default:
			m.failed = false
			m.status = msg.result.Message
			m.fieldErrs = nil
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m loginModel) handleKey(msg tea.KeyMsg) (loginModel, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.focus = (m.focus + 1) % numLoginFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numLoginFields) % numLoginFields
	case "enter":
		if m.focus == loginEmail {
			m.focus = loginPassword
			return m, nil
		}
		return m.submit()
	case "ctrl+s":
		return m.submit()
	default:
		if m.focus == loginEmail {
			m.email = editKey(m.email, msg)
		} else {
			m.password = editKey(m.password, msg)
		}
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	creds := domain.Credentials{Email: strings.TrimSpace(m.email), Password: m.password}
	if creds.Email == "" || creds.Password == "" {
		m.failed = true
		m.status = "email and password are required"
		return m, nil
	}
	m.submitting = true
	m.failed = false
	m.status = "signing in…"
	c := m.client
	return m, func() tea.Msg {
		res, err := c.SignIn(context.Background(), creds)
		return loginDoneMsg{result: res, err: err}
	}
}

func signOutCmd(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		res, err := c.SignOut(context.Background())
		return logoutDoneMsg{result: res, err: err}
	}
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString("\n  " + selectedStyle.Render("Sign in") + "\n\n")
	b.WriteString(renderInput("email", m.email, "you@example.com", m.focus == loginEmail) + "\n")
	if msg := m.fieldErrs["email"]; msg != "" {
		b.WriteString("  " + errorStyle.Render(padCell("", 12)+" "+msg) + "\n")
	}
	b.WriteString(renderInput("password", mask(m.password), "", m.focus == loginPassword) + "\n")
	if msg := m.fieldErrs["password"]; msg != "" {
		b.WriteString("  " + errorStyle.Render(padCell("", 12)+" "+msg) + "\n")
	}
	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString("  " + dimStyle.Render(m.status))
	case m.failed:
		b.WriteString("  " + errorStyle.Render(m.status))
	case m.status != "":
		b.WriteString("  " + successStyle.Render(m.status))
	}
	return b.String()
}
