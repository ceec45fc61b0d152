package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/roster/pkg/client"
	"github.com/naveenspark/roster/pkg/domain"
	"github.com/naveenspark/roster/pkg/paging"
)

// -- messages --

type formDoneMsg struct {
	kind resourceKind
	err  error
}

type companyChoicesMsg struct {
	companies []domain.Company
	err       error
}

// -- model --

type choice struct {
	id    domain.ID
	label string
}

type formField struct {
	key         string
	label       string
	placeholder string
	value       string
	// choices turns the field into a selector cycled with h/l.
	choices []choice
	choice  int
}

func (f formField) current() string {
	if f.choices != nil {
		if f.choice >= 0 && f.choice < len(f.choices) {
			return f.choices[f.choice].id.String()
		}
		return ""
	}
	return f.value
}

type submitFunc func(ctx context.Context, values map[string]string) error

type formModel struct {
	kind       resourceKind
	title      string
	fields     []formField
	focus      int
	errs       domain.FieldErrors
	status     string
	submitting bool
	submit     submitFunc
}

func (m formModel) values() map[string]string {
	out := make(map[string]string, len(m.fields))
	for _, f := range m.fields {
		out[f.key] = strings.TrimSpace(f.current())
	}
	return out
}

func (m formModel) Update(msg tea.Msg) (formModel, tea.Cmd) {
	switch msg := msg.(type) {
	case formDoneMsg:
		if msg.kind != m.kind {
			return m, nil
		}
		m.submitting = false
		m.errs = fieldErrorsOf(msg.err)
		m.status = describeErr(msg.err)
		return m, nil

	case companyChoicesMsg:
		if msg.err != nil {
			m.status = "could not load companies: " + describeErr(msg.err)
			return m, nil
		}
		for i := range m.fields {
			if m.fields[i].key == "company_id" {
				m.fields[i] = withCompanyChoices(m.fields[i], msg.companies)
			}
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

func (m formModel) handleKey(msg tea.KeyMsg) (formModel, tea.Cmd) {
	n := len(m.fields)
	f := &m.fields[m.focus]
	switch msg.String() {
	case "ctrl+s":
		return m.submitForm()
	case "tab", "down":
		m.focus = (m.focus + 1) % n
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + n) % n
	case "enter":
		if m.focus == n-1 {
			return m.submitForm()
		}
		m.focus++
	case "h", "left":
		if f.choices != nil {
			f.choice = (f.choice - 1 + len(f.choices)) % len(f.choices)
			return m, nil
		}
		f.value = editKey(f.value, msg)
	case "l", "right":
		if f.choices != nil {
			f.choice = (f.choice + 1) % len(f.choices)
			return m, nil
		}
		f.value = editKey(f.value, msg)
	default:
		if f.choices == nil {
			f.value = editKey(f.value, msg)
		}
	}
	return m, nil
}

func (m formModel) submitForm() (formModel, tea.Cmd) {
	m.submitting = true
	m.status = "saving…"
	m.errs = nil
	kind, submit, values := m.kind, m.submit, m.values()
	return m, func() tea.Msg {
		return formDoneMsg{kind: kind, err: submit(context.Background(), values)}
	}
}

func (m formModel) View() string {
	var b strings.Builder
	b.WriteString(selectedStyle.Render(m.title) + "\n\n")
	for i, f := range m.fields {
		focused := i == m.focus
		if f.choices != nil {
			label := "(loading companies)"
			if f.choice < len(f.choices) {
				label = f.choices[f.choice].label
			}
			b.WriteString(renderInput(f.label, "‹ "+label+" ›", "", false))
			if focused {
				b.WriteString("  " + metaStyle.Render("h/l to change"))
			}
		} else {
			b.WriteString(renderInput(f.label, f.value, f.placeholder, focused))
		}
		b.WriteString("\n")
		if msg := m.errs[f.key]; msg != "" {
			b.WriteString("  " + padCell("", 12) + " " + errorStyle.Render(msg) + "\n")
		}
	}
	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(dimStyle.Render(m.status))
	case m.status != "":
		b.WriteString(errorStyle.Render(m.status))
	}
	return formBorder.Render(b.String())
}

// -- company form --

func newCompanyForm(ctrl *paging.Controller[domain.Company, domain.CompanyDraft], existing *domain.Company) formModel {
	var d domain.CompanyDraft
	title := "New company"
	if existing != nil {
		d = domain.CompanyDraftFrom(*existing)
		title = fmt.Sprintf("Edit company %s", existing.ID)
	}
	logoHint := "path to png/jpeg/gif, at least 100x100"
	if existing != nil && existing.Logo != "" {
		logoHint = "leave empty to keep the current logo"
	}
	return formModel{
		kind:  kindCompany,
		title: title,
		fields: []formField{
			{key: "name", label: "name", value: d.Name},
			{key: "email", label: "email", value: d.Email},
			{key: "website", label: "website", placeholder: "https://", value: d.Website},
			{key: "logo", label: "logo", placeholder: logoHint},
		},
		submit: func(ctx context.Context, v map[string]string) error {
			draft := domain.CompanyDraft{Name: v["name"], Email: v["email"], Website: v["website"]}
			if path := v["logo"]; path != "" {
				file, err := domain.ReadFile(path)
				if err != nil {
					return domain.FieldErrors{"logo": "Could not read file"}
				}
				draft.Logo = file
			}
			var err error
			if existing != nil {
				_, err = ctrl.Update(ctx, existing.ID, draft)
			} else {
				_, err = ctrl.Create(ctx, draft)
			}
			return err
		},
	}
}

// -- employee form --

func newEmployeeForm(ctrl *paging.Controller[domain.Employee, domain.EmployeeDraft], existing *domain.Employee) formModel {
	var d domain.EmployeeDraft
	title := "New employee"
	if existing != nil {
		d = domain.EmployeeDraftFrom(*existing)
		title = fmt.Sprintf("Edit employee %s", existing.ID)
	}
	company := formField{key: "company_id", label: "company", choices: []choice{{label: "(none)"}}}
	if existing != nil && existing.Company != nil {
		company.choices = append(company.choices, choice{id: existing.Company.ID, label: existing.Company.Name})
		company.choice = 1
	}
	return formModel{
		kind:  kindEmployee,
		title: title,
		fields: []formField{
			{key: "first_name", label: "first name", value: d.FirstName},
			{key: "last_name", label: "last name", value: d.LastName},
			{key: "email", label: "email", value: d.Email},
			{key: "phone", label: "phone", value: d.Phone},
			company,
		},
		submit: func(ctx context.Context, v map[string]string) error {
			draft := domain.EmployeeDraft{
				FirstName: v["first_name"],
				LastName:  v["last_name"],
				Email:     v["email"],
				Phone:     v["phone"],
				CompanyID: domain.ID(v["company_id"]),
			}
			draft.ClearCompany = draft.CompanyID.IsZero() && !d.CompanyID.IsZero()
			var err error
			if existing != nil {
				_, err = ctrl.Update(ctx, existing.ID, draft)
			} else {
				_, err = ctrl.Create(ctx, draft)
			}
			return err
		},
	}
}

// withCompanyChoices replaces the selector options, keeping the current
// selection when it is still offered.
func withCompanyChoices(f formField, companies []domain.Company) formField {
	selected := f.current()
	prevLabel := "company " + selected
	if f.choice > 0 && f.choice < len(f.choices) {
		prevLabel = f.choices[f.choice].label
	}
	f.choices = []choice{{label: "(none)"}}
	f.choice = 0
	for _, c := range companies {
		f.choices = append(f.choices, choice{id: c.ID, label: c.Name})
		if c.ID.String() == selected {
			f.choice = len(f.choices) - 1
		}
	}
	if f.choice == 0 && selected != "" {
		f.choices = append(f.choices, choice{id: domain.ID(selected), label: prevLabel})
		f.choice = len(f.choices) - 1
	}
	return f
}

func loadCompanyChoices(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		page, err := c.Companies().List(context.Background(), 1)
		return companyChoicesMsg{companies: page.Records, err: err}
	}
}
