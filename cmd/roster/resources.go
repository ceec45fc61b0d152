package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/naveenspark/roster/pkg/client"
	"github.com/naveenspark/roster/pkg/domain"
)

// resourceDef describes one record kind to the generic CRUD commands.
type resourceDef[R domain.Record, D domain.Draft] struct {
	name       string
	resource   func(*client.Client) *client.Resource[R, D]
	validate   func(D) domain.FieldErrors
	fromRecord func(R) D
	columns    []string
	row        func(R) []string
	// flags registers the draft flags on cmd and returns a func that copies
	// the flags the user set onto a draft.
	flags func(cmd *cobra.Command) func(d *D) error
}

func newResourceCmd[R domain.Record, D domain.Draft](c *cli, def resourceDef[R, D]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   def.name,
		Short: fmt.Sprintf("List, show, create, update and delete %s records", def.name),
	}
	cmd.AddCommand(
		listCmd(c, def),
		getCmd(c, def),
		createCmd(c, def),
		updateCmd(c, def),
		deleteCmd(c, def),
	)
	return cmd
}

func listCmd[R domain.Record, D domain.Draft](c *cli, def resourceDef[R, D]) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s records, one page at a time", def.name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if page < 1 {
				return fmt.Errorf("--page must be at least 1, got %d", page)
			}
			result, err := def.resource(c.client).List(cmd.Context(), page)
			if err != nil {
				return err
			}
			if p := result.Pagination; p.Known() && page > p.LastPage && p.Total > 0 {
				return fmt.Errorf("page %d is past the last page (%d)", page, p.LastPage)
			}
			c.printResult(pageJSON[R]{Data: result.Records, Pagination: result.Pagination}, func() {
				w := c.table()
				fmt.Fprintln(w, strings.Join(def.columns, "\t"))
				for _, r := range result.Records {
					fmt.Fprintln(w, strings.Join(def.row(r), "\t"))
				}
				w.Flush() //nolint:errcheck
				c.printFooter(page, result.Pagination)
			})
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func getCmd[R domain.Record, D domain.Draft](c *cli, def resourceDef[R, D]) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: fmt.Sprintf("Show one %s", def.name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := def.resource(c.client).Get(cmd.Context(), domain.ID(args[0]))
			if err != nil {
				return err
			}
			printRecord(c, def, rec)
			return nil
		},
	}
}

func createCmd[R domain.Record, D domain.Draft](c *cli, def resourceDef[R, D]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: fmt.Sprintf("Create a %s", def.name),
		Args:  cobra.NoArgs,
	}
	apply := def.flags(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		var draft D
		if err := apply(&draft); err != nil {
			return err
		}
		if err := c.checkDraft(def.validate(draft)); err != nil {
			return err
		}
		rec, err := def.resource(c.client).Create(cmd.Context(), draft)
		if err != nil {
			return c.saveFailed(def.name, err)
		}
		printRecord(c, def, rec)
		return nil
	}
	return cmd
}

func updateCmd[R domain.Record, D domain.Draft](c *cli, def resourceDef[R, D]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: fmt.Sprintf("Update a %s; unset flags keep their current value", def.name),
		Args:  cobra.ExactArgs(1),
	}
	apply := def.flags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		id := domain.ID(args[0])
		res := def.resource(c.client)
		current, err := res.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		draft := def.fromRecord(current)
		if err := apply(&draft); err != nil {
			return err
		}
		if err := c.checkDraft(def.validate(draft)); err != nil {
			return err
		}
		rec, err := res.Update(cmd.Context(), id, draft)
		if err != nil {
			return c.saveFailed(def.name, err)
		}
		printRecord(c, def, rec)
		return nil
	}
	return cmd
}

func deleteCmd[R domain.Record, D domain.Draft](c *cli, def resourceDef[R, D]) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: fmt.Sprintf("Delete a %s", def.name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.ID(args[0])
			if err := def.resource(c.client).Delete(cmd.Context(), id); err != nil {
				return err
			}
			c.printResult(map[string]any{"deleted": true, "id": id}, func() {
				fmt.Fprintf(c.out, "Deleted %s %s\n", def.name, id)
			})
			return nil
		},
	}
}

// printRecord writes one record as JSON or as aligned "column: value" lines.
func printRecord[R domain.Record, D domain.Draft](c *cli, def resourceDef[R, D], rec R) {
	c.printResult(rec, func() {
		w := c.table()
		for i, v := range def.row(rec) {
			fmt.Fprintf(w, "%s:\t%s\n", def.columns[i], v)
		}
		w.Flush() //nolint:errcheck
	})
}

// checkDraft rejects an invalid draft before it reaches the network.
func (c *cli) checkDraft(fe domain.FieldErrors) error {
	if fe.OK() {
		return nil
	}
	c.printFieldErrors(fe)
	return fe
}

// saveFailed reports a rejected create or update, listing server-side
// field errors when the API sent them.
func (c *cli) saveFailed(name string, err error) error {
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) && len(httpErr.Fields) > 0 {
		c.printFieldErrors(httpErr.Fields)
	}
	return fmt.Errorf("%s not saved: %w", name, err)
}

// -- companies --

func newCompanyCmd(c *cli) *cobra.Command {
	return newResourceCmd(c, resourceDef[domain.Company, domain.CompanyDraft]{
		name:       "company",
		resource:   (*client.Client).Companies,
		validate:   domain.ValidateCompany,
		fromRecord: domain.CompanyDraftFrom,
		columns:    []string{"ID", "NAME", "EMAIL", "WEBSITE", "LOGO"},
		row: func(co domain.Company) []string {
			return []string{co.ID.String(), co.Name, co.Email, co.Website, co.LogoURL(c.client.Origin())}
		},
		flags: companyFlags,
	})
}

func companyFlags(cmd *cobra.Command) func(*domain.CompanyDraft) error {
	var name, email, website, logo string
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "company name")
	f.StringVar(&email, "email", "", "contact email")
	f.StringVar(&website, "website", "", "website URL")
	f.StringVar(&logo, "logo", "", "path to a png, jpeg or gif logo, at least 100x100")
	return func(d *domain.CompanyDraft) error {
		if f.Changed("name") {
			d.Name = name
		}
		if f.Changed("email") {
			d.Email = email
		}
		if f.Changed("website") {
			d.Website = website
		}
		if logo != "" {
			file, err := domain.ReadFile(logo)
			if err != nil {
				return err
			}
			d.Logo = file
		}
		return nil
	}
}

// -- employees --

func newEmployeeCmd(c *cli) *cobra.Command {
	return newResourceCmd(c, resourceDef[domain.Employee, domain.EmployeeDraft]{
		name:       "employee",
		resource:   (*client.Client).Employees,
		validate:   domain.ValidateEmployee,
		fromRecord: domain.EmployeeDraftFrom,
		columns:    []string{"ID", "NAME", "EMAIL", "PHONE", "COMPANY"},
		row: func(e domain.Employee) []string {
			return []string{e.ID.String(), e.FullName(), e.Email, e.Phone, e.CompanyName()}
		},
		flags: employeeFlags,
	})
}

func employeeFlags(cmd *cobra.Command) func(*domain.EmployeeDraft) error {
	var first, last, email, phone, companyID string
	f := cmd.Flags()
	f.StringVar(&first, "first-name", "", "first name")
	f.StringVar(&last, "last-name", "", "last name")
	f.StringVar(&email, "email", "", "email")
	f.StringVar(&phone, "phone", "", "phone number")
	f.StringVar(&companyID, "company-id", "", `company ID; "" removes the company`)
	return func(d *domain.EmployeeDraft) error {
		if f.Changed("first-name") {
			d.FirstName = first
		}
		if f.Changed("last-name") {
			d.LastName = last
		}
		if f.Changed("email") {
			d.Email = email
		}
		if f.Changed("phone") {
			d.Phone = phone
		}
		if f.Changed("company-id") {
			d.CompanyID = domain.ID(companyID)
			d.ClearCompany = companyID == ""
		}
		return nil
	}
}
