package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/naveenspark/roster/pkg/domain"
)

// printResult outputs a single operation result.
//
// Contract: when --json is active, ONLY the JSON encoding of data is written
// to stdout. textFn is called only in text mode.
func (c *cli) printResult(data any, textFn func()) {
	if c.jsonOutput {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(data) //nolint:errcheck // stdout write failures have nowhere to go
		return
	}
	textFn()
}

// table creates an aligned table writer for stdout.
// Remember to call Flush() when done writing.
func (c *cli) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
}

// pageJSON is the --json shape of a listed page.
type pageJSON[T any] struct {
	Data       []T               `json:"data"`
	Pagination domain.Pagination `json:"pagination"`
}

func (c *cli) printFooter(page int, p domain.Pagination) {
	if !p.Known() {
		return
	}
	if p.Total == 0 {
		fmt.Fprintln(c.out, "No results")
		return
	}
	fmt.Fprintf(c.out, "\nShowing %d to %d of %d results (page %d of %d)\n", p.From, p.To, p.Total, page, p.LastPage)
}

// printFieldErrors writes validation failures to stderr in field order.
func (c *cli) printFieldErrors(fe domain.FieldErrors) {
	for _, k := range fe.Keys() {
		fmt.Fprintf(c.errOut, "  %s: %s\n", k, fe[k])
	}
}
