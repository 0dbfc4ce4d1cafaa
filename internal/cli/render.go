package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/Veraticus/storefront-picks/internal/engine"
	"github.com/Veraticus/storefront-picks/internal/model"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// ValidateOutput rejects unknown output formats.
func ValidateOutput(format string) error {
	switch format {
	case OutputTable, OutputJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want %s or %s)", format, OutputTable, OutputJSON)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}
	return nil
}

// RenderCandidates prints recommendations as a table. With explain set the
// tier and score of each candidate are included.
func RenderCandidates(w io.Writer, candidates []engine.Candidate, explain bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if explain {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			HeaderStyle.Render("#"),
			HeaderStyle.Render("ID"),
			HeaderStyle.Render("Name"),
			HeaderStyle.Render("Category"),
			HeaderStyle.Render("Tier"),
			HeaderStyle.Render("Score"))
	} else {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			HeaderStyle.Render("#"),
			HeaderStyle.Render("ID"),
			HeaderStyle.Render("Name"),
			HeaderStyle.Render("Category"),
			HeaderStyle.Render("Price"))
	}

	for i, c := range candidates {
		p := c.Product
		if explain {
			score := SubtleStyle.Render("-")
			if c.Score != nil {
				score = strconv.FormatFloat(*c.Score, 'f', -1, 64)
			}
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
				i+1, p.ID, p.Name, categoryLabel(&p), TierStyle.Render(string(c.Tier)), score)
			continue
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%.2f\n", i+1, p.ID, p.Name, categoryLabel(&p), p.Price)
	}

	return tw.Flush()
}

// RenderProducts prints catalog products as a table.
func RenderProducts(w io.Writer, products []model.Product) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("ID"),
		HeaderStyle.Render("Name"),
		HeaderStyle.Render("Category"),
		HeaderStyle.Render("Price"),
		HeaderStyle.Render("Qty"),
		HeaderStyle.Render("Status"))

	for i := range products {
		p := &products[i]
		status := SuccessStyle.Render("available")
		switch {
		case p.Archival:
			status = SubtleStyle.Render("archived")
		case p.Quantity <= 0:
			status = WarningStyle.Render("sold out")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%d\t%s\n",
			p.ID, p.Name, categoryLabel(p), p.Price, p.Quantity, status)
	}

	return tw.Flush()
}

func categoryLabel(p *model.Product) string {
	if name := p.CategoryName(); name != "" {
		return name
	}
	return SubtleStyle.Render("(none)")
}
