package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/BradenHooton/roster/internal/catalog"
	"github.com/BradenHooton/roster/internal/filter"
	"github.com/BradenHooton/roster/internal/models"
	"github.com/BradenHooton/roster/internal/normalize"
	"github.com/BradenHooton/roster/internal/spreadsheet"
	"github.com/spf13/cobra"
)

func newFilterCmd(global *globalOptions) *cobra.Command {
	var rawRules []string
	var maxRows int

	cmd := &cobra.Command{
		Use:   "filter <file>",
		Short: "Filter the employees in a spreadsheet without a database",
		Long: `Read a spreadsheet, normalize its rows and print those matching every rule.

Rules take the form field=value. Date fields accept a range as
field=start..end; a start date alone matches that day only.`,
		Example: `  rosterctl filter staff.xlsx --rule department=engineering --rule date_of_hire=2023-01-01..2023-12-31`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := parseRules(rawRules)
			if err != nil {
				return err
			}
			cat, err := global.catalog()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			records, err := readRecords(filepath.Base(args[0]), f, cat, maxRows)
			if err != nil {
				return err
			}

			matched := filter.Apply(records, rules, filter.Definitions(cat, records))
			return printEmployees(cmd.OutOrStdout(), matched, len(records))
		},
	}

	cmd.Flags().StringArrayVar(&rawRules, "rule", nil, "Filter rule field=value or field=start..end (repeatable)")
	cmd.Flags().IntVar(&maxRows, "max-rows", 5000, "Maximum data rows read from the file")
	return cmd
}

// parseRules turns field=value arguments into filter rules. A value
// containing ".." is split into a range.
func parseRules(raw []string) ([]models.FilterRule, error) {
	rules := make([]models.FilterRule, 0, len(raw))
	for i, r := range raw {
		field, value, ok := strings.Cut(r, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid rule %q: expected field=value", r)
		}
		rule := models.FilterRule{ID: strconv.Itoa(i + 1), Field: field, Value: strings.TrimSpace(value)}
		if start, end, isRange := strings.Cut(value, ".."); isRange {
			rule.Value = strings.TrimSpace(start)
			rule.ValueEnd = strings.TrimSpace(end)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// readRecords normalizes every row of a spreadsheet. Rows that fail
// validation are kept; filtering does not need a valid email.
func readRecords(name string, r io.Reader, cat *catalog.Catalog, maxRows int) ([]*models.Employee, error) {
	parsed, err := spreadsheet.Read(name, r, maxRows)
	if err != nil {
		return nil, err
	}
	records := make([]*models.Employee, 0, len(parsed.Records))
	for _, raw := range parsed.Records {
		emp, _ := normalize.Record(raw, cat)
		records = append(records, emp)
	}
	return records, nil
}

func printEmployees(out io.Writer, records []*models.Employee, total int) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEMAIL\tDEPARTMENT\tJOB TITLE")
	for _, e := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.FullName, e.Email, deref(e.Department), deref(e.JobTitle))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d of %d records match\n", len(records), total)
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
