package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BradenHooton/roster/internal/models"
	"github.com/BradenHooton/roster/internal/repositories"
	"github.com/BradenHooton/roster/internal/services"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type importOptions struct {
	owner              models.Owner
	yes                bool
	cancelOnDuplicates bool
	dryRun             bool
	jsonOutput         bool
	maxRows            int
}

// importer is the part of the import service the command drives
type importer interface {
	Import(ctx context.Context, owner models.Owner, fileName string, r io.Reader) (*services.ImportResult, error)
	Check(ctx context.Context, owner models.Owner, fileName string, r io.Reader) (*models.ImportPreview, error)
	Confirm(ctx context.Context, owner models.Owner, sessionID string) (*models.ImportSummary, error)
	Cancel(ctx context.Context, owner models.Owner, sessionID string) error
}

func newImportCmd(global *globalOptions) *cobra.Command {
	var opts importOptions
	var ownerID string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import employees from an .xlsx or .csv file",
		Long: `Import employees from a spreadsheet into an owner's roster.

When the file contains emails that already exist, the import stops and asks
whether to continue with the new records only. Use --yes to continue without
asking or --cancel-on-duplicates to stop. --dry-run reports what would happen
without writing anything.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(strings.TrimSpace(ownerID))
			if err != nil {
				return fmt.Errorf("invalid --owner: %w", err)
			}
			opts.owner.ID = id.String()
			if opts.yes && opts.cancelOnDuplicates {
				return fmt.Errorf("--yes and --cancel-on-duplicates cannot be combined")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := global.logger(cmd.ErrOrStderr())

			cat, err := global.catalog()
			if err != nil {
				return err
			}
			db, err := global.openDB(ctx, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			audit := services.NewAuditService(repositories.NewAuditLogRepository(db), logger)
			svc := services.NewImportService(
				repositories.NewEmployeeRepository(db),
				repositories.NewImportSessionRepository(db),
				cat,
				audit,
				nil,
				nil,
				logger,
				services.ImportOptions{MaxRows: opts.maxRows, SessionTTL: 30 * time.Minute},
			)
			return runImport(cmd, svc, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner account UUID (required)")
	cmd.Flags().StringVar(&opts.owner.Email, "email", "", "Owner email, recorded with the import")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Continue with new records when duplicates are found")
	cmd.Flags().BoolVar(&opts.cancelOnDuplicates, "cancel-on-duplicates", false, "Cancel the import when duplicates are found")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report the outcome without writing")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the result as JSON")
	cmd.Flags().IntVar(&opts.maxRows, "max-rows", 5000, "Maximum data rows accepted from the file")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func runImport(cmd *cobra.Command, svc importer, path string, opts importOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	name := filepath.Base(path)

	if opts.dryRun {
		preview, err := svc.Check(ctx, opts.owner, name, f)
		if err != nil {
			return err
		}
		return printResult(out, opts.jsonOutput, preview, func() { printPreview(out, preview) })
	}

	result, err := svc.Import(ctx, opts.owner, name, f)
	if err != nil {
		return err
	}
	if result.Summary != nil {
		return printResult(out, opts.jsonOutput, result.Summary, func() { printSummary(out, result.Summary) })
	}

	preview := result.Preview
	if !opts.jsonOutput {
		printPreview(out, preview)
	}

	proceed := opts.yes
	if !opts.yes && !opts.cancelOnDuplicates {
		proceed, err = ask(cmd.InOrStdin(), out, fmt.Sprintf("Continue with the %d new records only? [y/N] ", preview.NewCount))
		if err != nil {
			return err
		}
	}

	if !proceed {
		if err := svc.Cancel(ctx, opts.owner, preview.SessionID); err != nil {
			return err
		}
		if opts.jsonOutput {
			return printResult(out, true, preview, nil)
		}
		fmt.Fprintln(out, "Import cancelled; nothing was written.")
		return nil
	}

	summary, err := svc.Confirm(ctx, opts.owner, preview.SessionID)
	if err != nil {
		return err
	}
	return printResult(out, opts.jsonOutput, summary, func() { printSummary(out, summary) })
}

func ask(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func printResult(out io.Writer, asJSON bool, v any, text func()) error {
	if !asJSON {
		text()
		return nil
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPreview(out io.Writer, p *models.ImportPreview) {
	fmt.Fprintf(out, "%s: %d rows, %d new, %d already exist\n", p.FileName, p.Total, p.NewCount, p.DuplicateCount)
	for _, email := range p.DuplicateEmails {
		fmt.Fprintf(out, "  exists: %s\n", email)
	}
	printIssues(out, p.Rejected, p.Warnings)
}

func printSummary(out io.Writer, s *models.ImportSummary) {
	fmt.Fprintf(out, "%s: %d added, %d skipped as duplicates, %d failed, %d not attempted\n",
		s.FileName, s.Succeeded, s.SkippedDuplicates, s.Failed, s.NotAttempted)
	if s.FailureReason != "" {
		fmt.Fprintf(out, "  stopped at %s\n", s.FailureReason)
	}
	printIssues(out, s.Rejected, s.Warnings)
}

func printIssues(out io.Writer, rejected []models.RecordError, warnings []models.ParseWarning) {
	for _, r := range rejected {
		fmt.Fprintf(out, "  rejected: %s\n", r.Error())
	}
	for _, w := range warnings {
		fmt.Fprintf(out, "  warning: row %d: %s\n", w.Row, w.Message)
	}
}

var _ importer = (*services.ImportService)(nil)

