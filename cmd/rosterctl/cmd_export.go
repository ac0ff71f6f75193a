package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/BradenHooton/roster/internal/repositories"
	"github.com/BradenHooton/roster/internal/services"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newExportCmd(global *globalOptions) *cobra.Command {
	var ownerID, format, outPath string
	var rawRules []string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an owner's employees as xlsx, csv or pdf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := uuid.Parse(strings.TrimSpace(ownerID))
			if err != nil {
				return fmt.Errorf("invalid --owner: %w", err)
			}
			rules, err := parseRules(rawRules)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = "employees." + format
			}

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
			svc := services.NewEmployeeService(repositories.NewEmployeeRepository(db), cat, audit, nil, logger)

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outPath, err)
			}
			if err := svc.Export(ctx, id.String(), format, rules, f); err != nil {
				f.Close()
				_ = os.Remove(outPath)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner account UUID (required)")
	cmd.Flags().StringVar(&format, "format", services.ExportXLSX, "Output format: xlsx, csv or pdf")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default: employees.<format>)")
	cmd.Flags().StringArrayVar(&rawRules, "rule", nil, "Filter rule field=value or field=start..end (repeatable)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
