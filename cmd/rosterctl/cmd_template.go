package main

import (
	"fmt"
	"os"

	"github.com/BradenHooton/roster/internal/spreadsheet"
	"github.com/spf13/cobra"
)

func newTemplateCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "template <out.xlsx>",
		Short: "Write a blank import workbook with one column per field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := global.catalog()
			if err != nil {
				return err
			}

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", args[0], err)
			}
			if err := spreadsheet.WriteTemplate(f, cat); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Template written to %s\n", args[0])
			return nil
		},
	}
}
