package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"library-backend/pkg/logger"
)

func newReportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the overdue workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd.Context())

			c, err := openContainer(ctx, configFrom(ctx))
			if err != nil {
				return err
			}
			defer closeContainer(c)

			file, err := c.BorrowingService.OverdueReport(ctx)
			if err != nil {
				return err
			}
			defer file.Close()

			if err := file.SaveAs(out); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			logger.FromContext(ctx).Info().Str("path", out).Msg("overdue report written")
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "overdue.xlsx", "output path")
	return cmd
}
