package main

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"library-backend/internal/domains/borrowing"
	"library-backend/pkg/logger"
)

func newSweepCmd() *cobra.Command {
	var every string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Flag borrowings past their due date as OVERDUE",
		Long: "Runs the overdue sweep once. With --every the sweep repeats on a " +
			"cron schedule until interrupted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			c, err := openContainer(ctx, configFrom(ctx))
			if err != nil {
				return err
			}
			defer closeContainer(c)

			if every == "" {
				n, err := runSweep(commandContext(ctx), c.BorrowingService)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d borrowings flagged overdue\n", n)
				return err
			}
			return sweepOnSchedule(ctx, c.BorrowingService, every)
		},
	}
	cmd.Flags().StringVar(&every, "every", "", "cron expression, e.g. \"*/15 * * * *\"")
	return cmd
}

func runSweep(ctx context.Context, svc borrowing.Service) (int, error) {
	n, err := svc.SweepOverdue(ctx)
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Info().Int("flagged", n).Msg("overdue sweep finished")
	return n, nil
}

// sweepOnSchedule blocks until ctx is cancelled. Overlapping runs are
// skipped rather than queued.
func sweepOnSchedule(ctx context.Context, svc borrowing.Service, spec string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	id, err := c.AddFunc(spec, func() {
		jobCtx := commandContext(ctx)
		if _, err := runSweep(jobCtx, svc); err != nil {
			logger.FromContext(jobCtx).Error().Err(err).Msg("overdue sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid --every %q: %w", spec, err)
	}

	c.Start()
	logger.FromContext(ctx).Info().
		Str("schedule", spec).
		Time("next", c.Entry(id).Next).
		Msg("overdue sweep scheduled")

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
