package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vnykmshr/prioflow/pkg/scheduling/scheduler"
)

func newCronCmd() *cobra.Command {
	var count int
	var tz string

	cmd := &cobra.Command{
		Use:   "cron <expression>",
		Short: "Validate a cron expression and preview its next runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := cfg.Scheduler.LoadLocation()
			if tz != "" {
				var err error
				if loc, err = time.LoadLocation(tz); err != nil {
					return fmt.Errorf("time zone %q: %w", tz, err)
				}
			}

			desc, err := scheduler.DescribeCron(args[0], time.Now(), loc, count)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", desc.Description, desc.TimeZone)
			for _, t := range desc.NextRuns {
				fmt.Fprintf(out, "  %s  %s\n", t.Format(time.RFC3339), humanize.Time(t))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "c", 5, "Number of upcoming runs to show")
	cmd.Flags().StringVar(&tz, "tz", "", "IANA time zone (default from config)")

	return cmd
}
