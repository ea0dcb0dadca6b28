package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one stale-payment sweep",
		Long: `Re-verify one batch of pending payments older than worker.pending_after,
settling or failing each according to the gateway.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			backend, err := rootOpts.connect(cmd.Context(), f)
			if err != nil {
				return err
			}
			defer backend.Close()

			summary := backend.Sweeper.RunOnce(cmd.Context())

			var text strings.Builder
			fmt.Fprintf(&text, "✓ Swept %d payment(s), %d error(s)", summary.Checked, summary.Errors)
			for _, outcome := range slices.Sorted(maps.Keys(summary.Outcomes)) {
				fmt.Fprintf(&text, "\n  %-20s %d", outcome, summary.Outcomes[outcome])
			}
			if err := f.Success(summary, text.String()); err != nil {
				return err
			}
			if summary.Errors > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("sweep finished with %d error(s)", summary.Errors))
			}
			return nil
		},
	}
}
