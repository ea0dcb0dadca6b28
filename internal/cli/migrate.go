package cli

import (
	"github.com/spf13/cobra"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the ledger schema",
		Long: `Apply the embedded ledger schema. Every statement is idempotent, so
running it against an up-to-date database changes nothing.`,
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

			if err := backend.Migrator.Migrate(cmd.Context()); err != nil {
				return WrapExitError(ExitCommandError, "migration failed", err)
			}
			return f.Success(map[string]string{"schema": "up to date"}, "✓ Schema up to date")
		},
	}
}
