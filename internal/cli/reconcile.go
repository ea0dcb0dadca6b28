package cli

import (
	"fmt"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/spf13/cobra"
)

type reconcileOutput struct {
	Reference  string `json:"reference"`
	Flow       string `json:"flow"`
	Outcome    string `json:"outcome"`
	Message    string `json:"message,omitempty"`
	VerifiedAt string `json:"verified_at,omitempty"`
}

func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <reference>",
		Short: "Verify a reference with the gateway and settle it",
		Long: `Verify a reference with Paystack and apply the result to the ledger,
exactly as a client-initiated verification would. Running it twice for
a settled reference reports ALREADY_PROCESSED and changes nothing.

Exits 1 when the reference did not settle.

Example:
  ledgerctl reconcile JMW-PAY-A1B2C3D4`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return reconcileReference(rootOpts, args[0], cmd)
		},
	}
}

func reconcileReference(opts *RootOptions, reference string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	backend, err := opts.connect(cmd.Context(), f)
	if err != nil {
		return err
	}
	defer backend.Close()

	f.VerboseLog("reconciling %s", reference)
	result, err := backend.Reconciler.Reconcile(cmd.Context(), reference, application.ClientClaim())
	if err != nil {
		return WrapExitError(ExitCommandError, "ledger unavailable", err)
	}

	out := reconcileOutput{
		Reference: result.Reference,
		Flow:      result.Flow.String(),
		Outcome:   string(result.Outcome),
		Message:   result.Message,
	}
	if result.VerifiedAt != nil {
		out.VerifiedAt = result.VerifiedAt.Format(time.RFC3339)
	}

	if !result.Settled() {
		if err := f.Error(out.Outcome, out.Message, out); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", reference, out.Outcome))
	}

	text := fmt.Sprintf("✓ %s %s (%s)", out.Reference, out.Outcome, out.Flow)
	if out.VerifiedAt != "" {
		text += ", verified at " + out.VerifiedAt
	}
	return f.Success(out, text)
}
