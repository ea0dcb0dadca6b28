package cli

import (
	"github.com/DanielPopoola/jmw-payments/internal/application"
)

// reportError prints a ledger rejection and maps it to an exit code. Errors
// the ledger did not classify mean the command could not run at all.
func reportError(f *OutputFormatter, action string, err error) error {
	svcErr, ok := application.IsServiceError(err)
	if !ok || svcErr.Code == application.ErrCodeInternal {
		return WrapExitError(ExitCommandError, action+" failed", err)
	}

	var details any
	if len(svcErr.Details) > 0 {
		details = svcErr.Details
	}
	if printErr := f.Error(svcErr.Code, svcErr.Error(), details); printErr != nil {
		return printErr
	}
	return WrapExitError(ExitFailure, action+" rejected", err)
}
