package hubscan

import (
	clierrors "github.com/snyk/error-catalog-golang-public/cli"
	"github.com/snyk/error-catalog-golang-public/snyk_errors"
)

const (
	exitCodeFailure = 1
)

// exitCodeError wraps an error with a specific exit code.
type exitCodeError struct {
	err      error
	exitCode int
	detail   string
}

func (e *exitCodeError) Error() string {
	return e.detail
}

func (e *exitCodeError) Unwrap() error {
	return e.err
}

func (e *exitCodeError) ExitCode() int {
	return e.exitCode
}

func newExitCodeError(exitCode int, detail string, cause error) error {
	return &exitCodeError{
		err:      cause,
		exitCode: exitCode,
		detail:   detail,
	}
}

func newSCAFailure(err error) error {
	return clierrors.NewGeneralSCAFailureError(err.Error(), snyk_errors.WithCause(err))
}
