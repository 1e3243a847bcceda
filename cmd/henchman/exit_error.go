// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

// ExitError carries the process exit code out of a RunE handler. The error
// has already been shown to the user when it is returned.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the rendered error.
func (e *ExitError) Unwrap() error { return e.Err }
