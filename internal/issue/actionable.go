// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

// verboseHint closes the short form of errors that carry a guide.
const verboseHint = "Run again with --verbose for troubleshooting steps."

type (
	// ActionableError is a user-facing error: what henchman was doing, what it
	// was doing it to, and what the user can try next.
	//
	//	return issue.NewErrorContext().
	//		WithOperation("read module metadata").
	//		WithResource("./metadata.json").
	//		WithSuggestion("Run henchman from the module root").
	//		WithGuide(issue.MetadataNotFoundId).
	//		Wrap(err).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase, e.g. "read module metadata".
		Operation string
		// Resource is the path or task involved, if any.
		Resource string
		// Suggestions are printed as a bullet list under the message.
		Suggestions []string
		// Guide selects the troubleshooting guide shown in verbose mode.
		Guide Id
		// Cause is the wrapped error.
		Cause error
	}

	// ErrorContext builds an ActionableError step by step.
	ErrorContext struct {
		draft ActionableError
	}
)

// NewErrorContext starts an empty builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

func (e *ActionableError) Error() string {
	parts := []string{"failed to " + e.Operation}
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the error for the terminal. Suggestions follow the message
// as bullets. Verbose output adds the numbered cause chain; otherwise errors
// with a guide end with a hint to rerun verbosely.
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		b.WriteString("\n")
		for _, s := range e.Suggestions {
			b.WriteString("\n  • " + s)
		}
	}

	switch {
	case verbose && e.Cause != nil:
		b.WriteString("\n\nError chain:")
		for i, err := 1, e.Cause; err != nil; i, err = i+1, errors.Unwrap(err) {
			fmt.Fprintf(&b, "\n  %d. %s", i, err)
		}
	case !verbose && e.Guide != NoGuide:
		b.WriteString("\n\n" + verboseHint)
	}

	return b.String()
}

// WithOperation sets the failed operation. It is required.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.draft.Operation = op
	return c
}

// WithResource sets the path or task involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.draft.Resource = res
	return c
}

// WithSuggestion appends a hint. Call it once per hint.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.draft.Suggestions = append(c.draft.Suggestions, sug)
	return c
}

// WithGuide attaches a troubleshooting guide.
func (c *ErrorContext) WithGuide(id Id) *ErrorContext {
	c.draft.Guide = id
	return c
}

// Wrap sets the underlying cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.draft.Cause = err
	return c
}

// Build returns the error, or nil when no operation was set.
func (c *ErrorContext) Build() *ActionableError {
	if c.draft.Operation == "" {
		return nil
	}
	ae := c.draft
	ae.Suggestions = append([]string(nil), c.draft.Suggestions...)
	return &ae
}

// BuildError is Build typed as error, so a missing operation yields a nil
// interface rather than a typed nil.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}
