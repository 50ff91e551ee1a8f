package trait

import (
	"errors"
	"fmt"
)

// ComponentError is a fatal, unrecoverable error raised by resolve or
// extract. Ordinary delta/base mismatches never produce a ComponentError;
// they are reported through the ErrorList instead.
type ComponentError struct {
	// Code identifies the error category.
	Code ComponentErrorCode

	// Message is a human-readable description.
	Message string

	// Path identifies the trait being processed, e.g. "Account.debit(J)".
	Path string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// ComponentErrorCode categorizes fatal errors.
type ComponentErrorCode string

const (
	// ErrCodeIllegalMode indicates a trait carries an unknown mode or a
	// mode combination resolve/extract cannot process.
	ErrCodeIllegalMode ComponentErrorCode = "ILLEGAL_MODE"

	// ErrCodeIllegalExtractMode indicates the owner reported an extract
	// mode other than Derivation or Modification.
	ErrCodeIllegalExtractMode ComponentErrorCode = "ILLEGAL_EXTRACT_MODE"

	// ErrCodeCorruptTrait indicates structurally invalid trait data.
	ErrCodeCorruptTrait ComponentErrorCode = "CORRUPT_TRAIT"

	// ErrCodeMissingComponent indicates a required cross-component lookup failed.
	ErrCodeMissingComponent ComponentErrorCode = "MISSING_COMPONENT"
)

// Error implements the error interface.
func (e *ComponentError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path=%s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}

// IsComponentError reports whether err is (or wraps) a *ComponentError.
func IsComponentError(err error) bool {
	var ce *ComponentError
	return errors.As(err, &ce)
}

// NewMissingComponentError reports that the component name, required
// while processing path, could not be loaded.
func NewMissingComponentError(path, name string, err error) *ComponentError {
	ce := newComponentError(ErrCodeMissingComponent, path, "component %s could not be loaded", name)
	ce.Details = map[string]string{"component": name}
	if err != nil {
		ce.Message += ": " + err.Error()
		ce.Err = err
	}
	return ce
}

func newComponentError(code ComponentErrorCode, path, format string, args ...any) *ComponentError {
	return &ComponentError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Path:    path,
	}
}

// VetoError is the rejection returned by Component.Propose when a proposed
// change is illegal or a guard objects to it.
type VetoError struct {
	// Change is the rejected change.
	Change Change

	// Reason is a human-readable explanation.
	Reason string

	// Err is the guard error, if a guard rejected the change.
	Err error
}

// Error implements the error interface.
func (e *VetoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("veto %s: %s: %v", e.Change.Describe(), e.Reason, e.Err)
	}
	return fmt.Sprintf("veto %s: %s", e.Change.Describe(), e.Reason)
}

func (e *VetoError) Unwrap() error {
	return e.Err
}

// IsVeto reports whether err is (or wraps) a *VetoError.
func IsVeto(err error) bool {
	var ve *VetoError
	return errors.As(err, &ve)
}

// ErrBehaviorNotFound is returned when a change targets a signature the
// component does not hold.
var ErrBehaviorNotFound = errors.New("behavior not found")
