package trait

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Severity orders diagnostics from informational to error. Unrecoverable
// conditions are returned as a *ComponentError instead.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// slogLevel maps a severity onto the slog level used when mirroring.
func (s Severity) slogLevel() slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Code identifies a diagnostic.
type Code string

// Resolve diagnostics.
const (
	ResolveUIDChange          Code = "RESOLVE_UIDCHANGE"
	ResolveForceResolve       Code = "RESOLVE_FORCERESOLVE"
	ResolveBehaviorNameChange Code = "RESOLVE_BEHAVIORNAMECHANGE"
	ResolveReturnTypeChange   Code = "RESOLVE_RETURNTYPECHANGE"
	ResolveParamTypeChange    Code = "RESOLVE_PARAMTYPECHANGE"
	ResolveParamNameChange    Code = "RESOLVE_PARAMNAMECHANGE"
	ResolveParamDirChange     Code = "RESOLVE_PARAMDIRCHANGE"
	ResolveExceptTypeChange   Code = "RESOLVE_EXCEPTTYPECHANGE"
	ResolveParameterDiscarded Code = "RESOLVE_PARAMETERDISCARDED"
	ResolveExceptionDiscarded Code = "RESOLVE_EXCEPTIONDISCARDED"
	ResolveAccessClamped      Code = "RESOLVE_ACCESSCLAMPED"
	ResolveBehaviorDiscarded  Code = "RESOLVE_BEHAVIORDISCARDED"
	ResolveImplLanguageChange Code = "RESOLVE_IMPLLANGUAGECHANGE"
	ResolveSuperMismatch      Code = "RESOLVE_SUPERMISMATCH"
)

// Extract diagnostics.
const (
	ExtractUIDChange          Code = "EXTRACT_UIDCHANGE"
	ExtractBehaviorNameChange Code = "EXTRACT_BEHAVIORNAMECHANGE"
	ExtractReturnTypeChange   Code = "EXTRACT_RETURNTYPECHANGE"
	ExtractParamTypeChange    Code = "EXTRACT_PARAMTYPECHANGE"
	ExtractParamNameChange    Code = "EXTRACT_PARAMNAMECHANGE"
	ExtractParamDirChange     Code = "EXTRACT_PARAMDIRCHANGE"
	ExtractExceptTypeChange   Code = "EXTRACT_EXCEPTTYPECHANGE"
	ExtractParameterDiscarded Code = "EXTRACT_PARAMETERDISCARDED"
	ExtractExceptionDiscarded Code = "EXTRACT_EXCEPTIONDISCARDED"
)

// pick a resolve or extract flavour of the same diagnostic.
func codeFor(resolve bool, resolveCode, extractCode Code) Code {
	if resolve {
		return resolveCode
	}
	return extractCode
}

// Diagnostic is one entry of an ErrorList.
type Diagnostic struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Params   []string `json:"params,omitempty"`
}

func (d Diagnostic) String() string {
	if len(d.Params) == 0 {
		return fmt.Sprintf("%s %s", d.Severity, d.Code)
	}
	return fmt.Sprintf("%s %s: %s", d.Severity, d.Code, strings.Join(d.Params, ", "))
}

// ErrorList collects diagnostics produced by resolve, extract and the
// finalize passes. A nil *ErrorList is valid and discards everything.
type ErrorList struct {
	items  []Diagnostic
	logger *slog.Logger
}

// ErrorListOption configures an ErrorList.
type ErrorListOption func(*ErrorList)

// WithLogger mirrors every diagnostic added to the list onto logger.
func WithLogger(logger *slog.Logger) ErrorListOption {
	return func(l *ErrorList) {
		l.logger = logger
	}
}

// NewErrorList creates an empty ErrorList.
func NewErrorList(opts ...ErrorListOption) *ErrorList {
	l := &ErrorList{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add records a diagnostic.
func (l *ErrorList) Add(code Code, severity Severity, params ...string) {
	if l == nil {
		return
	}
	l.items = append(l.items, Diagnostic{Code: code, Severity: severity, Params: params})
	if l.logger != nil {
		l.logger.Log(context.Background(), severity.slogLevel(), "trait diagnostic",
			"code", string(code),
			"params", params,
		)
	}
}

// Warn records a diagnostic at warning severity.
func (l *ErrorList) Warn(code Code, params ...string) {
	l.Add(code, SeverityWarning, params...)
}

// Items returns the recorded diagnostics in insertion order.
func (l *ErrorList) Items() []Diagnostic {
	if l == nil {
		return nil
	}
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of recorded diagnostics.
func (l *ErrorList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Has reports whether a diagnostic with the given code was recorded.
func (l *ErrorList) Has(code Code) bool {
	if l == nil {
		return false
	}
	for _, d := range l.items {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Codes returns the codes of all recorded diagnostics in insertion order.
func (l *ErrorList) Codes() []Code {
	if l == nil {
		return nil
	}
	codes := make([]Code, len(l.items))
	for i, d := range l.items {
		codes[i] = d.Code
	}
	return codes
}

// MaxSeverity returns the highest recorded severity, or SeverityInfo when
// the list is empty.
func (l *ErrorList) MaxSeverity() Severity {
	max := SeverityInfo
	if l == nil {
		return max
	}
	for _, d := range l.items {
		if d.Severity > max {
			max = d.Severity
		}
	}
	return max
}
