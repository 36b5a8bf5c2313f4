// Package herrors defines the error taxonomy shared by every hackctl
// subsystem, so cmd/hackctl can map a failure to the right exit code and
// user-visible message regardless of which package produced it.
package herrors

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Code identifies which class of error occurred, independent of the
// underlying cause.
type Code int

const (
	// Unknown is the zero value; never returned deliberately.
	Unknown Code = iota
	ConfigError
	MalformedManifest
	UnresolvedInheritance
	UnknownFeature
	NoMatchingPackage
	BadPartition
	ToolchainUnavailable
	MetadataFailure
	IoError
	ChildNonZero
	Cancelled
)

func (c Code) String() string {
	switch c {
	case ConfigError:
		return "ConfigError"
	case MalformedManifest:
		return "MalformedManifest"
	case UnresolvedInheritance:
		return "UnresolvedInheritance"
	case UnknownFeature:
		return "UnknownFeature"
	case NoMatchingPackage:
		return "NoMatchingPackage"
	case BadPartition:
		return "BadPartition"
	case ToolchainUnavailable:
		return "ToolchainUnavailable"
	case MetadataFailure:
		return "MetadataFailure"
	case IoError:
		return "IoError"
	case ChildNonZero:
		return "ChildNonZero"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// StatusError pairs a Code with the underlying cause and, where relevant,
// a suggested corrective flag (e.g. "--ignore-unknown-features") so the
// CLI layer can print it without re-deriving context it no longer has.
type StatusError struct {
	Code      Code
	Err       error
	Hint      string // suggested corrective flag or action, may be empty
	Offending string // offending command line or manifest path, may be empty
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Code, e.Err)
	if e.Offending != "" {
		msg += fmt.Sprintf(" (%s)", e.Offending)
	}
	if e.Hint != "" {
		msg += fmt.Sprintf("; try %s", e.Hint)
	}
	return msg
}

func (e *StatusError) Unwrap() error { return e.Err }

// New wraps err with code, with no hint or offending-command context.
func New(code Code, err error) *StatusError {
	return &StatusError{Code: code, Err: err}
}

// Newf is like New but builds the underlying error from a format string,
// supporting %w to wrap an existing error as xerrors.Errorf does.
func Newf(code Code, format string, args ...interface{}) *StatusError {
	return &StatusError{Code: code, Err: xerrors.Errorf(format, args...)}
}

// WithHint returns a copy of e with Hint set.
func (e *StatusError) WithHint(hint string) *StatusError {
	c := *e
	c.Hint = hint
	return &c
}

// WithOffending returns a copy of e with Offending set.
func (e *StatusError) WithOffending(offending string) *StatusError {
	c := *e
	c.Offending = offending
	return &c
}

// ExitCode returns the process exit code hackctl should use for err. 0 is
// never returned here; the caller only invokes ExitCode once it already
// knows err != nil.
func ExitCode(err error) int {
	return 1
}
