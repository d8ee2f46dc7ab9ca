package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for recoverable failure modes. These never abort a run on
// their own: callers catch them at the command boundary and degrade (template
// generation, skipped analysis category) instead of failing outright.
var (
	// ErrConnectionUnavailable is returned when no database is reachable.
	// Generation falls back to template mode; the error is never fatal.
	ErrConnectionUnavailable = errors.New("pgrestify: database connection unavailable")

	// ErrMergeDegraded is returned alongside merged output when an existing
	// file could not be decomposed into identity keys and the new artifact
	// was appended opaquely. The written file may contain duplicate objects.
	ErrMergeDegraded = errors.New("pgrestify: existing file not parseable, appended without deduplication")
)

// IsConnectionUnavailableErr returns true if err is or wraps ErrConnectionUnavailable.
func IsConnectionUnavailableErr(err error) bool {
	return errors.Is(err, ErrConnectionUnavailable)
}

// IsMergeDegradedErr returns true if err is or wraps ErrMergeDegraded.
func IsMergeDegradedErr(err error) bool {
	return errors.Is(err, ErrMergeDegraded)
}

// ValidationError reports an invalid table, column, or object identifier.
// It aborts generation for the offending table only; batch runs continue
// with the next table.
type ValidationError struct {
	Field  string // what was being validated: "table", "column", "policy", ...
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// IsValidationErr returns true if err is or wraps a ValidationError.
func IsValidationErr(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ObjectNotFoundError reports that a named-object update referenced an object
// absent from the target file. Known carries the names that were found so the
// user can pick the right one.
type ObjectNotFoundError struct {
	Kind  string // "policy", "index", "trigger", "function"
	Name  string
	Known []string
}

func (e *ObjectNotFoundError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("%s %q not found (file contains no recognizable objects)", e.Kind, e.Name)
	}
	return fmt.Sprintf("%s %q not found, known: %s", e.Kind, e.Name, strings.Join(e.Known, ", "))
}

// IsObjectNotFoundErr returns true if err is or wraps an ObjectNotFoundError.
func IsObjectNotFoundErr(err error) bool {
	var nf *ObjectNotFoundError
	return errors.As(err, &nf)
}

// AnalysisError marks one analysis sub-step that failed while the rest of the
// run succeeded. The runner downgrades it to a warning and omits the affected
// recommendation category.
type AnalysisError struct {
	Step string // "ownership", "performance", "policies", "rls"
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s analysis failed: %v", e.Step, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// IsAnalysisErr returns true if err is or wraps an AnalysisError.
func IsAnalysisErr(err error) bool {
	var ae *AnalysisError
	return errors.As(err, &ae)
}
