package preprocess

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks invalid stage parameters.
	ErrConfiguration = errors.New("invalid stage configuration")
	// ErrMissingColumn is returned when a stage targets a column the corpus does not have.
	ErrMissingColumn = errors.New("missing column")
)

// ConfigurationError reports invalid stage parameters. It is raised when a stage is built,
// never corrected silently.
type ConfigurationError struct {
	Stage  string
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrConfiguration) match.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// DetectionError is a row-level language identification failure.
type DetectionError struct {
	Row int
	Err error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("language detection failed on row %d: %v", e.Row, e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }

// StageExecutionError aborts a pipeline run. It names the failing stage and, where known,
// the row and column involved. Row is -1 when the failure is not tied to a row.
type StageExecutionError struct {
	Stage    string
	Position int
	Row      int
	Column   string
	Err      error
}

func (e *StageExecutionError) Error() string {
	msg := fmt.Sprintf("stage %d (%s) failed", e.Position, e.Stage)
	if e.Column != "" {
		msg += fmt.Sprintf(" on column %q", e.Column)
	}
	if e.Row >= 0 {
		msg += fmt.Sprintf(" at row %d", e.Row)
	}
	return msg + ": " + e.Err.Error()
}

func (e *StageExecutionError) Unwrap() error { return e.Err }

// columnError is returned by stages and enriched into a StageExecutionError by the engine.
type columnError struct {
	row    int
	column string
	err    error
}

func (e *columnError) Error() string {
	if e.row >= 0 {
		return fmt.Sprintf("column %q row %d: %v", e.column, e.row, e.err)
	}
	return fmt.Sprintf("column %q: %v", e.column, e.err)
}

func (e *columnError) Unwrap() error { return e.err }

func missingColumn(column string) error {
	return &columnError{row: -1, column: column, err: ErrMissingColumn}
}
