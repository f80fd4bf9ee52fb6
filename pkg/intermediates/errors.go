package intermediates

import (
	"errors"
	"fmt"
)

// Every failure in the pipeline is fatal; there is no retry or partial
// success. The typed errors below carry enough context (file, field, join
// statistics) for an operator to fix the input and re-run.

// NotFoundError reports a missing input file.
type NotFoundError struct {
	Path string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("input file %s not found", e.Path)
}

func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// ParseError reports a syntactically malformed input file.
type ParseError struct {
	Path string
	Err  error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s: %v", e.Path, e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}

func IsParseError(err error) bool {
	var pe ParseError
	return errors.As(err, &pe)
}

// SchemaError reports a column the reshape step expects but the input does
// not carry.
type SchemaError struct {
	Source string
	Field  string
}

func (e SchemaError) Error() string {
	return fmt.Sprintf("%s: expected column %q is missing", e.Source, e.Field)
}

func IsSchemaError(err error) bool {
	var se SchemaError
	return errors.As(err, &se)
}

// EmptyResultError reports a table that ended up with no rows. An empty
// snapshot would silently break every downstream analysis, so it is treated
// as a failure of the run, not a degraded success.
type EmptyResultError struct {
	Table   string
	Left    int
	Right   int
	Matched int
}

func (e EmptyResultError) Error() string {
	if e.Left > 0 || e.Right > 0 {
		return fmt.Sprintf("table %s is empty: %d of %d left rows matched %d right rows",
			e.Table, e.Matched, e.Left, e.Right)
	}
	return fmt.Sprintf("table %s is empty", e.Table)
}

func IsEmptyResult(err error) bool {
	var ee EmptyResultError
	return errors.As(err, &ee)
}
