package command

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("invalid command")

	// ErrUnsupported is matched by every UnsupportedCommandError.
	ErrUnsupported = errors.New("unsupported command")
)

// ValidationError reports a malformed command payload. It is always raised
// before anything reaches the database.
type ValidationError struct {
	Tag    Tag
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var prefix string
	switch {
	case e.Tag != "" && e.Field != "":
		prefix = fmt.Sprintf("invalid %s command: %s", e.Tag, e.Field)
	case e.Tag != "":
		prefix = fmt.Sprintf("invalid %s command", e.Tag)
	case e.Field != "":
		prefix = fmt.Sprintf("invalid command: %s", e.Field)
	default:
		prefix = "invalid command"
	}
	return prefix + ": " + e.Reason
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid returns a ValidationError for the given command tag and payload field.
func Invalid(tag Tag, field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Tag:    tag,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

// UnsupportedCommandError reports a command tag outside the vocabulary, or one
// the target dialect has no way to express.
type UnsupportedCommandError struct {
	Tag     Tag
	Dialect string
}

// Error implements the error interface.
func (e *UnsupportedCommandError) Error() string {
	if e.Dialect != "" {
		return fmt.Sprintf("unsupported command %q for dialect %s", e.Tag, e.Dialect)
	}
	return fmt.Sprintf("unsupported command %q", e.Tag)
}

// Is reports whether target is ErrUnsupported.
func (e *UnsupportedCommandError) Is(target error) bool {
	return target == ErrUnsupported
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnsupported reports whether err is, or wraps, an UnsupportedCommandError.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}
