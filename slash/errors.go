package slash

import (
	"errors"
	"fmt"
)

// ErrNilHandler is returned when a command or choice generator is declared
// without a callback. Handlers are validated at declaration time, never at
// dispatch.
var ErrNilHandler = errors.New("command handler must not be nil")

// InvalidLengthError reports a name or description outside its allowed bounds.
type InvalidLengthError struct {
	Field string
	Min   int
	Max   int
	Got   int
}

func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("%s must be between %d and %d characters, got %d", e.Field, e.Min, e.Max, e.Got)
}

// WrongTypeError reports a value of an unexpected type for a field.
type WrongTypeError struct {
	Field    string
	Value    interface{}
	Expected string
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("%s has wrong type %T, expected %s", e.Field, e.Value, e.Expected)
}

// InvalidArgumentError reports an argument that could not be accepted at
// declaration time.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return e.Reason
}

func invalidArgumentf(format string, args ...interface{}) *InvalidArgumentError {
	return &InvalidArgumentError{Reason: fmt.Sprintf(format, args...)}
}
