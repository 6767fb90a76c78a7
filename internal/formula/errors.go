package formula

import (
	"errors"
	"fmt"
)

// ErrDivisionByZero is returned when a formula divides by a zero denominator.
var ErrDivisionByZero = errors.New("division by zero")

// ErrNonFiniteResult is returned when evaluation produces NaN or an
// infinity without dividing by zero, e.g. float64 overflow. A progress
// value must always be a finite number.
var ErrNonFiniteResult = errors.New("result is not a finite number")

// UndefinedVariableError reports an identifier with no entry in the binding map.
// The engine never substitutes 0 for a missing variable.
type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined variable %q", e.Name)
}

// MalformedFormulaError reports a syntax error at a byte offset in the formula.
type MalformedFormulaError struct {
	Position int
	Message  string
}

func (e *MalformedFormulaError) Error() string {
	return fmt.Sprintf("malformed formula at position %d: %s", e.Position, e.Message)
}
