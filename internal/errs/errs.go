// Package errs holds the sentinel errors shared by the parser, the gas model
// and the dispatch engine. Callers wrap them with fmt.Errorf and test them
// with errors.Is.
package errs

import "errors"

var (
	// ErrInvalidInput reports a grammar violation or a reference to a name
	// that was never declared in the session.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFnNotFound reports a function name or id the catalogue cannot resolve.
	ErrFnNotFound = errors.New("function not found")

	// ErrFnIDInvalid reports a numeric function id outside the catalogue range.
	ErrFnIDInvalid = errors.New("function id out of range")

	// ErrInfGasPlan reports a gas plan with neither an overall cap nor a cap
	// on every dimension.
	ErrInfGasPlan = errors.New("gas plan is unbounded")

	// ErrGasPlanOverflow reports a dimension sum that does not fit in int64.
	ErrGasPlanOverflow = errors.New("gas plan overflows int64")

	// ErrGasExhausted reports a session whose usage went past its plan.
	ErrGasExhausted = errors.New("gas exhausted")

	// ErrClosed reports an operation on a closed queue or session.
	ErrClosed = errors.New("closed")
)
