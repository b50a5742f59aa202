package supervisor

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// TransportError is a dial, receive, send or close failure. The supervisor
// recovers from it by reconnecting while budget remains.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProcessingError is a decode, parse or strategy failure. It is fatal: Run
// returns it immediately. The wrapped error carries the stack at the point of
// failure, printed with %+v.
type ProcessingError struct {
	Op  string
	Err error
}

func newProcessingError(op string, err error) *ProcessingError {
	return &ProcessingError{Op: op, Err: errors.WithStack(err)}
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing %s: %v", e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Format implements fmt.Formatter so that %+v includes the stack trace.
func (e *ProcessingError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "processing %s: %+v", e.Op, e.Err)
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}
