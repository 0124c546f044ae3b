// Package taskerr defines the error kinds produced while building and running
// a task. Build-time kinds (Config, Timing) abort before any Run starts;
// tick-time kinds (Variable, Expression, IO) abort the active Run. Every kind
// carries the tree path of the node it originated from.
package taskerr

import "fmt"

// Kind classifies a task error.
type Kind int

const (
	// Config is a malformed or missing tree field, or an unknown node kind.
	Config Kind = iota
	// Timing is a non-positive duration or malformed deadline.
	Timing
	// Variable is an unbound write or a required read of an unbound line.
	Variable
	// Expression is a formula parse failure, undefined variable, or type
	// mismatch during evaluation.
	Expression
	// IO is a missing external asset referenced by a leaf.
	IO
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "config"
	case Timing:
		return "timing"
	case Variable:
		return "variable"
	case Expression:
		return "expression"
	case IO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is a task error with a kind and the originating node path.
type Error struct {
	Kind Kind
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s error at %s: %s: %v", e.Kind, e.Path, e.Msg, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s error at %s: %s", e.Kind, e.Path, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Msg, e.Err)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Msg)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs a task error with a formatted message.
func New(kind Kind, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs a task error around an underlying error.
func Wrap(kind Kind, path string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Msg: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether err is (or wraps) a task error of the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if te, ok := err.(*Error); ok {
			return te.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
