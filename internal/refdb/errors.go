package refdb

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrIO marks failures to open or read a database source.
	ErrIO = errors.New("database i/o")
	// ErrNotFound is returned by Signature for unknown names.
	ErrNotFound = errors.New("reference not found")
	// ErrDuplicateName is returned when a source repeats an already loaded name.
	ErrDuplicateName = errors.New("duplicate reference name")
	// ErrSealed is returned by Load after Seal.
	ErrSealed = errors.New("database is sealed")
)

// ioError matches ErrIO and unwraps to the underlying cause.
type ioError struct {
	msg string
	err error
}

func ioErrorf(err error, format string, args ...interface{}) error {
	return &ioError{msg: fmt.Sprintf(format, args...), err: err}
}

func (e *ioError) Error() string        { return e.msg + ": " + e.err.Error() }
func (e *ioError) Unwrap() error        { return e.err }
func (e *ioError) Is(target error) bool { return target == ErrIO }
