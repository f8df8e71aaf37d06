package fsapi

import (
	"errors"
	"io/fs"
	"syscall"
)

// Error kinds. Every error returned by the resolver or a [Store] wraps exactly
// one of these, so callers classify with errors.Is.
var (
	ErrConfinement      = errors.New("invalid path")
	ErrNotFound         = errors.New("not found")
	ErrNotADirectory    = errors.New("not a directory")
	ErrNotAFile         = errors.New("not a file")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrEncoding         = errors.New("unsupported encoding")
	ErrIO               = errors.New("i/o failure")
)

// Error records a failed operation on a root-relative path.
//
// Kind is one of the package error kinds. Err is the underlying cause and may
// contain host paths, so it is for logs only.
type Error struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op + " " + e.Path + ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError returns an *Error of the given kind.
func NewError(op, path string, kind, cause error) error {
	return &Error{Op: op, Path: path, Kind: kind, Err: cause}
}

// Wrap classifies an error returned by the os package into the error
// taxonomy. Errors that are already classified keep their kind.
func Wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Op: op, Path: path, Kind: kindOf(err), Err: err}
}

// KindOf reports the taxonomy member of err, or ErrIO when err is unclassified.
func KindOf(err error) error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return kindOf(err)
}

var kinds = []error{
	ErrConfinement, ErrNotFound, ErrNotADirectory, ErrNotAFile,
	ErrAlreadyExists, ErrInvalidOperation, ErrEncoding, ErrIO,
}

func kindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrExist), errors.Is(err, syscall.ENOTEMPTY):
		return ErrAlreadyExists
	case errors.Is(err, syscall.ENOTDIR):
		return ErrNotADirectory
	case errors.Is(err, syscall.EISDIR):
		return ErrNotAFile
	}
	return ErrIO
}
