package trexio

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Every error returned by this package matches exactly one
// of these via errors.Is.
var (
	ErrInvalidMode            = errors.New("invalid mode")
	ErrBackendMismatch        = errors.New("backend mismatch")
	ErrLockConflict           = errors.New("container is locked by another handle")
	ErrHandleClosed           = errors.New("handle is closed")
	ErrUnknownField           = errors.New("unknown field")
	ErrFieldNotFound          = errors.New("field not found")
	ErrDimensionMismatch      = errors.New("unsafe array dimension")
	ErrTypeConversionOverflow = errors.New("type conversion overflow")
	ErrBackendIO              = errors.New("backend I/O failure")
	ErrAlreadyExists          = errors.New("field already exists")
	ErrInvalidArgument        = errors.New("invalid argument")

	// ErrCorrupt means the container's on-disk layout is internally
	// inconsistent. It is fatal to the handle that observed it.
	ErrCorrupt = errors.New("corrupted container")
)

// ErrIOFailure is another name for ErrBackendIO.
var ErrIOFailure = ErrBackendIO

// Status is a numeric status code, one per error category.
type Status int

const (
	StatusSuccess Status = iota
	StatusInvalidMode
	StatusBackendMismatch
	StatusLockConflict
	StatusHandleClosed
	StatusUnknownField
	StatusFieldNotFound
	StatusDimensionMismatch
	StatusTypeConversionOverflow
	StatusBackendIO
	StatusAlreadyExists
	StatusInvalidArgument
	StatusCorrupt
	StatusUnknownError
)

var statusErrors = [...]error{
	StatusInvalidMode:            ErrInvalidMode,
	StatusBackendMismatch:        ErrBackendMismatch,
	StatusLockConflict:           ErrLockConflict,
	StatusHandleClosed:           ErrHandleClosed,
	StatusUnknownField:           ErrUnknownField,
	StatusFieldNotFound:          ErrFieldNotFound,
	StatusDimensionMismatch:      ErrDimensionMismatch,
	StatusTypeConversionOverflow: ErrTypeConversionOverflow,
	StatusBackendIO:              ErrBackendIO,
	StatusAlreadyExists:          ErrAlreadyExists,
	StatusInvalidArgument:        ErrInvalidArgument,
	StatusCorrupt:                ErrCorrupt,
}

var statusNames = [...]string{
	StatusSuccess:                "SUCCESS",
	StatusInvalidMode:            "INVALID_MODE",
	StatusBackendMismatch:        "BACKEND_MISMATCH",
	StatusLockConflict:           "LOCK_CONFLICT",
	StatusHandleClosed:           "HANDLE_CLOSED",
	StatusUnknownField:           "UNKNOWN_FIELD",
	StatusFieldNotFound:          "FIELD_NOT_FOUND",
	StatusDimensionMismatch:      "UNSAFE_ARRAY_DIM",
	StatusTypeConversionOverflow: "TYPE_CONVERSION_OVERFLOW",
	StatusBackendIO:              "BACKEND_IO_ERROR",
	StatusAlreadyExists:          "ALREADY_EXISTS",
	StatusInvalidArgument:        "INVALID_ARGUMENT",
	StatusCorrupt:                "CORRUPTED",
	StatusUnknownError:           "UNKNOWN_ERROR",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Err returns the category sentinel for s, or nil for StatusSuccess.
func (s Status) Err() error {
	if s > 0 && int(s) < len(statusErrors) {
		return statusErrors[s]
	}
	return nil
}

// StatusOf returns the status code of err. A nil error is StatusSuccess;
// errors that did not originate in this package are StatusUnknownError.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	for s := StatusInvalidMode; s < StatusUnknownError; s++ {
		if errors.Is(err, statusErrors[s]) {
			return s
		}
	}
	return StatusUnknownError
}

// FieldError describes a failed operation on a single field.
type FieldError struct {
	Op    string
	Group string
	Field string
	Kind  error // one of the Err* categories
	Err   error // underlying cause, if any
	Msg   string
}

func fieldErrf(op string, fd *FieldDesc, kind, err error, format string, args ...any) error {
	e := &FieldError{Op: op, Kind: kind, Err: err}
	if fd != nil {
		e.Group, e.Field = fd.group.name, fd.name
	}
	if format != "" {
		e.Msg = fmt.Sprintf(format, args...)
	}
	return e
}

func (e *FieldError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func (e *FieldError) Error() string {
	var buf strings.Builder
	buf.WriteString("trexio: ")
	if e.Op != "" {
		buf.WriteString(e.Op)
		buf.WriteByte(' ')
	}
	if e.Group != "" {
		buf.WriteString(e.Group)
		if e.Field != "" {
			buf.WriteByte('_')
			buf.WriteString(e.Field)
		}
		buf.WriteString(": ")
	}
	buf.WriteString(e.Kind.Error())
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil && e.Err != e.Kind {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// OpenError describes a failure to open or release a container.
type OpenError struct {
	Path    string
	Backend Backend
	Kind    error
	Err     error
	Msg     string
}

func openErrf(path string, backend Backend, kind, err error, format string, args ...any) error {
	e := &OpenError{Path: path, Backend: backend, Kind: kind, Err: err}
	if format != "" {
		e.Msg = fmt.Sprintf(format, args...)
	}
	return e
}

func (e *OpenError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func (e *OpenError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "trexio: %s (%s): %s", e.Path, e.Backend, e.Kind.Error())
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// DataError reports an undecodable stored value. It always matches ErrCorrupt.
type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCorrupt}
	}
	return []error{ErrCorrupt, e.Err}
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x", e.Msg, e.Off, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x", e.Msg, e.Off, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x...%x", e.Msg, e.Off, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x...%x", e.Msg, e.Off, n, p, s)
		}
	}
}
