package trexio

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// Mode is the access mode of a File.
type Mode byte

const (
	// ModeRead opens an existing container read-only.
	ModeRead Mode = 'r'
	// ModeWrite creates the container, discarding any existing groups.
	ModeWrite Mode = 'w'
	// ModeAppend opens or creates the container, keeping existing groups.
	ModeAppend Mode = 'a'
)

// ParseMode accepts "r", "w", "a" and their long forms.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "r", "read":
		return ModeRead, nil
	case "w", "write":
		return ModeWrite, nil
	case "a", "append":
		return ModeAppend, nil
	default:
		return 0, fmt.Errorf("trexio: %w %q", ErrInvalidMode, s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeAppend:
		return "append"
	default:
		return fmt.Sprintf("Mode(%q)", byte(m))
	}
}

func (m Mode) valid() bool {
	return m == ModeRead || m == ModeWrite || m == ModeAppend
}

func (m Mode) Writable() bool {
	return m == ModeWrite || m == ModeAppend
}

// Backend selects the on-disk representation of a container.
type Backend int

const (
	// BackendBinary stores a container as a single bbolt file.
	BackendBinary Backend = iota
	// BackendText stores a container as a directory of YAML group files.
	BackendText
)

func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "binary", "bin", "bolt":
		return BackendBinary, nil
	case "text", "txt":
		return BackendText, nil
	default:
		return 0, fmt.Errorf("trexio: %w: unknown backend %q", ErrInvalidArgument, s)
	}
}

func (b Backend) String() string {
	switch b {
	case BackendBinary:
		return "binary"
	case BackendText:
		return "text"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// File is an open session on a container. A File is not safe for concurrent
// use; at most one writable File may be open per container at a time.
type File struct {
	path    string
	mode    Mode
	backend Backend
	schema  *Schema
	store   storage
	logger  *slog.Logger
	verbose bool

	closed bool
	fatal  error

	guard   *leakGuard
	cleanup runtime.Cleanup
}

// Open opens the container at path. Every resource acquired by a failed
// Open is released before it returns.
func Open(path string, mode Mode, backend Backend, opts ...Option) (*File, error) {
	o := buildOptions(opts)
	if !mode.valid() {
		return nil, openErrf(path, backend, ErrInvalidMode, nil, "mode %q", byte(mode))
	}

	var store storage
	var err error
	switch backend {
	case BackendBinary:
		store, err = openBinaryStorage(path, mode, &o)
	case BackendText:
		store, err = openTextStorage(path, mode, &o)
	default:
		return nil, openErrf(path, backend, ErrInvalidArgument, nil, "unknown backend")
	}
	if err != nil {
		if o.Verbose {
			o.Logger.Debug("trexio: open failed", "path", path, "backend", backend, "mode", mode, "err", err)
		}
		return nil, err
	}

	f := &File{
		path:    path,
		mode:    mode,
		backend: backend,
		schema:  o.Schema,
		store:   store,
		logger:  o.Logger,
		verbose: o.Verbose,
	}
	f.guard = &leakGuard{store: store, logger: o.Logger, path: path, mode: mode}
	f.cleanup = runtime.AddCleanup(f, (*leakGuard).collect, f.guard)

	if f.verbose {
		f.logger.Debug("trexio: opened", "path", path, "backend", backend, "mode", mode)
	}
	return f, nil
}

// With opens a container, runs fn and closes the container on every exit
// path. Buffered writes are flushed unless fn panics.
func With(path string, mode Mode, backend Backend, fn func(f *File) error, opts ...Option) (err error) {
	f, err := Open(path, mode, backend, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			f.abandon()
			panic(p)
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}

func (f *File) Path() string     { return f.path }
func (f *File) Mode() Mode       { return f.mode }
func (f *File) Backend() Backend { return f.backend }
func (f *File) Schema() *Schema  { return f.schema }
func (f *File) IsClosed() bool   { return f.closed }

// Flush commits buffered writes without closing the handle.
func (f *File) Flush() error {
	if err := f.checkUsable("flush", nil); err != nil {
		return err
	}
	if !f.mode.Writable() {
		return nil
	}
	if err := f.store.Flush(); err != nil {
		return f.fail(fieldErrf("flush", nil, category(err, ErrBackendIO), err, ""))
	}
	if f.verbose {
		f.logger.Debug("trexio: flushed", "path", f.path, "backend", f.backend)
	}
	return nil
}

// Close flushes buffered writes and releases the container. Closing an
// already closed File is a no-op. A File that observed corruption is closed
// without flushing.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	f.cleanup.Stop()

	var err error
	if f.fatal != nil {
		err = f.store.Abandon()
	} else {
		err = f.store.Release()
	}
	if f.verbose {
		f.logger.Debug("trexio: closed", "path", f.path, "backend", f.backend, "err", err)
	}
	if err != nil {
		return openErrf(f.path, f.backend, category(err, ErrBackendIO), err, "close")
	}
	return nil
}

func (f *File) abandon() {
	if f.closed {
		return
	}
	f.closed = true
	f.cleanup.Stop()
	if err := f.store.Abandon(); err != nil {
		f.logger.Warn("trexio: releasing abandoned handle", "path", f.path, "err", err)
	}
}

// checkField is checkUsable for single-field operations. Zero-value typed
// handles carry no descriptor.
func (f *File) checkField(op string, fd *FieldDesc) error {
	if fd == nil {
		return unboundFieldErr(op)
	}
	return f.checkUsable(op, fd)
}

func unboundFieldErr(op string) error {
	return fieldErrf(op, nil, ErrInvalidArgument, nil, "field handle does not come from a schema")
}

func (f *File) checkUsable(op string, fd *FieldDesc) error {
	if f.closed {
		return fieldErrf(op, fd, ErrHandleClosed, nil, "")
	}
	if f.fatal != nil {
		return fieldErrf(op, fd, ErrCorrupt, f.fatal, "handle unusable after earlier failure")
	}
	return nil
}

// fail poisons the handle if err reports corruption, and returns err.
func (f *File) fail(err error) error {
	if f.fatal == nil && errors.Is(err, ErrCorrupt) {
		f.fatal = err
		f.logger.Error("trexio: container is corrupted", "path", f.path, "backend", f.backend, "err", err)
	}
	return err
}

// category returns the sentinel err belongs to, or fallback if err did not
// originate in this package.
func category(err error, fallback error) error {
	if s := StatusOf(err); s != StatusUnknownError {
		return s.Err()
	}
	return fallback
}

// leakGuard releases the container lock of a File that was garbage collected
// without Close. Buffered writes are dropped, not flushed.
type leakGuard struct {
	store  storage
	logger *slog.Logger
	path   string
	mode   Mode
}

func (g *leakGuard) collect() {
	if g.mode.Writable() {
		g.logger.Warn("trexio: file was not closed; buffered writes are lost", "path", g.path, "mode", g.mode)
	}
	if err := g.store.Abandon(); err != nil {
		g.logger.Warn("trexio: releasing leaked handle", "path", g.path, "err", err)
	}
}
