package trexio

import (
	"log/slog"
	"time"
)

const (
	// DefaultLockTimeout bounds how long Open waits for a container lock
	// before reporting ErrLockConflict.
	DefaultLockTimeout = 100 * time.Millisecond

	// DefaultCompressThreshold is the binary payload size from which values
	// are zstd-compressed.
	DefaultCompressThreshold = 64 * 1024
)

type Options struct {
	Logger  *slog.Logger
	Verbose bool

	// LockTimeout of zero means DefaultLockTimeout. Waiting forever is not
	// supported, so conflicting handles are always reported.
	LockTimeout time.Duration

	// NoSync skips fsync on flush. Intended for tests and scratch files.
	NoSync bool

	// CompressThreshold of zero means DefaultCompressThreshold; negative
	// disables compression. Only the binary backend compresses.
	CompressThreshold int

	// Schema defaults to Catalog.
	Schema *Schema
}

type Option func(o *Options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func WithVerbose(verbose bool) Option {
	return func(o *Options) { o.Verbose = verbose }
}

func WithLockTimeout(d time.Duration) Option {
	return func(o *Options) { o.LockTimeout = d }
}

func WithNoSync(noSync bool) Option {
	return func(o *Options) { o.NoSync = noSync }
}

func WithCompressThreshold(n int) Option {
	return func(o *Options) { o.CompressThreshold = n }
}

func WithSchema(scm *Schema) Option {
	return func(o *Options) { o.Schema = scm }
}

// WithOptions replaces all options at once.
func WithOptions(opt Options) Option {
	return func(o *Options) { *o = opt }
}

func buildOptions(opts []Option) Options {
	var o Options
	for _, f := range opts {
		f(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = DefaultLockTimeout
	}
	if o.CompressThreshold == 0 {
		o.CompressThreshold = DefaultCompressThreshold
	}
	if o.Schema == nil {
		o.Schema = Catalog
	}
	return o
}
