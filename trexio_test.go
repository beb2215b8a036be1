package trexio

import (
	"errors"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func init() {
	slog.SetLogLoggerLevel(slog.LevelDebug)
}

var allBackends = []Backend{BackendBinary, BackendText}

func forEachBackend(t *testing.T, fn func(t *testing.T, backend Backend)) {
	for _, backend := range allBackends {
		t.Run(backend.String(), func(t *testing.T) {
			fn(t, backend)
		})
	}
}

func containerPath(t testing.TB, backend Backend) string {
	name := "test.trexio"
	if backend == BackendText {
		name = "test.dir"
	}
	return filepath.Join(t.TempDir(), name)
}

func testOpts() []Option {
	return []Option{WithNoSync(true), WithVerbose(true), WithLockTimeout(20 * time.Millisecond)}
}

func setup(t testing.TB, path string, mode Mode, backend Backend) *File {
	t.Helper()
	f, err := Open(path, mode, backend, testOpts()...)
	if err != nil {
		t.Fatalf("Open(%s, %v, %v) failed: %v", path, mode, backend, err)
	}
	t.Cleanup(func() {
		f.Close()
	})
	return f
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func isErr(t testing.TB, err, target error) {
	if !errors.Is(err, target) {
		t.Helper()
		t.Fatalf("** err = %v, wanted %v", err, target)
	}
}

func noErr(t testing.TB, err error) {
	if err != nil {
		t.Helper()
		t.Fatalf("** unexpected error: %v", err)
	}
}
