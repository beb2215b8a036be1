package fileio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "group.yaml")

	for _, durable := range []bool{false, true} {
		want := []byte("num: 12\n")
		if durable {
			want = []byte("num: 13\n")
		}
		if err := WriteFileAtomic(path, want, 0644, durable); err != nil {
			t.Fatalf("WriteFileAtomic(durable=%v): %v", durable, err)
		}
		got := must(os.ReadFile(path))
		if string(got) != string(want) {
			t.Fatalf("content = %q, wanted %q", got, want)
		}
	}

	entries := must(os.ReadDir(dir))
	if len(entries) != 1 {
		t.Fatalf("dir has %d entries, wanted only the target file", len(entries))
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "group.yaml")
	err := WriteFileAtomic(path, []byte("x"), 0644, false)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, wanted fs.ErrNotExist", err)
	}
}

func TestFdatasync(t *testing.T) {
	f := must(os.CreateTemp(t.TempDir(), "sync_*"))
	defer f.Close()
	if _, err := f.WriteString("data"); err != nil {
		t.Fatal(err)
	}
	if err := Fdatasync(f); err != nil {
		t.Fatalf("Fdatasync: %v", err)
	}
}

func TestAcquire(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" && runtime.GOOS != "windows" && runtime.GOOS != "freebsd" {
		t.Skip("advisory locks not verified on " + runtime.GOOS)
	}
	path := filepath.Join(t.TempDir(), ".lock")

	ex := must(Acquire(path, true, true))
	if !ex.Exclusive() {
		t.Fatalf("Exclusive() = false, wanted true")
	}
	if _, err := Acquire(path, true, true); !errors.Is(err, ErrLocked) {
		t.Fatalf("second exclusive Acquire err = %v, wanted ErrLocked", err)
	}
	if _, err := Acquire(path, false, false); !errors.Is(err, ErrLocked) {
		t.Fatalf("shared Acquire during exclusive err = %v, wanted ErrLocked", err)
	}
	if err := ex.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := ex.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}

	sh1 := must(Acquire(path, false, false))
	sh2 := must(Acquire(path, false, false))
	if _, err := Acquire(path, true, true); !errors.Is(err, ErrLocked) {
		t.Fatalf("exclusive Acquire during shared err = %v, wanted ErrLocked", err)
	}
	ensure(sh1.Release())
	ensure(sh2.Release())

	ex = must(Acquire(path, true, true))
	ensure(ex.Release())
}

func TestAcquire_NoCreate(t *testing.T) {
	_, err := Acquire(filepath.Join(t.TempDir(), ".lock"), false, false)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, wanted fs.ErrNotExist", err)
	}
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
