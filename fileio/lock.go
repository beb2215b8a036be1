package fileio

import (
	"errors"
	"os"
)

// ErrLocked is returned by Acquire when another lock holder conflicts.
var ErrLocked = errors.New("file is locked")

// Lock is an advisory lock held on an open file. Locks conflict between
// separate Acquire calls even within one process.
type Lock struct {
	f         *os.File
	exclusive bool
}

// Acquire takes an advisory lock on path without blocking. Exclusive locks
// conflict with any other lock; shared locks only with exclusive ones. When
// create is false, a missing file is reported as fs.ErrNotExist.
func Acquire(path string, exclusive, create bool) (*Lock, error) {
	flag := os.O_RDONLY
	if create {
		flag = os.O_RDWR | os.O_CREATE
	}
	f, err := os.OpenFile(path, flag, 0666)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f, exclusive); err != nil {
		f.Close()
		return nil, err
	}
	return &Lock{f: f, exclusive: exclusive}, nil
}

func (l *Lock) Exclusive() bool {
	return l.exclusive
}

// Release unlocks and closes the file. Calling it more than once is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil
	err := unlockFile(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
