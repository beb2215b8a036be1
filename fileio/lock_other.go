//go:build !unix && !windows

package fileio

import "os"

// Platforms without advisory locks run unlocked.
func lockFile(f *os.File, exclusive bool) error { return nil }

func unlockFile(f *os.File) error { return nil }
