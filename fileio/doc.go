// Package fileio holds the small amount of OS-specific file handling that
// container backends need: durable writes, atomic replacement and advisory
// locks.
package fileio
