//go:build !unix

package fileio

// Windows cannot fsync directory handles; rename durability is up to the
// file system.
func isSyncUnsupported(err error) bool {
	return true
}
