//go:build !windows

package ingest

import (
	"os"
	"syscall"
)

// inodeOf extracts the inode number from a FileInfo on POSIX systems,
// used to detect log rotation independent of mtime.
func inodeOf(info os.FileInfo) uint64 {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return uint64(st.Ino)
	}
	return 0
}
