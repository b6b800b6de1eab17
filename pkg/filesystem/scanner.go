package filesystem

import (
	"os"
	"time"
)

// FileScanner is an iterator over the entries of a directory tree.
type FileScanner interface {
	// Next advances to the next entry and returns its info.
	// Returns (FileInfo{}, false) when the walk is exhausted.
	Next() (FileInfo, bool)

	// Err returns the error that stopped the walk, if any. Entries that could
	// not be read are skipped and counted by Skipped instead.
	Err() error

	// Skipped returns how many entries were dropped because they could not be read.
	Skipped() int

	// SkipDir stops the walk from descending into the directory most
	// recently returned by Next.
	SkipDir()
}

// FileInfo contains metadata about a scanned entry.
type FileInfo struct {
	// Path is the absolute path of the entry
	Path string

	// RelativePath is the path relative to the scan root
	RelativePath string

	// Size is the file size in bytes (0 for directories)
	Size int64

	// ModTime is the modification time
	ModTime time.Time

	// Mode carries the type bits of the entry (directory, symlink, ...)
	Mode os.FileMode

	// IsDir indicates if this is a directory
	IsDir bool
}
