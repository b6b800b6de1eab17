package filesystem

import (
	"path/filepath"

	"github.com/kr/fs"
)

// realFileScanner implements FileScanner on top of a kr/fs Walker.
// Entries are produced lazily in lexical order, parents before children.
type realFileScanner struct {
	root     string
	walker   *fs.Walker
	skipped  int
	err      error
	done     bool
	rootSeen bool
}

// newRealFileScanner creates a new scanner for the given directory.
func newRealFileScanner(root string) *realFileScanner {
	return &realFileScanner{
		root:   root,
		walker: fs.Walk(root),
	}
}

// Next advances to the next readable entry below the root.
func (s *realFileScanner) Next() (FileInfo, bool) {
	if s.done {
		return FileInfo{}, false
	}

	for s.walker.Step() {
		if err := s.walker.Err(); err != nil {
			// kr/fs reports an unreadable directory a second time with its
			// error; the entry itself was already produced, only its
			// children are lost.
			if s.walker.Path() == s.root && !s.rootSeen {
				s.err = err
				s.done = true

				return FileInfo{}, false
			}

			s.skipped++

			continue
		}

		path := s.walker.Path()
		if path == s.root {
			s.rootSeen = true

			continue
		}

		relPath, err := filepath.Rel(s.root, path)
		if err != nil {
			s.skipped++
			s.walker.SkipDir()

			continue
		}

		info := s.walker.Stat()

		entry := FileInfo{
			Path:         path,
			RelativePath: relPath,
			ModTime:      info.ModTime(),
			Mode:         info.Mode(),
			IsDir:        info.IsDir(),
		}
		if !entry.IsDir {
			entry.Size = info.Size()
		}

		return entry, true
	}

	s.done = true

	return FileInfo{}, false
}

// Err returns the error that prevented the root from being walked.
func (s *realFileScanner) Err() error {
	return s.err
}

// Skipped returns the number of unreadable entries dropped so far.
func (s *realFileScanner) Skipped() int {
	return s.skipped
}

// SkipDir prevents the walk from descending into the directory most recently
// returned by Next.
func (s *realFileScanner) SkipDir() {
	s.walker.SkipDir()
}
