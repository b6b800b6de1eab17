// Package fileops provides the per-file primitives used by the operation
// engine: a throttle-aware chunked stream copy and empty directory pruning.
package fileops

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joe/bulkops/internal/buffers"
	"github.com/joe/bulkops/pkg/filesystem"
)

// Exported constants.
const (
	// DefaultDirPermissions is the default permission mode for created directories
	DefaultDirPermissions = 0o755
	// PausePollInterval is how often a paused copy re-checks its signals.
	PausePollInterval = 100 * time.Millisecond
	// ChunkThrottle is the sleep after each chunk when turbo is off.
	ChunkThrottle = time.Millisecond
)

// Exported variables.
var (
	ErrCopyCancelled = errors.New("copy cancelled")
)

// Signals are the cooperative controls a copy observes between chunks.
type Signals interface {
	Cancelled() bool
	Paused() bool
	Turbo() bool
}

// ChunkFunc is called after every chunk written with the chunk's size.
type ChunkFunc func(n int64)

// CopyStats contains information about a copy operation
type CopyStats struct {
	BytesCopied int64
	Duration    time.Duration
}

// FileOps provides file operations with dependency injection for filesystem access.
type FileOps struct {
	FS    filesystem.FileSystem
	Sleep func(time.Duration)
}

// NewFileOps creates a new FileOps instance with the given filesystem.
func NewFileOps(fs filesystem.FileSystem) *FileOps {
	return &FileOps{FS: fs, Sleep: time.Sleep}
}

// NewRealFileOps creates a new FileOps instance using the real filesystem.
func NewRealFileOps() *FileOps {
	return NewFileOps(filesystem.NewRealFileSystem())
}

// CopyFile streams src into dst, overwriting dst. The copy re-checks sig after
// every chunk: it waits while paused and aborts with ErrCopyCancelled on cancel.
// Any failure removes the partial destination; the source is never touched.
// The returned stats hold the bytes written even when err is non-nil.
func (fo *FileOps) CopyFile(src, dst string, sig Signals, onChunk ChunkFunc) (*CopyStats, error) {
	stats := &CopyStats{}
	start := time.Now()

	defer func() {
		stats.Duration = time.Since(start)
	}()

	sourceFile, err := fo.FS.Open(src)
	if err != nil {
		return stats, fmt.Errorf("failed to open source file %s: %w", src, err)
	}

	defer func() {
		_ = sourceFile.Close()
	}()

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return stats, fmt.Errorf("failed to stat source file %s: %w", src, err)
	}

	dstDir := filepath.Dir(dst)

	err = fo.FS.MkdirAll(dstDir, DefaultDirPermissions)
	if err != nil {
		return stats, fmt.Errorf("failed to create destination directory %s: %w", dstDir, err)
	}

	destFile, err := fo.FS.Create(dst)
	if err != nil {
		return stats, fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}

	copyCompleted := false

	defer func() {
		_ = destFile.Close()

		if !copyCompleted {
			_ = fo.FS.Remove(dst)
		}
	}()

	err = fo.copyLoop(sourceFile, destFile, stats, sig, onChunk)
	if err != nil {
		if errors.Is(err, ErrCopyCancelled) {
			return stats, err
		}

		return stats, fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	// Close before setting the modification time; some network filesystems
	// reset it on close.
	err = destFile.Close()
	if err != nil {
		return stats, fmt.Errorf("failed to close destination file %s: %w", dst, err)
	}

	copyCompleted = true

	// Best effort: a copy whose times cannot be preserved is still a copy.
	_ = fo.FS.Chtimes(dst, sourceInfo.ModTime(), sourceInfo.ModTime())

	return stats, nil
}

// PruneEmptyDirs removes root and every directory below it that is empty,
// deepest first. Directories that still hold entries are left in place.
func (fo *FileOps) PruneEmptyDirs(root string) error {
	info, err := fo.FS.Lstat(root)
	if err != nil || !info.IsDir() {
		return nil //nolint:nilerr // nothing to prune
	}

	dirs := []string{root}
	scanner := fo.FS.Scan(root)

	for {
		entry, ok := scanner.Next()
		if !ok {
			break
		}

		if entry.IsDir {
			dirs = append(dirs, entry.Path)
		}
	}

	sort.Slice(dirs, func(i, j int) bool {
		di := strings.Count(dirs[i], string(filepath.Separator))
		dj := strings.Count(dirs[j], string(filepath.Separator))
		if di != dj {
			return di > dj
		}

		return dirs[i] > dirs[j]
	})

	var errs []error

	for _, dir := range dirs {
		err := fo.FS.Remove(dir)
		if err != nil && !filesystem.IsNotEmpty(err) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// waitWhilePaused blocks until sig is no longer paused. It returns
// ErrCopyCancelled if cancel is raised while waiting.
func (fo *FileOps) waitWhilePaused(sig Signals) error {
	for sig.Paused() {
		if sig.Cancelled() {
			return ErrCopyCancelled
		}

		fo.Sleep(PausePollInterval)
	}

	if sig.Cancelled() {
		return ErrCopyCancelled
	}

	return nil
}

func (fo *FileOps) copyLoop(sourceFile io.Reader, destFile io.Writer, stats *CopyStats, sig Signals,
	onChunk ChunkFunc,
) error {
	buf := buffers.Get(sig.Turbo())
	defer buffers.Put(buf)

	for {
		err := fo.waitWhilePaused(sig)
		if err != nil {
			return err
		}

		nr, err := sourceFile.Read(*buf) //nolint:varnamelen // nr is idiomatic for bytes read
		if nr > 0 {
			nw, werr := destFile.Write((*buf)[:nr]) //nolint:varnamelen // nw is idiomatic for bytes written
			if werr != nil {
				return fmt.Errorf("failed to write to destination: %w", werr)
			}

			if nr != nw {
				return fmt.Errorf("short write: %w", io.ErrShortWrite)
			}

			stats.BytesCopied += int64(nw)

			if onChunk != nil {
				onChunk(int64(nw))
			}

			if !sig.Turbo() {
				fo.Sleep(ChunkThrottle)
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("failed to read from source: %w", err)
		}
	}
}
