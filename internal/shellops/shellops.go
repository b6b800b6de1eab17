// Package shellops is the boundary to the operating system's delete and trash
// facilities. Trash follows the freedesktop.org trash specification.
package shellops

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joe/bulkops/pkg/fileops"
	"github.com/joe/bulkops/pkg/filesystem"
)

const (
	trashInfoExt    = ".trashinfo"
	deletionDateFmt = "2006-01-02T15:04:05"
	maxNameAttempts = 10000
)

// Exported variables.
var (
	ErrNoTrashDir = errors.New("no trash directory available")
)

// Shell deletes or trashes paths.
type Shell struct {
	trashDir string
	now      func() time.Time
	ops      *fileops.FileOps
}

// Option configures a Shell.
type Option func(*Shell)

// WithTrashDir overrides the trash root (the directory holding files/ and info/).
func WithTrashDir(dir string) Option {
	return func(s *Shell) {
		s.trashDir = dir
	}
}

// WithClock overrides the clock used for DeletionDate.
func WithClock(now func() time.Time) Option {
	return func(s *Shell) {
		s.now = now
	}
}

// New creates a Shell for the real filesystem.
func New(opts ...Option) *Shell {
	shell := &Shell{
		now: time.Now,
		ops: fileops.NewRealFileOps(),
	}

	for _, opt := range opts {
		opt(shell)
	}

	return shell
}

// DefaultTrashDir returns $XDG_DATA_HOME/Trash, falling back to
// ~/.local/share/Trash.
func DefaultTrashDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "Trash"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoTrashDir, err)
	}

	return filepath.Join(home, ".local", "share", "Trash"), nil
}

// DeleteAll permanently removes every path. Missing paths are not failures.
func (s *Shell) DeleteAll(paths []string) error {
	var errs []error

	for _, path := range paths {
		err := os.RemoveAll(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", path, err))
		}
	}

	return errors.Join(errs...)
}

// TrashAll moves every path into the trash.
func (s *Shell) TrashAll(paths []string) error {
	root, err := s.root()
	if err != nil {
		return err
	}

	filesDir := filepath.Join(root, "files")
	infoDir := filepath.Join(root, "info")

	for _, dir := range []string{filesDir, infoDir} {
		err := os.MkdirAll(dir, 0o700)
		if err != nil {
			return fmt.Errorf("failed to create trash directory %s: %w", dir, err)
		}
	}

	var errs []error

	for _, path := range paths {
		err := s.trashOne(path, filesDir, infoDir)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to move %s to trash: %w", path, err))
		}
	}

	return errors.Join(errs...)
}

func (s *Shell) root() (string, error) {
	if s.trashDir != "" {
		return s.trashDir, nil
	}

	return DefaultTrashDir()
}

func (s *Shell) trashOne(path, filesDir, infoDir string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	_, err = os.Lstat(abs)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", abs, err)
	}

	name, infoPath, err := s.reserveName(abs, infoDir)
	if err != nil {
		return err
	}

	target := filepath.Join(filesDir, name)

	err = s.moveInto(abs, target)
	if err != nil {
		_ = os.Remove(infoPath)

		return err
	}

	return nil
}

// reserveName claims a unique name by creating its .trashinfo file exclusively.
func (s *Shell) reserveName(abs, infoDir string) (string, string, error) {
	base := filepath.Base(abs)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for attempt := 1; attempt <= maxNameAttempts; attempt++ {
		name := base
		if attempt > 1 {
			name = fmt.Sprintf("%s.%d%s", stem, attempt, ext)
		}

		infoPath := filepath.Join(infoDir, name+trashInfoExt)

		file, err := os.OpenFile(infoPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) // #nosec G304
		if errors.Is(err, os.ErrExist) {
			continue
		}

		if err != nil {
			return "", "", fmt.Errorf("failed to create trash info %s: %w", infoPath, err)
		}

		_, err = file.WriteString(s.trashInfo(abs))

		closeErr := file.Close()
		if err == nil {
			err = closeErr
		}

		if err != nil {
			_ = os.Remove(infoPath)

			return "", "", fmt.Errorf("failed to write trash info %s: %w", infoPath, err)
		}

		return name, infoPath, nil
	}

	return "", "", fmt.Errorf("no free trash name for %s", base) //nolint:err113 // one-off
}

func (s *Shell) trashInfo(abs string) string {
	escaped := (&url.URL{Path: abs}).EscapedPath()

	return fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n", escaped, s.now().Format(deletionDateFmt))
}

// moveInto renames src to dst, copying and removing across devices.
func (s *Shell) moveInto(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("failed to rename into trash: %w", err)
	}

	err = s.copyTree(src, dst)
	if err != nil {
		_ = os.RemoveAll(dst)

		return err
	}

	err = os.RemoveAll(src)
	if err != nil {
		return fmt.Errorf("failed to remove %s after copying to trash: %w", src, err)
	}

	return nil
}

type unthrottled struct{}

func (unthrottled) Cancelled() bool { return false }
func (unthrottled) Paused() bool    { return false }
func (unthrottled) Turbo() bool     { return true }

func (s *Shell) copyTree(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	if !info.IsDir() {
		_, err = s.ops.CopyFile(src, dst, unthrottled{}, nil)

		return err //nolint:wrapcheck // already wrapped by fileops
	}

	err = os.MkdirAll(dst, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	scanner := s.ops.FS.Scan(src)

	for {
		entry, ok := scanner.Next()
		if !ok {
			break
		}

		target := filepath.Join(dst, entry.RelativePath)

		if entry.IsDir {
			err = os.MkdirAll(target, filesystem.DirPerm(entry.Mode))
		} else {
			_, err = s.ops.CopyFile(entry.Path, target, unthrottled{}, nil)
		}

		if err != nil {
			return fmt.Errorf("failed to copy %s into trash: %w", entry.Path, err)
		}
	}

	if scanner.Err() != nil {
		return fmt.Errorf("failed to walk %s: %w", src, scanner.Err())
	}

	if scanner.Skipped() > 0 {
		return fmt.Errorf("failed to read %d entries below %s", scanner.Skipped(), src) //nolint:err113 // one-off
	}

	return nil
}
