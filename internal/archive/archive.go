// Package archive detects paths that point inside an archive file and removes
// entries from zip archives in place.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies an archive container by file name.
type Format int

// Recognised formats.
const (
	FormatNone Format = iota
	FormatZip
	FormatSevenZip
	FormatTar
	FormatTarGz
	FormatTarXz
	FormatTarZst
	FormatTarBz2
	FormatRar
	FormatISO
)

// Exported variables.
var (
	ErrUnsupportedFormat = errors.New("unsupported archive format")
)

//nolint:gochecknoglobals // lookup table
var extFormats = map[string]Format{
	".zip":  FormatZip,
	".7z":   FormatSevenZip,
	".tar":  FormatTar,
	".gz":   FormatTarGz,
	".tgz":  FormatTarGz,
	".xz":   FormatTarXz,
	".txz":  FormatTarXz,
	".zst":  FormatTarZst,
	".tzst": FormatTarZst,
	".bz2":  FormatTarBz2,
	".tbz2": FormatTarBz2,
	".rar":  FormatRar,
	".iso":  FormatISO,
	".img":  FormatISO,
}

// FormatFromPath returns the archive format implied by path's extension,
// or FormatNone.
func FormatFromPath(path string) Format {
	return extFormats[strings.ToLower(filepath.Ext(path))]
}

// IsArchive reports whether path names an archive file.
func IsArchive(path string) bool {
	return FormatFromPath(path) != FormatNone
}

// SplitVirtualPath splits a path such as /data/pack.zip/docs/a.txt into the
// archive path and the slash-separated path inside it. The deepest archive
// component wins. A path that names an archive itself yields an empty inner
// path; ok is false when no component is an archive.
func SplitVirtualPath(path string) (archivePath, inner string, ok bool) {
	current := filepath.Clean(path)

	for {
		parent := filepath.Dir(current)
		if parent == current {
			return "", "", false
		}

		if IsArchive(current) {
			rest := strings.TrimPrefix(filepath.Clean(path), current)
			rest = strings.TrimLeft(rest, `/\`)

			return current, strings.ReplaceAll(rest, `\`, "/"), true
		}

		current = parent
	}
}

// Remover rewrites archives without selected entries.
type Remover struct{}

// NewRemover creates a Remover.
func NewRemover() *Remover {
	return &Remover{}
}

// RemoveEntries removes entries (and everything under entries naming a
// directory) from the archive at archivePath. Only zip archives are supported.
func (r *Remover) RemoveEntries(archivePath string, entries []string) error {
	switch FormatFromPath(archivePath) {
	case FormatZip:
		return removeFromZip(archivePath, entries)
	case FormatNone:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, archivePath)
	default:
		return fmt.Errorf("%w: removing entries from %s is not supported", ErrUnsupportedFormat,
			filepath.Base(archivePath))
	}
}

func shouldRemove(name string, entries []string) bool {
	name = strings.ReplaceAll(name, `\`, "/")

	for _, entry := range entries {
		entry = strings.ReplaceAll(entry, `\`, "/")
		if name == entry {
			return true
		}

		prefix := entry
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}

		if strings.HasPrefix(name, prefix) {
			return true
		}
	}

	return false
}

func removeFromZip(archivePath string, entries []string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}

	tmpPath := archivePath + ".tmp"

	err = rewriteZip(reader, tmpPath, entries)

	closeErr := reader.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close archive %s: %w", archivePath, closeErr)
	}

	if err != nil {
		_ = os.Remove(tmpPath)

		return err
	}

	err = os.Rename(tmpPath, archivePath)
	if err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("failed to replace archive %s: %w", archivePath, err)
	}

	return nil
}

func rewriteZip(reader *zip.ReadCloser, tmpPath string, entries []string) error {
	out, err := os.Create(tmpPath) // #nosec G304 - path derived from caller's archive path
	if err != nil {
		return fmt.Errorf("failed to create temporary archive %s: %w", tmpPath, err)
	}

	writer := zip.NewWriter(out)
	writer.SetComment(reader.Comment)

	for _, file := range reader.File {
		if shouldRemove(file.Name, entries) {
			continue
		}

		// Copy moves the compressed bytes without recompressing.
		err = writer.Copy(file)
		if err != nil {
			_ = out.Close()

			return fmt.Errorf("failed to copy archive entry %s: %w", file.Name, err)
		}
	}

	err = writer.Close()
	if err != nil {
		_ = out.Close()

		return fmt.Errorf("failed to finish archive %s: %w", tmpPath, err)
	}

	err = out.Close()
	if err != nil {
		return fmt.Errorf("failed to close temporary archive %s: %w", tmpPath, err)
	}

	return nil
}
