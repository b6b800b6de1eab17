package opengine

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/joe/bulkops/pkg/fileops"
	"github.com/joe/bulkops/pkg/filesystem"
)

// RemovalThrottle is the pause after each removed item when turbo is off.
const RemovalThrottle = 5 * time.Millisecond

// transfer executes one Copy or Move pair per unit.
type transfer struct {
	id       string
	pairs    []Pair
	move     bool
	fs       filesystem.FileSystem
	ops      *fileops.FileOps
	controls *Controls
	progress *progress
	onError  func(FileError)
	log      zerolog.Logger
}

func (t *transfer) unit(i int) {
	pair := t.pairs[i]
	t.progress.setCurrent(pair.Source)

	if pair.IsDir {
		err := t.fs.MkdirAll(pair.Dest, fileops.DefaultDirPermissions)
		if err != nil {
			t.fail(pair.Source, err)
		}

		t.progress.processedFiles.Add(1)

		return
	}

	var copied int64

	_, err := t.ops.CopyFile(pair.Source, pair.Dest, t.controls, func(n int64) {
		copied += n
		t.progress.processedBytes.Add(n)
	})

	switch {
	case errors.Is(err, fileops.ErrCopyCancelled):
		// Partial destination already removed; the source stays.
		return
	case err != nil:
		if rest := pair.Size - copied; rest > 0 {
			t.progress.processedBytes.Add(rest)
		}

		t.progress.processedFiles.Add(1)
		t.fail(pair.Source, err)

		return
	}

	if t.move {
		if err := t.fs.Remove(pair.Source); err != nil {
			t.fail(pair.Source, err)
		}
	}

	t.progress.processedFiles.Add(1)
}

func (t *transfer) fail(path string, err error) {
	t.log.Debug().Err(err).Str("path", path).Msg("skipping file")

	if t.onError != nil {
		t.onError(FileError{OperationID: t.id, Path: path, Err: err})
	}
}

// removal deletes or trashes one top-level source per unit.
type removal struct {
	id       string
	sources  []string
	trash    bool
	fs       filesystem.FileSystem
	shell    Shell
	controls *Controls
	clock    TimeProvider
	progress *progress
	onError  func(FileError)
	log      zerolog.Logger
}

func (r *removal) unit(i int) {
	src := r.sources[i]
	r.progress.setCurrent(src)

	var err error
	if r.trash {
		err = r.shell.TrashAll([]string{src})
	} else {
		err = r.fs.RemoveAll(src)
	}

	if err != nil {
		r.log.Debug().Err(err).Str("path", src).Msg("skipping item")

		if r.onError != nil {
			r.onError(FileError{OperationID: r.id, Path: src, Err: err})
		}
	}

	r.progress.processedFiles.Add(1)

	if !r.controls.Turbo() {
		r.clock.Sleep(RemovalThrottle)
	}
}
