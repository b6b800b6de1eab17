package opengine

import (
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/joe/bulkops/pkg/filesystem"
)

// Pair is one unit of slow-path work: a file to stream or a directory to create.
type Pair struct {
	Source string
	Dest   string
	Size   int64
	IsDir  bool
}

// Plan is the write-once result of planning an operation.
type Plan struct {
	Pairs      []Pair
	TotalBytes int64
	TotalFiles int
	FastMoved  int
	// SlowDirs are top-level directory sources that went through the slow path.
	SlowDirs []string

	// Delete and Trash only.
	Real     []string
	Virtual  map[string][]string // archive path -> inner paths
	Archives []string            // keys of Virtual, sorted
}

// VirtualPathSplitter splits a path inside an archive into the archive path
// and the inner path. ok is false for ordinary paths.
type VirtualPathSplitter func(path string) (archivePath, inner string, ok bool)

// Planner turns a request into a Plan.
type Planner struct {
	fs     filesystem.FileSystem
	split  VirtualPathSplitter
	filter FileFilter
	log    zerolog.Logger
}

// NewPlanner creates a planner. split and filter may be nil.
func NewPlanner(fs filesystem.FileSystem, split VirtualPathSplitter, filter FileFilter, log zerolog.Logger) *Planner {
	return &Planner{fs: fs, split: split, filter: filter, log: log}
}

// Plan computes the work for kind. For Move it first tries to rename every
// top-level source into destination; only sources whose rename fails are
// flattened. Planning stops early when controls are cancelled; the caller
// checks controls before using the result.
func (p *Planner) Plan(kind Kind, sources []string, destination string, controls *Controls) Plan {
	switch kind {
	case KindDelete, KindTrash:
		return p.planRemoval(sources)
	case KindMove:
		return p.planTransfer(sources, destination, controls, true)
	case KindCopy:
		return p.planTransfer(sources, destination, controls, false)
	default:
		return Plan{}
	}
}

func (p *Planner) planRemoval(sources []string) Plan {
	plan := Plan{Virtual: map[string][]string{}}

	type virtualSource struct{ archive, inner string }

	var virtual []virtualSource

	for _, src := range sources {
		if p.split != nil {
			if arc, inner, ok := p.split(src); ok && inner != "" {
				virtual = append(virtual, virtualSource{arc, inner})

				continue
			}
		}

		plan.Real = append(plan.Real, src)
	}

	grouped := lo.GroupBy(virtual, func(v virtualSource) string { return v.archive })
	for arc, members := range grouped {
		plan.Virtual[arc] = lo.Map(members, func(v virtualSource, _ int) string { return v.inner })
	}

	plan.Archives = lo.Keys(plan.Virtual)
	sort.Strings(plan.Archives)
	plan.TotalFiles = len(plan.Real) + len(virtual)

	return plan
}

func (p *Planner) planTransfer(sources []string, destination string, controls *Controls, move bool) Plan {
	var plan Plan

	for _, src := range sources {
		if controls.Cancelled() {
			return plan
		}

		info, err := p.fs.Lstat(src)
		if err != nil {
			p.log.Debug().Err(err).Str("source", src).Msg("skipping missing source")

			continue
		}

		target := filepath.Join(destination, filepath.Base(src))

		if move {
			err = p.fs.Rename(src, target)
			if err == nil {
				plan.FastMoved++
				p.log.Debug().Str("source", src).Str("dest", target).Msg("fast move")

				continue
			}

			p.log.Debug().Err(err).Str("source", src).Msg("rename failed, copying instead")
		}

		if !info.IsDir() {
			plan.add(Pair{Source: src, Dest: target, Size: info.Size()})

			continue
		}

		plan.SlowDirs = append(plan.SlowDirs, src)
		plan.add(Pair{Source: src, Dest: target, IsDir: true})
		p.flatten(&plan, src, target, controls)
	}

	return plan
}

func (p *Planner) flatten(plan *Plan, root, target string, controls *Controls) {
	scanner := p.fs.Scan(root)

	for {
		if controls.Cancelled() {
			return
		}

		entry, ok := scanner.Next()
		if !ok {
			break
		}

		if p.filter != nil && p.filter.Excludes(entry.RelativePath) {
			if entry.IsDir {
				scanner.SkipDir()
			}

			continue
		}

		pair := Pair{
			Source: entry.Path,
			Dest:   filepath.Join(target, entry.RelativePath),
			IsDir:  entry.IsDir,
		}
		if !entry.IsDir {
			pair.Size = entry.Size
		}

		plan.add(pair)
	}

	if err := scanner.Err(); err != nil {
		p.log.Debug().Err(err).Str("source", root).Msg("enumeration failed")
	}

	if skipped := scanner.Skipped(); skipped > 0 {
		p.log.Debug().Int("skipped", skipped).Str("source", root).Msg("entries skipped during enumeration")
	}
}

func (plan *Plan) add(pair Pair) {
	plan.Pairs = append(plan.Pairs, pair)
	plan.TotalBytes += pair.Size
	plan.TotalFiles++
}
