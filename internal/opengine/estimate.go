package opengine

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joe/bulkops/pkg/filesystem"
)

// Preflight estimate caps.
const (
	EstimateMaxFiles = 200
	EstimateMaxTime  = 50 * time.Millisecond
)

// Conflict is a source whose name already exists in the destination.
type Conflict struct {
	Name   string
	Source string
	Target string
}

// Estimation is a quick preflight look at a Copy or Move request.
type Estimation struct {
	Totals        Totals
	IsCrossVolume bool
	// LikelyLarge is set when the walk stopped at a cap; Totals are then a
	// lower bound.
	LikelyLarge bool
	Conflicts   []Conflict
}

// Estimate inspects sources and destination without changing anything. It
// is meant to fill Request.IsCrossVolume and Request.TotalsHint.
func Estimate(sources []string, destination string) Estimation {
	return estimate(filesystem.NewRealFileSystem(), sources, destination, time.Now)
}

func estimate(fs filesystem.FileSystem, sources []string, destination string, now func() time.Time) Estimation {
	var est Estimation

	start := now()
	destDev, destOK := deviceID(existingAncestor(destination))

	for _, src := range sources {
		if srcDev, ok := deviceID(src); ok && destOK && srcDev != destDev {
			est.IsCrossVolume = true
		}

		if !est.LikelyLarge {
			est.LikelyLarge = estimateSource(fs, src, &est.Totals, start, now)
		}

		name := filepath.Base(src)
		target := filepath.Join(destination, name)

		if _, err := fs.Lstat(target); err == nil {
			est.Conflicts = append(est.Conflicts, Conflict{Name: name, Source: src, Target: target})
		}
	}

	return est
}

// estimateSource adds src to totals and reports whether a cap was hit.
func estimateSource(fs filesystem.FileSystem, src string, totals *Totals, start time.Time,
	now func() time.Time,
) bool {
	info, err := fs.Lstat(src)
	if err != nil {
		return false
	}

	if !info.IsDir() {
		totals.Bytes += info.Size()
		totals.Files++

		return false
	}

	scanner := fs.Scan(src)

	for {
		entry, ok := scanner.Next()
		if !ok {
			return false
		}

		if entry.Mode.IsRegular() {
			totals.Bytes += entry.Size
			totals.Files++
		}

		if totals.Files > EstimateMaxFiles || now().Sub(start) > EstimateMaxTime {
			return true
		}
	}
}

func existingAncestor(path string) string {
	current := filepath.Clean(path)

	for {
		if _, err := os.Stat(current); err == nil {
			return current
		}

		parent := filepath.Dir(current)
		if parent == current {
			return current
		}

		current = parent
	}
}
