// Package config handles application configuration and command-line argument parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alexflint/go-arg"

	"github.com/joe/bulkops/internal/archive"
	"github.com/joe/bulkops/internal/logging"
	"github.com/joe/bulkops/internal/opengine"
)

// Validation errors.
var (
	ErrNoSources          = errors.New("at least one source path is required")
	ErrNoDestination      = errors.New("destination path is required")
	ErrSourceMissing      = errors.New("source path does not exist")
	ErrDestinationMissing = errors.New("destination path does not exist")
	ErrNotADirectory      = errors.New("destination path is not a directory")
	ErrDestInsideSource   = errors.New("destination is inside a source")
)

// Config holds the application configuration
type Config struct {
	Kind        opengine.Kind `arg:"positional,required" help:"Operation: copy|move|delete|trash"`
	Sources     []string      `arg:"positional" help:"Files or directories to operate on"`
	DestPath    string        `arg:"-d,--dest" help:"Destination directory (copy and move)"`
	Turbo       bool          `arg:"-t,--turbo" help:"Start at full speed instead of in the background"`
	CrossVolume bool          `arg:"--cross-volume" help:"Treat the destination as another volume"`
	Exclude     []string      `arg:"-x,--exclude,separate" help:"Glob of relative paths to skip (repeatable)"`
	Workers     int           `arg:"-w,--workers" default:"0" help:"Number of worker threads (0 = 2 x CPUs, 4..16)"`
	LogLevel    string        `arg:"--log-level" default:"info" help:"Log level: trace|debug|info|warn|error|disabled"`
	LogFile     string        `arg:"--log-file" help:"Append logs to this file instead of stderr"`
	HistoryDB   string        `arg:"--history-db" help:"History database path (default: user config dir)"`
	NoHistory   bool          `arg:"--no-history" help:"Do not record the operation for undo"`
	NoTUI       bool          `arg:"--no-tui" help:"Disable the interactive progress view"`
}

// Description returns the program description for go-arg
func (Config) Description() string {
	return "Concurrent bulk copy, move, delete and trash with live progress"
}

// Version returns the version string for go-arg
func (Config) Version() string {
	return "bulkops 1.0.0"
}

// ParseFlags parses command-line flags and returns configuration
func ParseFlags() (*Config, error) {
	cfg := &Config{LogLevel: "info"}

	arg.MustParse(cfg)

	return PostProcessConfig(cfg)
}

// Parse parses args (without the program name). It is ParseFlags without
// the exit-on-error behaviour.
func Parse(args []string) (*Config, error) {
	cfg := &Config{LogLevel: "info"}

	parser, err := arg.NewParser(arg.Config{Program: "bulkops"}, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build argument parser: %w", err)
	}

	err = parser.Parse(args)
	if err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	return PostProcessConfig(cfg)
}

// PostProcessConfig applies post-processing logic to a parsed config
func PostProcessConfig(cfg *Config) (*Config, error) {
	for i, src := range cfg.Sources {
		abs, err := filepath.Abs(src)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve source path %s: %w", src, err)
		}

		cfg.Sources[i] = abs
	}

	if cfg.needsDestination() && cfg.DestPath != "" {
		abs, err := filepath.Abs(cfg.DestPath)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve destination path %s: %w", cfg.DestPath, err)
		}

		cfg.DestPath = abs
	}

	if !cfg.needsDestination() {
		cfg.DestPath = ""
	}

	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	if cfg.HistoryDB == "" && !cfg.NoHistory {
		path, err := DefaultHistoryPath()
		if err != nil {
			return nil, err
		}

		cfg.HistoryDB = path
	}

	if err := cfg.ValidatePaths(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ValidatePaths validates that source and destination paths are valid
func (cfg *Config) ValidatePaths() error {
	if len(cfg.Sources) == 0 {
		return ErrNoSources
	}

	for _, src := range cfg.Sources {
		if err := cfg.validateSource(src); err != nil {
			return err
		}
	}

	if !cfg.needsDestination() {
		return nil
	}

	if cfg.DestPath == "" {
		return ErrNoDestination
	}

	destInfo, err := os.Stat(cfg.DestPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrDestinationMissing, cfg.DestPath)
	}

	if err != nil {
		return fmt.Errorf("cannot access destination path: %w", err)
	}

	if !destInfo.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotADirectory, cfg.DestPath)
	}

	for _, src := range cfg.Sources {
		if isWithin(cfg.DestPath, src) {
			return fmt.Errorf("%w: %s is under %s", ErrDestInsideSource, cfg.DestPath, src)
		}
	}

	return nil
}

// Request converts the configuration into an engine request.
func (cfg *Config) Request() opengine.Request {
	return opengine.Request{
		Kind:          cfg.Kind,
		Sources:       append([]string(nil), cfg.Sources...),
		Destination:   cfg.DestPath,
		Turbo:         cfg.Turbo,
		IsCrossVolume: cfg.CrossVolume,
		Exclude:       append([]string(nil), cfg.Exclude...),
	}
}

// DefaultHistoryPath returns the history database location under the
// user's config directory.
func DefaultHistoryPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate user config directory: %w", err)
	}

	return filepath.Join(dir, "bulkops", "history.db"), nil
}

func (cfg *Config) needsDestination() bool {
	return cfg.Kind == opengine.KindCopy || cfg.Kind == opengine.KindMove
}

// validateSource accepts existing paths and, for Delete and Trash, entries
// inside an existing archive.
func (cfg *Config) validateSource(src string) error {
	_, err := os.Lstat(src)
	if err == nil {
		return nil
	}

	// A path below a regular file (an archive entry) fails with ENOTDIR.
	if !os.IsNotExist(err) && !errors.Is(err, syscall.ENOTDIR) {
		return fmt.Errorf("cannot access source path: %w", err)
	}

	if !cfg.needsDestination() {
		if arc, inner, ok := archive.SplitVirtualPath(src); ok && inner != "" {
			if _, statErr := os.Stat(arc); statErr == nil {
				return nil
			}
		}
	}

	return fmt.Errorf("%w: %s", ErrSourceMissing, src)
}

func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
