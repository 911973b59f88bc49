// Package config turns command-line options into a validated run
// configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"broom/internal/cleaner"
	"broom/internal/report"
)

var (
	errEmptyRoot   = errors.New("root path cannot be empty")
	errEmptyTarget = errors.New("path cannot be empty")
)

// Options are the raw values of flags and environment variables.
type Options struct {
	Roots       []string
	Types       []string
	DryRun      bool
	Output      string
	Size        bool
	HistoryPath string
	MetricsFile string
	Protect     []string
}

// Config is a validated run configuration.
type Config struct {
	// Roots are absolute, symlink-resolved and in argument order.
	Roots []string
	Flag  cleaner.Flag
	// Output is the report format.
	Output      report.Format
	DryRun      bool
	Size        bool
	HistoryPath string
	MetricsFile string
	Protect     []string
}

// Resolve validates o and fills in defaults.
func (o Options) Resolve() (*Config, error) {
	cfg := &Config{
		DryRun: o.DryRun,
		Size:   o.Size,
	}

	roots := o.Roots
	if len(roots) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		roots = []string{wd}
	}
	for _, root := range roots {
		if root == "" {
			return nil, errEmptyRoot
		}
		resolved, err := ResolvePath(root)
		if err != nil {
			return nil, err
		}
		cfg.Roots = append(cfg.Roots, resolved)
	}

	// No --type selects nothing; categories are opt-in.
	cfg.Flag = cleaner.None
	if len(o.Types) > 0 {
		flag, err := cleaner.ParseFlags(o.Types)
		if err != nil {
			return nil, err
		}
		cfg.Flag = flag
	}

	output := o.Output
	if output == "" {
		output = string(report.FormatText)
	}
	format, err := report.GetFormat(output)
	if err != nil {
		return nil, err
	}
	cfg.Output = format

	for _, p := range o.Protect {
		if p == "" {
			return nil, fmt.Errorf("protect: %w", errEmptyTarget)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("protect %s: %w", p, err)
		}
		cfg.Protect = append(cfg.Protect, abs)
	}

	if cfg.HistoryPath, err = absOrEmpty(o.HistoryPath); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	if cfg.MetricsFile, err = absOrEmpty(o.MetricsFile); err != nil {
		return nil, fmt.Errorf("metrics file: %w", err)
	}
	return cfg, nil
}

// ResolvePath makes path absolute and resolves symlinks. A path that does not
// exist is returned absolute but unresolved.
func ResolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, nil
	}
	return resolved, nil
}

func absOrEmpty(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	return filepath.Abs(path)
}
