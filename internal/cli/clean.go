package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"broom/internal/cleaner"
	"broom/internal/cleanup"
	"broom/internal/config"
	"broom/internal/database"
	"broom/internal/disk"
	"broom/internal/fsops"
	"broom/internal/logging"
	"broom/internal/metrics"
	"broom/internal/report"
	"broom/internal/safety"
	"broom/internal/scan"
)

type CleanArgs struct {
	*RootArgs

	Roots       []string
	Types       []string
	DryRun      bool
	Output      string
	Size        bool
	HistoryPath string
	MetricsFile string
	Protect     []string
}

func NewCleanArgs(rootArgs *RootArgs) *CleanArgs {
	return &CleanArgs{
		RootArgs: rootArgs,
	}
}

func (ca *CleanArgs) AddFlags(cmd *cobra.Command) {
	types := append([]string{"all", "none"}, cleaner.Names()...)

	cmd.Flags().StringSliceVarP(&ca.Types, "type", "t", nil,
		fmt.Sprintf("Artifact categories to remove, any of: %s (default none)", types))
	cmd.Flags().BoolVar(&ca.DryRun, "dry-run", false, "Report artifacts without removing them")
	cmd.Flags().StringVarP(&ca.Output, "output", "o", string(report.FormatText),
		fmt.Sprintf("Report format, one of: %s", report.AllFormats))
	cmd.Flags().BoolVar(&ca.Size, "size", false, "Measure each artifact before removing it")
	cmd.Flags().StringVar(&ca.HistoryPath, "history", "", "Record removals in this SQLite database")
	cmd.Flags().StringVar(&ca.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	cmd.Flags().StringSliceVar(&ca.Protect, "protect", nil, "Never remove anything at or below these paths")

	var err error

	err = cmd.RegisterFlagCompletionFunc("type",
		cobra.FixedCompletions(types, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions(report.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.MarkFlagFilename("history", "db", "sqlite")
	if err != nil {
		panic(fmt.Errorf("mark history flag: %w", err))
	}

	err = cmd.MarkFlagFilename("metrics-file", "prom")
	if err != nil {
		panic(fmt.Errorf("mark metrics-file flag: %w", err))
	}

	err = cmd.MarkFlagDirname("protect")
	if err != nil {
		panic(fmt.Errorf("mark protect flag: %w", err))
	}
}

func (ca *CleanArgs) options() config.Options {
	return config.Options{
		Roots:       ca.Roots,
		Types:       ca.Types,
		DryRun:      ca.DryRun,
		Output:      ca.Output,
		Size:        ca.Size,
		HistoryPath: ca.HistoryPath,
		MetricsFile: ca.MetricsFile,
		Protect:     ca.Protect,
	}
}

func runClean(cmd *cobra.Command, ca *CleanArgs) (err error) {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)

	cfg, err := ca.options().Resolve()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}

	logger.Debug("resolved options",
		slog.Any("roots", cfg.Roots),
		slog.String("types", cfg.Flag.String()),
		slog.Bool("dry_run", cfg.DryRun),
		slog.String("output", string(cfg.Output)),
	)

	if cfg.Flag == cleaner.None {
		logger.Warn("no artifact categories selected, pass --type to choose some")
	}

	opts := []cleanup.Option{
		cleanup.WithDryRun(cfg.DryRun),
		cleanup.WithMeasure(cfg.Size),
		cleanup.WithValidator(safety.NewValidator(cfg.Roots, cfg.Protect)),
	}

	if cfg.HistoryPath != "" {
		history, err := database.Open(cfg.HistoryPath)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer func() {
			if cerr := history.Close(); cerr != nil {
				logger.Error("close history", slog.Any("err", cerr))
			}
		}()
		opts = append(opts, cleanup.WithHistory(history))
	}

	out, err := report.NewWriter(cmd.OutOrStdout(), cfg.Output)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	freeBefore := freeSpace(cfg.Roots)

	walker := scan.NewWalker(fsops.OSFS{}, logger)
	cleaners := cleaner.Builtin().Compile(cfg.Flag)
	runner := cleanup.NewRunner(logger, fsops.OSDeleter{}, out, opts...)

	start := time.Now()
	sum, runErr := runner.Run(ctx, walker.Clean(cfg.Roots, cleaners))

	metrics.RecordWalkErrors(walker.Errors())
	metrics.RecordRun(start)

	freeAfter := freeSpace(cfg.Roots)
	for root, free := range freeAfter {
		metrics.SetFreeBytes(root, free)
	}

	attrs := []any{
		slog.Int("matches", sum.Matches),
		slog.Int("skipped", sum.Skipped),
		slog.Int("walk_errors", walker.Errors()),
		slog.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
	}
	if !cfg.DryRun {
		attrs = append(attrs,
			slog.Int("deleted", sum.Deleted),
			slog.Int("failed", sum.DeleteFailures),
			slog.String("freed", humanize.IBytes(uint64(max(0, freedBytes(freeBefore, freeAfter))))),
		)
	}
	if len(sum.ByCategory) > 0 {
		attrs = append(attrs, slog.String("categories", formatCounts(sum.ByCategory)))
	}
	logger.Info(sum.String(), attrs...)

	if cfg.MetricsFile != "" {
		if merr := metrics.WriteTextfile(cfg.MetricsFile); merr != nil {
			logger.Error("write metrics", slog.String("path", cfg.MetricsFile), slog.Any("err", merr))
		}
	}

	if runErr != nil {
		return fmt.Errorf("run: %w", runErr)
	}
	return nil
}

// freeSpace returns the free bytes of each root's filesystem. Roots that
// cannot be probed are left out.
func freeSpace(roots []string) map[string]int64 {
	free := make(map[string]int64, len(roots))
	for _, root := range roots {
		if f, _, err := disk.Free(root); err == nil {
			free[root] = f
		}
	}
	return free
}

// freedBytes is the growth of free space summed over filesystems. Roots on the
// same filesystem report the same numbers, so each distinct before/after pair
// is counted once.
func freedBytes(before, after map[string]int64) int64 {
	type pair struct{ before, after int64 }
	seen := map[pair]bool{}

	var total int64
	for root, a := range after {
		b, ok := before[root]
		if !ok {
			continue
		}
		p := pair{b, a}
		if seen[p] {
			continue
		}
		seen[p] = true
		total += a - b
	}
	return total
}

func formatCounts(counts map[string]int) string {
	var parts []string
	for _, name := range cleaner.Names() {
		if n, ok := counts[name]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", name, n))
		}
	}
	return strings.Join(parts, " ")
}
