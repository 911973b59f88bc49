// Package cleanup consumes the walker's matches: each one is validated,
// reported, removed unless in dry-run mode, and recorded.
package cleanup

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/dustin/go-humanize"

	"broom/internal/database"
	"broom/internal/disk"
	"broom/internal/fsops"
	"broom/internal/metrics"
	"broom/internal/report"
	"broom/internal/safety"
	"broom/internal/scan"
)

// Summary totals one run.
type Summary struct {
	Matches        int
	Deleted        int
	DryRun         int
	Skipped        int
	DeleteFailures int
	// Bytes is the measured size of removed (or, in dry-run, removable)
	// artifacts. It stays zero unless measuring is enabled.
	Bytes      int64
	ByCategory map[string]int

	dryRun bool
}

func (s Summary) String() string {
	if s.dryRun {
		return fmt.Sprintf("would remove %d of %d artifacts (%s), skipped %d",
			s.DryRun, s.Matches, humanize.IBytes(uint64(s.Bytes)), s.Skipped)
	}
	return fmt.Sprintf("removed %d of %d artifacts (%s), skipped %d, failed %d",
		s.Deleted, s.Matches, humanize.IBytes(uint64(s.Bytes)), s.Skipped, s.DeleteFailures)
}

// Option configures a Runner.
type Option func(*Runner)

// WithDryRun reports matches without ever calling the deleter.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) { r.dryRun = dryRun }
}

// WithMeasure measures each match before it is removed.
func WithMeasure(measure bool) Option {
	return func(r *Runner) { r.measure = measure }
}

// WithValidator checks every match before removal. Matches that fail
// validation are reported but skipped.
func WithValidator(v *safety.Validator) Option {
	return func(r *Runner) { r.validator = v }
}

// WithHistory records every match in h.
func WithHistory(h *database.HistoryDB) Option {
	return func(r *Runner) { r.history = h }
}

// Runner removes matched artifacts.
type Runner struct {
	logger    *slog.Logger
	deleter   *observedDeleter
	out       report.Writer
	validator *safety.Validator
	history   *database.HistoryDB
	dryRun    bool
	measure   bool
}

// NewRunner creates a Runner that reports to out and removes through d.
func NewRunner(logger *slog.Logger, d fsops.Deleter, out report.Writer, opts ...Option) *Runner {
	metrics.Init()

	r := &Runner{
		logger:  logger,
		deleter: &observedDeleter{next: d, logger: logger},
		out:     out,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run pulls matches one at a time until the sequence ends or ctx is done.
// Removal and history failures never stop the run; a report write failure or
// cancellation does, and the partial summary is returned with the error.
func (r *Runner) Run(ctx context.Context, matches iter.Seq[scan.Match]) (Summary, error) {
	sum := Summary{ByCategory: map[string]int{}, dryRun: r.dryRun}

	for m := range matches {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := r.handle(m, &sum); err != nil {
			return sum, err
		}
	}

	return sum, ctx.Err()
}

func (r *Runner) handle(m scan.Match, sum *Summary) error {
	categories := m.Flag.Names()
	sum.Matches++
	for _, c := range categories {
		sum.ByCategory[c]++
	}
	metrics.RecordMatch(categories)

	var size *int64
	if r.measure {
		u, err := disk.Measure(m.Path)
		if err != nil {
			r.logger.Debug("measure artifact", slog.String("path", m.Path), slog.Any("err", err))
		} else {
			size = &u.Bytes
		}
	}

	if err := r.out.Write(report.NewRecord(m.Flag, m.Path, m.IsDir, size)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if r.validator != nil {
		if err := r.validator.Validate(m.Path); err != nil {
			r.logger.Warn("skipping artifact",
				slog.String("path", m.Path),
				slog.Any("err", err),
			)
			sum.Skipped++
			metrics.RecordRemoval(categories, "skip")
			r.record(database.ActionSkip, m, size, err.Error())
			return nil
		}
	}

	if r.dryRun {
		sum.DryRun++
		addBytes(sum, size)
		metrics.RecordRemoval(categories, "dry_run")
		r.record(database.ActionDryRun, m, size, "")
		return nil
	}

	r.deleter.last = nil
	fsops.RemoveTree(r.deleter, m.Path)
	if err := r.deleter.last; err != nil {
		sum.DeleteFailures++
		metrics.RecordRemoval(categories, "failed")
		r.record(database.ActionError, m, size, err.Error())
		return nil
	}

	sum.Deleted++
	addBytes(sum, size)
	metrics.RecordRemoval(categories, "delete")
	if size != nil {
		metrics.AddBytesReclaimed(*size)
	}
	r.record(database.ActionDelete, m, size, "")
	return nil
}

func (r *Runner) record(action database.Action, m scan.Match, size *int64, errMsg string) {
	if r.history == nil {
		return
	}
	if err := r.history.Record(action, m, size, errMsg); err != nil {
		r.logger.Error("record history", slog.String("path", m.Path), slog.Any("err", err))
	}
}

func addBytes(sum *Summary, size *int64) {
	if size != nil {
		sum.Bytes += *size
	}
}

// observedDeleter logs and counts failures of the wrapped deleter, then
// hands the error back for fsops.RemoveTree to discard.
type observedDeleter struct {
	next   fsops.Deleter
	logger *slog.Logger
	last   error
}

func (d *observedDeleter) RemoveAll(path string) error {
	err := d.next.RemoveAll(path)
	if err != nil {
		d.last = err
		d.logger.Debug("remove artifact", slog.String("path", path), slog.Any("err", err))
		metrics.DeleteFailuresTotal.Inc()
	}
	return err
}
