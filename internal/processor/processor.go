// Package processor runs the read/edit/write pipeline over batches of files.
//
// Files are processed in parallel up to the configured worker limit. One
// file's failure never stops the batch; every file yields a report and the
// batch yields an aggregate. Cancellation is checked between files, never
// inside one file's processing.
package processor

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tagforgeapp/tagforge-server/internal/config"
	"github.com/tagforgeapp/tagforge-server/internal/id"
	"github.com/tagforgeapp/tagforge-server/internal/logger"
	"github.com/tagforgeapp/tagforge-server/internal/reader"
	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
	"github.com/tagforgeapp/tagforge-server/internal/writer"
)

// EditFunc mutates one record between read and write. A nil EditFunc makes
// the run a pure renormalization pass.
type EditFunc func(*tagfile.TagFile) error

// Status classifies the outcome of one file.
type Status string

const (
	StatusWritten   Status = "written"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// FileReport is the outcome of one file in a batch.
type FileReport struct {
	ID          string
	Path        string
	Status      Status
	Err         error
	Diagnostics []string
}

// BatchReport aggregates a whole run.
type BatchReport struct {
	ID        string
	Files     []FileReport
	Written   int
	Unchanged int
	Failed    int
	Skipped   int
	Elapsed   time.Duration
}

// Processor drives reader and writer over batches.
type Processor struct {
	reader          *reader.Reader
	writer          *writer.Writer
	log             *logger.Logger
	workers         int
	continueOnError bool
}

// New creates a Processor with the given batch policy.
func New(r *reader.Reader, w *writer.Writer, log *logger.Logger, cfg config.BatchConfig) *Processor {
	return &Processor{
		reader:          r,
		writer:          w,
		log:             log,
		workers:         cfg.MaxConcurrent,
		continueOnError: cfg.ContinueOnError,
	}
}

// Run processes every path and returns the aggregate report. The error is
// non-nil only when the run was aborted: by cancellation, or by a file
// failure when continue-on-error is off. The report is returned either way.
func (p *Processor) Run(ctx context.Context, paths []string, edit EditFunc) (*BatchReport, error) {
	start := time.Now()
	files := make([]FileReport, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				files[i] = FileReport{ID: id.MustGenerate(id.PrefixFile), Path: path, Status: StatusSkipped, Err: err}
				return nil
			}
			files[i] = p.processOne(path, edit)
			if files[i].Err != nil && !p.continueOnError {
				return files[i].Err
			}
			return nil
		})
	}
	runErr := g.Wait()

	report := &BatchReport{
		ID:      id.MustGenerate(id.PrefixBatch),
		Files:   files,
		Elapsed: time.Since(start),
	}
	for _, f := range files {
		switch f.Status {
		case StatusWritten:
			report.Written++
		case StatusUnchanged:
			report.Unchanged++
		case StatusFailed:
			report.Failed++
		case StatusSkipped:
			report.Skipped++
		}
	}

	p.log.Info("batch finished",
		"batch", report.ID,
		"written", report.Written,
		"unchanged", report.Unchanged,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"elapsed", report.Elapsed)
	return report, runErr
}

// processOne runs read, edit, write for a single file.
func (p *Processor) processOne(path string, edit EditFunc) FileReport {
	report := FileReport{ID: id.MustGenerate(id.PrefixFile), Path: path}

	tf, d, err := p.reader.Read(path)
	if err != nil {
		p.log.WithError(err).Error("read failed", "path", path)
		report.Status = StatusFailed
		report.Err = err
		return report
	}
	report.Diagnostics = d.Lines()

	if edit != nil {
		if err := edit(tf); err != nil {
			report.Status = StatusFailed
			report.Err = err
			return report
		}
	}

	committed, wd, err := p.writer.Write(tf)
	if wd != nil {
		report.Diagnostics = append(report.Diagnostics, wd.Lines()...)
	}
	if err != nil {
		p.log.WithError(err).Error("write failed", "path", path)
		report.Status = StatusFailed
		report.Err = err
		return report
	}

	if committed {
		report.Status = StatusWritten
	} else {
		report.Status = StatusUnchanged
	}
	return report
}
