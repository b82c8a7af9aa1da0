package crawl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/rangegrab"
	"github.com/fwojciec/rangegrab/backoff"
	"github.com/google/uuid"
)

// ProgressEvent reports what a Worker is doing.
type ProgressEvent struct {
	Type   ProgressType
	Batch  string
	Report *rangegrab.Report
	Delay  time.Duration
	Error  error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressDone
	ProgressFailed
	ProgressCanceled
	ProgressIdle
)

// ProgressFunc is a callback for reporting worker progress.
type ProgressFunc func(event ProgressEvent)

// Worker pulls batches from a tracker and runs each through a Machine. A
// finished batch has its archives stored, uploaded, and reported done; a
// failed batch is reported failed. Every outcome is journaled if Reports is
// set.
type Worker struct {
	Tracker   rangegrab.Tracker
	Uploader  rangegrab.Uploader
	Artifacts rangegrab.ArtifactStore
	Reports   rangegrab.ReportService
	Fetcher   rangegrab.Fetcher
	Limiter   rangegrab.AttemptLimiter

	Exit   rangegrab.ExitPolicy
	Policy RetryPolicy

	// WorkDir is the parent of the per-batch work directories.
	WorkDir    string
	Prefix     string
	Downloader string
	Version    string

	// Idle spaces out batch requests while the tracker has nothing to hand out.
	Idle *backoff.Controller
	// MaxBatches stops Run after that many batches. Zero means no limit.
	MaxBatches int

	Wait     func(ctx context.Context, d time.Duration) error
	Now      func() time.Time
	Rand     func() float64
	Progress ProgressFunc
}

// NewWorker returns a Worker with the default exit and retry policies.
func NewWorker(tracker rangegrab.Tracker, uploader rangegrab.Uploader, artifacts rangegrab.ArtifactStore, fetcher rangegrab.Fetcher) *Worker {
	return &Worker{
		Tracker:   tracker,
		Uploader:  uploader,
		Artifacts: artifacts,
		Fetcher:   fetcher,
		Exit:      rangegrab.DefaultExitPolicy,
		Policy:    DefaultRetryPolicy(),
		WorkDir:   os.TempDir(),
		Prefix:    "rangegrab",
	}
}

// Run processes batches until ctx is done or MaxBatches is reached. Batch
// failures are reported and do not stop the loop. Cancellation is a clean
// shutdown and returns nil.
func (w *Worker) Run(ctx context.Context) error {
	idle := w.Idle
	if idle == nil {
		idle = &backoff.Controller{
			Base:   backoff.DefaultBase,
			Min:    backoff.DefaultMin,
			Max:    5 * time.Minute,
			Factor: backoff.DefaultFactor,
			Rand:   w.Rand,
		}
	}

	for n := 0; w.MaxBatches == 0 || n < w.MaxBatches; {
		if ctx.Err() != nil {
			return nil
		}

		name, err := w.Tracker.RequestBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			idle.ReportFailure()
			d := idle.NextDelay()
			w.progress(ProgressEvent{Type: ProgressIdle, Delay: d, Error: err})
			if err := w.wait(ctx, d); err != nil {
				return nil
			}
			continue
		}
		idle.ReportSuccess()
		n++

		if _, err := w.ProcessBatch(ctx, name); rangegrab.ErrorCode(err) == rangegrab.ECANCELED {
			return nil
		}
	}
	return nil
}

// ProcessBatch runs the named batch to completion and reports the outcome.
// The returned report is the one sent to the tracker and the journal.
func (w *Worker) ProcessBatch(ctx context.Context, name string) (*rangegrab.Report, error) {
	w.progress(ProgressEvent{Type: ProgressStarted, Batch: name})

	batch, err := rangegrab.NewBatch(name)
	if err != nil {
		return w.fail(ctx, &rangegrab.Batch{Name: name}, err)
	}

	dir := filepath.Join(w.WorkDir, batchDirReplacer.Replace(batch.Name))
	if err := os.RemoveAll(dir); err != nil {
		return w.fail(ctx, batch, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return w.fail(ctx, batch, err)
	}
	defer os.RemoveAll(dir)

	m := &Machine{
		Fetcher: w.Fetcher,
		Exit:    w.Exit,
		Policy:  w.Policy,
		Limiter: w.Limiter,
		WorkDir: dir,
		Prefix:  w.Prefix,
		Wait:    w.Wait,
		Now:     w.Now,
		Rand:    w.Rand,
	}
	m.Enqueue(batch)

	if err := m.Run(ctx); err != nil {
		if rangegrab.ErrorCode(err) == rangegrab.ECANCELED {
			return w.cancel(ctx, batch, err)
		}
		return w.fail(ctx, batch, err)
	}
	return w.deliver(ctx, batch)
}

var batchDirReplacer = strings.NewReplacer(",", "-", ":", "-")

// deliver stores, uploads, and reports a finished batch.
func (w *Worker) deliver(ctx context.Context, batch *rangegrab.Batch) (*rangegrab.Report, error) {
	report := w.newReport(batch, rangegrab.ReportDone, nil)

	var stored []string
	defer func() { w.discard(ctx, stored) }()

	for i := range batch.Items {
		item := &batch.Items[i]
		if item.Status != rangegrab.StatusSucceeded {
			continue
		}
		art, err := w.Artifacts.Store(ctx, item.ArtifactPath)
		if err != nil {
			return w.fail(ctx, batch, fmt.Errorf("store %s: %w", item.Name, err))
		}
		item.ArtifactPath = art.Path
		stored = append(stored, art.Path)

		report.Items[i].Bytes = art.Bytes
		report.Items[i].Checksum = art.Checksum
		report.Bytes += art.Bytes
	}

	if len(stored) > 0 {
		target, err := w.Tracker.UploadTarget(ctx, batch.Name)
		if err == nil {
			err = w.Uploader.Upload(ctx, target, stored)
		}
		if err != nil {
			if ctx.Err() != nil {
				return w.cancel(ctx, batch, fmt.Errorf("%w: %w", rangegrab.Errorf(rangegrab.ECANCELED, "upload of %s canceled", batch.Name), err))
			}
			return w.fail(ctx, batch, fmt.Errorf("upload: %w", err))
		}
	}

	if err := w.Tracker.Done(ctx, report); err != nil {
		report.Status = rangegrab.ReportFailed
		report.Error = err.Error()
		err = errors.Join(fmt.Errorf("report done: %w", err), w.journal(ctx, report))
		w.progress(ProgressEvent{Type: ProgressFailed, Batch: batch.Name, Report: report, Error: err})
		return report, err
	}

	err := w.journal(ctx, report)
	w.progress(ProgressEvent{Type: ProgressDone, Batch: batch.Name, Report: report, Error: err})
	return report, err
}

// fail reports a batch that could not be completed.
func (w *Worker) fail(ctx context.Context, batch *rangegrab.Batch, cause error) (*rangegrab.Report, error) {
	report := w.newReport(batch, rangegrab.ReportFailed, cause)
	err := errors.Join(cause, w.Tracker.Fail(ctx, report), w.journal(ctx, report))
	w.progress(ProgressEvent{Type: ProgressFailed, Batch: batch.Name, Report: report, Error: err})
	return report, err
}

// cancel journals the partial outcome of an interrupted batch. The tracker
// is not told; it hands the batch out again once its claim expires.
func (w *Worker) cancel(ctx context.Context, batch *rangegrab.Batch, cause error) (*rangegrab.Report, error) {
	report := w.newReport(batch, rangegrab.ReportCanceled, cause)
	err := errors.Join(cause, w.journal(ctx, report))
	w.progress(ProgressEvent{Type: ProgressCanceled, Batch: batch.Name, Report: report, Error: err})
	return report, err
}

func (w *Worker) newReport(batch *rangegrab.Batch, status rangegrab.ReportStatus, cause error) *rangegrab.Report {
	r := rangegrab.NewReport(batch, status)
	r.ID = uuid.New().String()
	r.Downloader = w.Downloader
	r.Version = w.Version
	r.CreatedAt = w.now().UTC()
	if cause != nil {
		r.Error = cause.Error()
	}
	return r
}

// journal records report locally. It outlives ctx so that a canceled batch
// still leaves a record.
func (w *Worker) journal(ctx context.Context, report *rangegrab.Report) error {
	if w.Reports == nil {
		return nil
	}
	if err := w.Reports.CreateReport(context.WithoutCancel(ctx), report); err != nil {
		return fmt.Errorf("journal report: %w", err)
	}
	return nil
}

func (w *Worker) discard(ctx context.Context, paths []string) {
	for _, p := range paths {
		_ = w.Artifacts.Remove(context.WithoutCancel(ctx), p)
	}
}

func (w *Worker) progress(event ProgressEvent) {
	if w.Progress != nil {
		w.Progress(event)
	}
}

func (w *Worker) wait(ctx context.Context, d time.Duration) error {
	if w.Wait != nil {
		if err := w.Wait(ctx, d); err != nil {
			return err
		}
		return ctx.Err()
	}
	return backoff.Sleep(ctx, d)
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}
