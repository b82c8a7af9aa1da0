// Package grab runs the standalone grabber: it fetches randomly chosen
// single items forever, with no tracker, throttling itself on failure.
package grab

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/rangegrab"
	"github.com/fwojciec/rangegrab/backoff"
)

// LogStore keeps the tool logs of finished jobs.
type LogStore interface {
	StoreAs(ctx context.Context, path, name string) (rangegrab.Artifact, error)
}

// Result is the outcome of one grab job.
type Result struct {
	ID       rangegrab.ItemID
	Name     string
	Status   int
	OK       bool
	Archive  string
	Log      string
	Delay    time.Duration
	Duration time.Duration
	Err      error
}

// Grabber fetches one random item per job and spaces jobs with an adaptive
// throttle: failures double the delay, a success resets it.
type Grabber struct {
	Fetcher  rangegrab.Fetcher
	Exit     rangegrab.ExitPolicy
	Alphabet rangegrab.Alphabet
	Picker   *Picker
	Throttle *backoff.Controller

	// Archives receives the archive of every successful job.
	Archives rangegrab.ArtifactStore
	// Logs receives the tool log of every job.
	Logs LogStore

	// WorkDir is recreated for every job and removed afterwards.
	WorkDir string
	Prefix  string

	// MaxJobs stops Run after that many jobs. Zero means no limit.
	MaxJobs int

	Wait     func(ctx context.Context, d time.Duration) error
	Now      func() time.Time
	Progress func(Result)
}

// NewGrabber returns a Grabber over the legacy alphabet with the default
// throttle and minDelay added to every wait.
func NewGrabber(fetcher rangegrab.Fetcher, archives rangegrab.ArtifactStore, logs LogStore, minDelay time.Duration) *Grabber {
	return &Grabber{
		Fetcher:  fetcher,
		Exit:     rangegrab.DefaultExitPolicy,
		Alphabet: rangegrab.LegacyAlphabet,
		Picker:   NewPicker(DefaultLimit, 1<<20),
		Throttle: backoff.NewController(minDelay),
		Archives: archives,
		Logs:     logs,
		WorkDir:  fmt.Sprintf("wget-temp-%d", os.Getpid()),
		Prefix:   "rangegrab",
	}
}

// Run does jobs until ctx is done. A job in flight is allowed to finish;
// cancellation takes effect during the wait between jobs.
func (g *Grabber) Run(ctx context.Context) error {
	for n := 0; g.MaxJobs == 0 || n < g.MaxJobs; n++ {
		if ctx.Err() != nil {
			return nil
		}
		r := g.Job(ctx)
		if g.Progress != nil {
			g.Progress(r)
		}
		if g.MaxJobs != 0 && n+1 == g.MaxJobs {
			break
		}
		if err := g.wait(ctx, r.Delay); err != nil {
			return nil
		}
	}
	return nil
}

// Job fetches one random item, keeps its log and, on success, its archive,
// and computes the delay before the next job.
func (g *Grabber) Job(ctx context.Context) Result {
	begin := g.now()
	id := g.Picker.Pick()
	r := Result{ID: id, Name: g.Alphabet.Encode(id)}

	r.OK, r.Err = g.fetch(context.WithoutCancel(ctx), &r)
	r.Duration = g.now().Sub(begin)
	if r.OK {
		g.Throttle.ReportSuccess()
	} else {
		g.Throttle.ReportFailure()
	}
	r.Delay = g.Throttle.NextDelay()
	return r
}

func (g *Grabber) fetch(ctx context.Context, r *Result) (bool, error) {
	if err := os.MkdirAll(g.WorkDir, 0755); err != nil {
		return false, err
	}
	defer os.RemoveAll(g.WorkDir)

	paths := rangegrab.FetchPaths{
		Log:     filepath.Join(g.WorkDir, "wget.log"),
		Archive: filepath.Join(g.WorkDir, fmt.Sprintf("%s-%s-%d.warc.gz", g.Prefix, r.Name, g.now().Unix())),
	}

	status, err := g.Fetcher.Fetch(ctx, r.Name, paths)
	r.Status = status

	logName := fmt.Sprintf("wget-%d-%s.log", g.now().Unix(), r.Name)
	if art, lerr := g.Logs.StoreAs(ctx, paths.Log, logName); lerr == nil {
		r.Log = art.Path
	} else if rangegrab.ErrorCode(lerr) != rangegrab.ENOTFOUND {
		err = errors.Join(err, lerr)
	}

	if err != nil || g.Exit.Classify(status) != rangegrab.ClassSuccess {
		return false, err
	}

	art, err := g.Archives.Store(ctx, paths.Archive)
	if rangegrab.ErrorCode(err) == rangegrab.ENOTFOUND {
		// The tool can succeed without writing an archive.
		return true, nil
	} else if err != nil {
		return false, err
	}
	r.Archive = art.Path
	return true, nil
}

func (g *Grabber) wait(ctx context.Context, d time.Duration) error {
	if g.Wait != nil {
		if err := g.Wait(ctx, d); err != nil {
			return err
		}
		return ctx.Err()
	}
	return backoff.Sleep(ctx, d)
}

func (g *Grabber) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}
