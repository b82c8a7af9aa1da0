// Package crawl drives batches of sub-items through the external fetch
// tool, one attempt at a time, and reports finished batches to the tracker.
package crawl

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fwojciec/rangegrab"
	"github.com/fwojciec/rangegrab/backoff"
)

// State is the state of a Machine.
type State int

// Machine states.
const (
	StateNotStarted State = iota
	StateRunning
	StateWaitingRetry
	StateDone
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateWaitingRetry:
		return "waiting_retry"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// RetryPolicy configures how a Machine reacts to failed attempts. Transient
// and generic failures are deliberately separate policies with separate
// ceilings; both ceilings count attempts across the whole batch.
type RetryPolicy struct {
	// TransientCeiling is the number of transient failures that fails the batch.
	TransientCeiling int `yaml:"transient_ceiling"`
	// TransientMin is the first transient retry delay, restored on success.
	TransientMin time.Duration `yaml:"transient_min"`
	// TransientMax caps the transient retry delay.
	TransientMax time.Duration `yaml:"transient_max"`
	// TransientFactor grows the transient retry delay after every failure.
	TransientFactor float64 `yaml:"transient_factor"`

	// GenericCeiling is the number of generic failures that fails the batch.
	GenericCeiling int `yaml:"generic_ceiling"`
	// GenericDelay is the fixed delay before retrying a generic failure.
	GenericDelay time.Duration `yaml:"generic_delay"`

	// Pacing spaces out successful attempts.
	Pacing backoff.Pacing `yaml:"-"`
}

// DefaultRetryPolicy returns the observed production policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		TransientCeiling: 20,
		TransientMin:     10 * time.Second,
		TransientMax:     300 * time.Second,
		TransientFactor:  1.5,
		GenericCeiling:   2,
		GenericDelay:     30 * time.Second,
		Pacing:           backoff.DefaultPacing,
	}
}

// Validate returns EINVALID if a ceiling or delay is unusable.
func (p RetryPolicy) Validate() error {
	if p.TransientCeiling < 1 || p.GenericCeiling < 1 {
		return rangegrab.Errorf(rangegrab.EINVALID, "retry ceilings must be positive")
	}
	if p.TransientFactor < 1 {
		return rangegrab.Errorf(rangegrab.EINVALID, "transient factor %.2f below 1", p.TransientFactor)
	}
	if p.TransientMin < 0 || p.TransientMax < p.TransientMin || p.GenericDelay < 0 {
		return rangegrab.Errorf(rangegrab.EINVALID, "retry delays out of order")
	}
	return nil
}

// Machine executes one batch at a time, strictly sequentially: one fetch in
// flight, retries of the same sub-item before moving on. Recorded sub-item
// outcomes survive failure and cancellation.
type Machine struct {
	Fetcher rangegrab.Fetcher
	Exit    rangegrab.ExitPolicy
	Policy  RetryPolicy

	// Limiter, if set, is waited on before every fetch.
	Limiter rangegrab.AttemptLimiter

	// WorkDir receives the tool's log and archive files.
	WorkDir string
	// Prefix starts every archive file name.
	Prefix string

	// Wait realizes a computed delay. Defaults to backoff.Sleep.
	Wait func(ctx context.Context, d time.Duration) error
	// Now stamps archive names. Defaults to time.Now.
	Now func() time.Time
	// Rand is the jitter source. Defaults to math/rand/v2.
	Rand func() float64

	batch      *rangegrab.Batch
	state      State
	index      int
	transient  *backoff.Controller
	nTransient int
	nGeneric   int
	err        error
}

// NewMachine returns a Machine with the default exit and retry policies.
func NewMachine(fetcher rangegrab.Fetcher, workDir string) *Machine {
	return &Machine{
		Fetcher: fetcher,
		Exit:    rangegrab.DefaultExitPolicy,
		Policy:  DefaultRetryPolicy(),
		WorkDir: workDir,
		Prefix:  "rangegrab",
	}
}

// Enqueue expands b into its sub-items, all Pending, and moves the machine
// to Running at the first sub-item.
func (m *Machine) Enqueue(b *rangegrab.Batch) {
	b.Expand()
	m.batch = b
	m.index = 0
	m.nTransient = 0
	m.nGeneric = 0
	m.err = nil
	m.transient = &backoff.Controller{
		Base:   m.Policy.TransientMin,
		Max:    m.Policy.TransientMax,
		Factor: m.Policy.TransientFactor,
		Rand:   m.Rand,
	}
	m.state = StateRunning
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Index returns the position of the active sub-item.
func (m *Machine) Index() int { return m.index }

// Batch returns the enqueued batch.
func (m *Machine) Batch() *rangegrab.Batch { return m.batch }

// Err returns the error that moved the machine to StateFailed.
func (m *Machine) Err() error { return m.err }

// Artifacts returns the artifacts of succeeded sub-items in batch order.
func (m *Machine) Artifacts() []string {
	if m.batch == nil {
		return nil
	}
	return m.batch.Artifacts()
}

// AttemptCurrent fetches the active sub-item once, records the outcome, and
// returns how long the caller must wait before the next step.
//
// Returns EBATCHFAILED when a retry ceiling is exhausted and ECANCELED when
// ctx ends the attempt; the machine is then in StateFailed.
func (m *Machine) AttemptCurrent(ctx context.Context) (time.Duration, error) {
	if m.state != StateRunning && m.state != StateWaitingRetry {
		return 0, rangegrab.Errorf(rangegrab.EINVALID, "no attempt pending in state %s", m.state)
	}
	if err := ctx.Err(); err != nil {
		return 0, m.cancel(err)
	}
	if m.Limiter != nil {
		if err := m.Limiter.Wait(ctx); err != nil {
			return 0, m.cancel(err)
		}
	}

	m.state = StateRunning
	item := &m.batch.Items[m.index]
	item.Attempts++

	paths := m.paths(item)
	status, err := m.Fetcher.Fetch(ctx, item.Name, paths)
	if err != nil && ctx.Err() != nil {
		return 0, m.cancel(ctx.Err())
	}

	class := m.Exit.Classify(status)
	if err != nil {
		class = rangegrab.ClassGeneric
	}

	switch class {
	case rangegrab.ClassSuccess:
		item.Status = rangegrab.StatusSucceeded
		item.ArtifactPath = paths.Archive
		m.transient.ReportSuccess()
		return m.advance(m.pacing()), nil

	case rangegrab.ClassSkip:
		item.Status = rangegrab.StatusSkipped
		return m.advance(0), nil

	case rangegrab.ClassTransient:
		m.nTransient++
		if m.nTransient >= m.Policy.TransientCeiling {
			return 0, m.fail(item, fmt.Sprintf("%d transient failures", m.nTransient))
		}
		d := m.transient.NextDelay()
		m.transient.ReportFailure()
		m.state = StateWaitingRetry
		return d, nil

	default:
		m.nGeneric++
		if m.nGeneric >= m.Policy.GenericCeiling {
			return 0, m.fail(item, fmt.Sprintf("%d failures, last exit status %d", m.nGeneric, status))
		}
		m.state = StateWaitingRetry
		return backoff.Fixed{Delay: m.Policy.GenericDelay}.NextDelay(), nil
	}
}

// Run attempts sub-items until the batch is done or failed, waiting the
// computed delay between steps. Cancellation is checked at every wait.
func (m *Machine) Run(ctx context.Context) error {
	for {
		d, err := m.AttemptCurrent(ctx)
		if err != nil {
			return err
		}
		if m.state == StateDone {
			return nil
		}
		if err := m.wait(ctx, d); err != nil {
			return m.cancel(err)
		}
	}
}

func (m *Machine) advance(d time.Duration) time.Duration {
	m.index++
	if m.index == len(m.batch.Items) {
		m.state = StateDone
		return 0
	}
	m.state = StateRunning
	return d
}

func (m *Machine) fail(item *rangegrab.SubItem, reason string) error {
	item.Status = rangegrab.StatusFailed
	m.state = StateFailed
	m.err = rangegrab.Errorf(rangegrab.EBATCHFAILED, "batch %s: item %s: %s", m.batch.Name, item.Name, reason)
	return m.err
}

func (m *Machine) cancel(cause error) error {
	m.state = StateFailed
	m.err = fmt.Errorf("%w: %w", rangegrab.Errorf(rangegrab.ECANCELED, "batch %s canceled at item %d", m.batch.Name, m.index), cause)
	return m.err
}

func (m *Machine) pacing() time.Duration {
	p := m.Policy.Pacing
	if p.Rand == nil {
		p.Rand = m.Rand
	}
	return p.NextDelay()
}

func (m *Machine) wait(ctx context.Context, d time.Duration) error {
	if m.Wait != nil {
		if err := m.Wait(ctx, d); err != nil {
			return err
		}
		return ctx.Err()
	}
	return backoff.Sleep(ctx, d)
}

func (m *Machine) paths(item *rangegrab.SubItem) rangegrab.FetchPaths {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	base := fmt.Sprintf("%s-%s-%s", m.Prefix, item.Name, now().UTC().Format("20060102-150405"))
	return rangegrab.FetchPaths{
		Log:     filepath.Join(m.WorkDir, item.Name+".log"),
		Archive: filepath.Join(m.WorkDir, base+".warc.gz"),
	}
}
