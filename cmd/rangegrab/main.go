package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/rangegrab"
	"github.com/fwojciec/rangegrab/blob"
	"github.com/fwojciec/rangegrab/crawl"
	"github.com/fwojciec/rangegrab/fs"
	"github.com/fwojciec/rangegrab/grab"
	rghttp "github.com/fwojciec/rangegrab/http"
	rgprom "github.com/fwojciec/rangegrab/prometheus"
	"github.com/fwojciec/rangegrab/redis"
	rgslog "github.com/fwojciec/rangegrab/slog"
	"github.com/fwojciec/rangegrab/sqlite"
	"github.com/fwojciec/rangegrab/wget"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	Stdin io.Reader
	Now   func() time.Time

	// Queue, if set, is used instead of connecting to Redis.
	Queue Queue

	// Dial, if set, replaces the Redis connection for a project and URL.
	Dial func(project, url string) (Queue, error)

	closers []func() error
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		Stdin: os.Stdin,
		Now:   time.Now,
	}
}

// Close releases every resource opened by Run, last opened first.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i]())
	}
	m.closers = nil
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Stdin:  m.Stdin,
		Now:    m.Now,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("rangegrab"),
		kong.Description("Fetch ranges of short-code items with adaptive retry."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'rangegrab --help' to see available commands")
	}

	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = newLogger(stderr, cli.Debug)
	deps.Config, err = LoadConfig(cli.Config)
	if err != nil {
		return err
	}
	defer m.Close()

	command := strings.Fields(kongCtx.Command())
	switch command[0] {
	case "enqueue":
		err = m.openQueue(deps, cli.Enqueue.Project, cli.Enqueue.Redis)
	case "queue":
		deps.OpenQueue = func() (Queue, error) {
			if err := m.openQueue(deps, cli.Queue.Project, cli.Queue.Redis); err != nil {
				return nil, err
			}
			return deps.Queue, nil
		}
	case "dump":
		switch command[1] {
		case "done":
			err = m.openQueue(deps, cli.Dump.Done.Project, cli.Dump.Done.Redis)
		case "log":
			err = m.openQueue(deps, cli.Dump.Log.Project, cli.Dump.Log.Redis)
		}
	case "reports":
		var db *sqlite.DB
		db, err = m.openDB(override(cli.Reports.DB, deps.Config.Database))
		if err == nil {
			deps.Reports = sqlite.NewReportService(db)
		}
	case "work":
		err = m.wireWorker(deps, &cli.Work)
	case "grab":
		m.wireGrabber(deps, &cli.Grab)
	}
	if err != nil {
		return err
	}

	return kongCtx.Run(deps)
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
}

func (m *Main) openQueue(deps *Dependencies, project, url string) error {
	if m.Queue != nil {
		deps.Queue = m.Queue
		return nil
	}
	cfg := deps.Config.Redis
	cfg.URL = override(url, cfg.URL)
	if m.Dial != nil {
		q, err := m.Dial(project, cfg.URL)
		if err != nil {
			return err
		}
		deps.Queue = q
		return nil
	}
	client, err := redis.NewClient(cfg, project)
	if err != nil {
		fmt.Fprintln(deps.Stderr, "Hint: Set REDIS_URL or pass --redis")
		return err
	}
	m.closers = append(m.closers, client.Close)
	deps.Queue = client
	return nil
}

func (m *Main) openDB(path string) (*sqlite.DB, error) {
	db := sqlite.NewDB(path)
	if err := db.Open(); err != nil {
		return nil, fmt.Errorf("failed to open database at %q: %w", path, err)
	}
	m.closers = append(m.closers, db.Close)
	return db, nil
}

func newFetcher(cfg FetchConfig) *wget.Fetcher {
	var opts []wget.Option
	if cfg.Program != "" {
		opts = append(opts, wget.WithProgram(cfg.Program))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, wget.WithUserAgent(cfg.UserAgent))
	}
	if cfg.LuaScript != "" {
		opts = append(opts, wget.WithLuaScript(cfg.LuaScript))
	}
	if cfg.URLTemplate != "" {
		opts = append(opts, wget.WithURLTemplate(cfg.URLTemplate))
	}
	for _, h := range cfg.WARCHeaders {
		opts = append(opts, wget.WithWARCHeader(h))
	}
	return wget.NewFetcher(opts...)
}

func (m *Main) wireWorker(deps *Dependencies, c *WorkCmd) error {
	cfg := deps.Config
	logger := deps.Logger

	trackerURL := override(c.Tracker, cfg.Tracker)
	downloader := override(c.Downloader, cfg.Downloader)
	bucket := override(c.Bucket, cfg.Bucket)
	if trackerURL == "" || downloader == "" {
		return rangegrab.Errorf(rangegrab.EINVALID, "tracker and downloader are required")
	}

	reg := prometheus.NewRegistry()
	metrics := rgprom.NewMetrics(reg)

	var tracker rangegrab.Tracker
	if strings.HasPrefix(trackerURL, "redis://") || strings.HasPrefix(trackerURL, "rediss://") {
		client, err := redis.NewClient(redis.Config{URL: trackerURL, Password: cfg.Redis.Password}, c.Project)
		if err != nil {
			return err
		}
		m.closers = append(m.closers, client.Close)
		rt := redis.NewTracker(client, downloader)
		rt.Target = rangegrab.UploadTarget{URL: bucket}
		rt.ClaimTTL = time.Hour
		tracker = rt
	} else {
		tracker = rghttp.NewTracker(trackerURL, downloader, cfg.Version)
	}

	uploader := blob.NewUploader(bucket)
	m.closers = append(m.closers, uploader.Close)

	db, err := m.openDB(override(c.DB, cfg.Database))
	if err != nil {
		return err
	}

	fetcher := rgslog.NewLoggingFetcher(rgprom.NewFetcher(newFetcher(cfg.Fetch), cfg.Exit, metrics), cfg.Exit, logger)

	w := crawl.NewWorker(
		rgslog.NewLoggingTracker(rgprom.NewTracker(tracker, metrics), logger),
		rgslog.NewLoggingUploader(rgprom.NewUploader(uploader, metrics), logger),
		fs.NewArtifactStore(override(c.DataDir, cfg.DataDir)),
		fetcher,
	)
	w.Reports = sqlite.NewReportService(db)
	w.Limiter = crawl.NewAttemptLimiter(c.MaxRate)
	w.Exit = cfg.Exit
	w.Policy = cfg.Retry
	w.WorkDir = cfg.WorkDir
	w.Downloader = downloader
	w.Version = cfg.Version
	w.MaxBatches = c.MaxBatches
	w.Progress = workerProgress(logger)
	deps.Worker = w

	if c.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              c.MetricsAddr,
			Handler:           rgprom.Handler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "addr", c.MetricsAddr, "err", err)
			}
		}()
		m.closers = append(m.closers, srv.Close)
	}
	return nil
}

func (m *Main) wireGrabber(deps *Dependencies, c *GrabCmd) {
	cfg := deps.Config
	logger := deps.Logger

	fetcher := rgslog.NewLoggingFetcher(newFetcher(cfg.Fetch), cfg.Exit, logger)
	archives := fs.NewArtifactStore(override(c.DataDir, cfg.DataDir))
	logs := fs.NewArtifactStore(override(c.ReportDir, cfg.ReportDir))

	g := grab.NewGrabber(fetcher, archives, logs, c.Delay)
	g.Exit = cfg.Exit
	g.MaxJobs = c.MaxJobs
	g.Progress = func(r grab.Result) {
		logger.Info("job",
			"item", r.Name,
			"status", r.Status,
			"ok", r.OK,
			"archive", r.Archive,
			"duration", r.Duration,
			"next", r.Delay,
			"err", r.Err,
		)
	}
	deps.Grabber = g
}

func workerProgress(logger *slog.Logger) crawl.ProgressFunc {
	return func(e crawl.ProgressEvent) {
		switch e.Type {
		case crawl.ProgressStarted:
			logger.Info("batch started", "batch", e.Batch)
		case crawl.ProgressDone:
			logger.Info("batch finished", "batch", e.Batch, "size", crawl.FormatBytes(e.Report.Bytes))
		case crawl.ProgressFailed:
			logger.Warn("batch failed", "batch", e.Batch, "err", e.Error)
		case crawl.ProgressCanceled:
			logger.Info("batch canceled", "batch", e.Batch)
		case crawl.ProgressIdle:
			logger.Info("waiting for work", "delay", e.Delay, "err", e.Error)
		}
	}
}
