package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/rangegrab"
	"github.com/fwojciec/rangegrab/crawl"
	"github.com/fwojciec/rangegrab/grab"
)

// Queue is the admin side of a project's item queue.
type Queue interface {
	Enqueue(ctx context.Context, r io.Reader) (int, error)
	DoneItems(ctx context.Context, emit func(string) error) error
	LogEntries(ctx context.Context, scrubUser bool, emit func([]byte) error) error
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Stdin   io.Reader
	Logger  *slog.Logger
	Config  *Config
	Queue   Queue
	Reports rangegrab.ReportService
	Worker  *crawl.Worker
	Grabber *grab.Grabber
	Now     func() time.Time

	// OpenQueue connects to the queue on first use. Commands that must
	// validate local state before touching the network call it late.
	OpenQueue func() (Queue, error)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Debug  bool   `help:"Enable debug logging" env:"RANGEGRAB_DEBUG"`
	Config string `short:"c" type:"path" help:"YAML config file" env:"RANGEGRAB_CONFIG"`

	Generate   GenerateCmd   `cmd:"" help:"Print batch names covering a range of item IDs"`
	Grab       GrabCmd       `cmd:"" help:"Grab random items until stopped"`
	Work       WorkCmd       `cmd:"" help:"Process batches handed out by a tracker"`
	Enqueue    EnqueueCmd    `cmd:"" help:"Add batch names read from stdin to a project queue"`
	Queue      QueueCmd      `cmd:"" help:"Queue batches above the stored minimum item ID"`
	Dump       DumpCmd       `cmd:"" help:"Export completed items and completion logs"`
	Exclusions ExclusionsCmd `cmd:"" help:"Print item names of the archives in directories"`
	Reports    ReportsCmd    `cmd:"" help:"List journaled batch reports"`
}

// GenerateCmd is the "generate" subcommand.
type GenerateCmd struct {
	Start           string   `arg:"" help:"First item ID, base 10"`
	End             string   `arg:"" help:"Last item ID, base 10"`
	ExclusionFile   []string `name:"exclusion-file" help:"File of base 10 item IDs to leave out (repeatable)"`
	ExclusionFile62 []string `name:"exclusion-file-62" help:"File of encoded item IDs to leave out (repeatable)"`
	Range           int      `short:"r" default:"1" help:"Maximum items per batch name (1-100)"`
	LegacyAlphabet  bool     `help:"Use the legacy alphabet and ',' separator"`
}

// GrabCmd is the "grab" subcommand.
type GrabCmd struct {
	Delay     time.Duration `default:"10s" help:"Minimum delay between jobs"`
	StopFile  string        `default:"STOP" help:"Stop after the current job once this file is touched"`
	DataDir   string        `help:"Directory receiving archives (default data)"`
	ReportDir string        `help:"Directory receiving fetch logs (default report)"`
	MaxJobs   int           `help:"Stop after this many jobs (0 = no limit)"`
}

// WorkCmd is the "work" subcommand.
type WorkCmd struct {
	Tracker     string  `help:"Tracker base URL; redis:// uses the queue directly" env:"RANGEGRAB_TRACKER"`
	Project     string  `help:"Project name when the tracker is a redis URL" default:"puush"`
	Downloader  string  `help:"Downloader nickname sent with every report" env:"RANGEGRAB_DOWNLOADER"`
	Bucket      string  `help:"Default upload bucket URL" env:"RANGEGRAB_BUCKET"`
	DataDir     string  `help:"Directory receiving archives before upload"`
	DB          string  `name:"db" help:"Report journal database path" env:"RANGEGRAB_DB"`
	MetricsAddr string  `help:"Serve Prometheus metrics on this address"`
	MaxRate     float64 `help:"Maximum fetch attempts per second (0 = no limit)"`
	MaxBatches  int     `help:"Stop after this many batches (0 = no limit)"`
}

// EnqueueCmd is the "enqueue" subcommand.
type EnqueueCmd struct {
	Project string `arg:"" help:"Project name"`
	Redis   string `help:"Redis URL" env:"REDIS_URL"`
}

// QueueCmd is the "queue" subcommand.
type QueueCmd struct {
	Project   string `arg:"" help:"Project name"`
	MaxCode   string `arg:"" name:"max-code" help:"Highest known item code"`
	MinIDFile string `required:"" type:"path" help:"File holding the last queued item ID"`
	Range     int    `default:"13" help:"Maximum items per batch name (1-100)"`
	Redis     string `help:"Redis URL" env:"REDIS_URL"`
}

// DumpCmd is the "dump" subcommand.
type DumpCmd struct {
	Done        DumpDoneCmd        `cmd:"" help:"Print the item names of every completed batch"`
	Log         DumpLogCmd         `cmd:"" help:"Print the completion log with private fields scrubbed"`
	ArchivedLog DumpArchivedLogCmd `cmd:"" name:"archived-log" help:"Scrub an exported completion log file"`
}

// DumpDoneCmd is the "dump done" subcommand.
type DumpDoneCmd struct {
	Project string `arg:"" help:"Project name"`
	Redis   string `help:"Redis URL" env:"REDIS_URL"`
}

// DumpLogCmd is the "dump log" subcommand.
type DumpLogCmd struct {
	Project       string `arg:"" help:"Project name"`
	Redis         string `help:"Redis URL" env:"REDIS_URL"`
	ScrubUsername bool   `help:"Also scrub downloader names"`
}

// DumpArchivedLogCmd is the "dump archived-log" subcommand.
type DumpArchivedLogCmd struct {
	File          string `arg:"" type:"existingfile" help:"Exported log, one JSON entry per line"`
	ScrubUsername bool   `help:"Also scrub downloader names"`
}

// ExclusionsCmd is the "exclusions" subcommand.
type ExclusionsCmd struct {
	Dirs []string `arg:"" name:"dir" help:"Directories of archives"`
}

// ReportsCmd is the "reports" subcommand.
type ReportsCmd struct {
	Batch  string `help:"Only reports for this batch"`
	Status string `help:"Only reports with this status (done, failed, canceled)"`
	Limit  int    `short:"n" default:"20" help:"Maximum reports to list"`
	Items  bool   `help:"Show per-item outcomes"`
	DB     string `name:"db" help:"Report journal database path" env:"RANGEGRAB_DB"`
}
