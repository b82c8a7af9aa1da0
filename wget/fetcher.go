// Package wget runs the external wget-lua tool as the Fetcher.
package wget

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/rangegrab"
)

// Defaults matching the tool's observed invocation.
const (
	DefaultProgram     = "wget-lua"
	DefaultURLTemplate = "http://puu.sh/{item}"
	DefaultTimeout     = 60 * time.Second
	DefaultTries       = 20
	DefaultWaitRetry   = 5 * time.Second
)

// Ensure Fetcher implements rangegrab.Fetcher at compile time.
var _ rangegrab.Fetcher = (*Fetcher)(nil)

// Fetcher runs one wget-lua process per target. The process's exit status
// is returned as is; classifying it is the caller's job.
type Fetcher struct {
	program     string
	userAgent   string
	luaScript   string
	urlTemplate string
	timeout     time.Duration
	tries       int
	waitRetry   time.Duration
	headers     []string
	extraArgs   []string
	extraPath   []string
	dir         string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithProgram sets the tool executable. Defaults to DefaultProgram.
func WithProgram(path string) Option {
	return func(f *Fetcher) { f.program = path }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithLuaScript sets the hook script passed with --lua-script.
func WithLuaScript(path string) Option {
	return func(f *Fetcher) { f.luaScript = path }
}

// WithURLTemplate sets the URL fetched for a target; "{item}" is replaced by
// the target name.
func WithURLTemplate(tmpl string) Option {
	return func(f *Fetcher) { f.urlTemplate = tmpl }
}

// WithTimeout sets the tool's network timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithTries sets the tool's own retry count.
func WithTries(n int) Option {
	return func(f *Fetcher) { f.tries = n }
}

// WithWARCHeader adds a "name: value" header to every archive record.
func WithWARCHeader(header string) Option {
	return func(f *Fetcher) { f.headers = append(f.headers, header) }
}

// WithArgs appends raw arguments before the URL.
func WithArgs(args ...string) Option {
	return func(f *Fetcher) { f.extraArgs = append(f.extraArgs, args...) }
}

// WithSearchPath appends directories to PATH for the child process.
func WithSearchPath(dirs ...string) Option {
	return func(f *Fetcher) { f.extraPath = append(f.extraPath, dirs...) }
}

// WithDir sets the working directory of the child process.
func WithDir(dir string) Option {
	return func(f *Fetcher) { f.dir = dir }
}

// NewFetcher creates a new Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		program:     DefaultProgram,
		urlTemplate: DefaultURLTemplate,
		timeout:     DefaultTimeout,
		tries:       DefaultTries,
		waitRetry:   DefaultWaitRetry,
		extraPath:   []string{".", ".."},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch runs the tool for target. The archive is written to paths.Archive;
// the tool appends ".warc.gz" itself, so that suffix is stripped from the
// name it is given.
func (f *Fetcher) Fetch(ctx context.Context, target string, paths rangegrab.FetchPaths) (int, error) {
	program, err := f.Program()
	if err != nil {
		return -1, err
	}
	cmd := exec.CommandContext(ctx, program, f.Args(target, paths)...)
	cmd.Env = f.env()
	cmd.Dir = f.dir

	err = cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctx.Err() != nil {
			return exitErr.ExitCode(), ctx.Err()
		}
		return exitErr.ExitCode(), nil
	} else if err != nil {
		return -1, err
	}
	return 0, nil
}

// Args returns the tool's command line for target, without the program name.
func (f *Fetcher) Args(target string, paths rangegrab.FetchPaths) []string {
	args := []string{"-nv", "-o", paths.Log}
	if f.userAgent != "" {
		args = append(args, "-U", f.userAgent)
	}
	if f.luaScript != "" {
		args = append(args, "--lua-script", f.luaScript)
	}
	args = append(args,
		"--no-check-certificate",
		"--output-document", strings.TrimSuffix(paths.Archive, ".warc.gz")+".tmp",
		"--truncate-output",
		"-e", "robots=off",
		"--rotate-dns",
		"--timeout", strconv.Itoa(int(f.timeout/time.Second)),
		"--tries", strconv.Itoa(f.tries),
		"--waitretry", strconv.Itoa(int(f.waitRetry/time.Second)),
		"--warc-file", strings.TrimSuffix(paths.Archive, ".warc.gz"),
	)
	for _, h := range f.headers {
		args = append(args, "--warc-header", h)
	}
	args = append(args, f.extraArgs...)
	return append(args, strings.ReplaceAll(f.urlTemplate, "{item}", target))
}

// Program returns the path of the tool. A bare name is looked up in the
// search path directories first, then in PATH.
func (f *Fetcher) Program() (string, error) {
	if strings.ContainsRune(f.program, os.PathSeparator) {
		return f.program, nil
	}
	for _, dir := range f.extraPath {
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		path := filepath.Join(abs, f.program)
		if executable(path) {
			return path, nil
		}
	}
	path, err := exec.LookPath(f.program)
	if err != nil {
		return "", rangegrab.Errorf(rangegrab.ENOTFOUND, "fetch tool %q not found", f.program)
	}
	return path, nil
}

func executable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0111 != 0
}

func (f *Fetcher) env() []string {
	env := os.Environ()
	if len(f.extraPath) == 0 {
		return env
	}
	extra := strings.Join(f.extraPath, string(os.PathListSeparator))
	for i, kv := range env {
		if path, ok := strings.CutPrefix(kv, "PATH="); ok {
			env[i] = "PATH=" + path + string(os.PathListSeparator) + extra
			return env
		}
	}
	return append(env, "PATH="+extra)
}
