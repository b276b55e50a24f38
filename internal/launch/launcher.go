// Package launch starts installed packages as subprocesses and watches their
// console output for the web UI ready URL.
package launch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/mlstack/launchpad/internal/config"
	"github.com/mlstack/launchpad/internal/console"
	"github.com/mlstack/launchpad/internal/ctxlog"
)

// stopGrace is how long a child gets between interrupt and kill.
const stopGrace = 10 * time.Second

// Launcher starts package subprocesses and publishes their lifecycle to the
// console broker.
type Launcher struct {
	broker *console.Broker

	mu      sync.Mutex
	current map[string]*Running
}

// Running describes one live package subprocess. The record is published to
// status readers before the process starts, so the mutable fields are only
// reachable through the locked accessors.
type Running struct {
	Package string

	mu  sync.Mutex
	pid int
	url string
}

// PID returns the subprocess id, or 0 while still starting.
func (r *Running) PID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pid
}

func (r *Running) setPID(pid int) {
	r.mu.Lock()
	r.pid = pid
	r.mu.Unlock()
}

// URL returns the detected web UI URL, or "" while still starting.
func (r *Running) URL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.url
}

func (r *Running) setURL(url string) {
	r.mu.Lock()
	r.url = url
	r.mu.Unlock()
}

// NewLauncher creates a launcher publishing to broker.
func NewLauncher(broker *console.Broker) *Launcher {
	return &Launcher{
		broker:  broker,
		current: make(map[string]*Running),
	}
}

// Running returns the live subprocess records, keyed by package name.
func (l *Launcher) Running() map[string]*Running {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]*Running, len(l.current))
	for k, v := range l.current {
		out[k] = v
	}
	return out
}

// Launch starts the package and blocks until it exits or ctx is cancelled.
// Cancellation interrupts the child and kills it after a grace period.
func (l *Launcher) Launch(ctx context.Context, def *config.PackageDefinition, checkoutDir, python string, extraArgs []string) error {
	logger := ctxlog.FromContext(ctx).With("package", def.Name)

	l.mu.Lock()
	if _, exists := l.current[def.Name]; exists {
		l.mu.Unlock()
		return fmt.Errorf("package '%s' is already running", def.Name)
	}
	running := &Running{Package: def.Name}
	l.current[def.Name] = running
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.current, def.Name)
		l.mu.Unlock()
	}()

	args := append([]string{def.Launch.Entry}, def.Launch.Args...)
	args = append(args, extraArgs...)

	cmd := exec.CommandContext(ctx, python, args...)
	cmd.Dir = checkoutDir
	if def.Launch.WorkingDir != "" {
		cmd.Dir = filepath.Join(checkoutDir, def.Launch.WorkingDir)
	}
	cmd.Env = mergedEnv(def.Launch.Env)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = stopGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to pipe stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to pipe stderr: %w", err)
	}

	re, err := regexp.Compile(def.Launch.ReadyPattern)
	if err != nil {
		return fmt.Errorf("invalid ready_pattern for '%s': %w", def.Name, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start '%s': %w", def.Name, err)
	}
	running.setPID(cmd.Process.Pid)
	logger.Info("🚀 Package started.", "pid", cmd.Process.Pid)
	l.broker.Publish(console.Event{Kind: console.EventStarted, Package: def.Name})

	onReady := func(url string) {
		running.setURL(url)
		logger.Info("✅ Web UI ready.", "url", url)
		l.broker.Publish(console.Event{Kind: console.EventReady, Package: def.Name, URL: url})
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanOutput(stdout, def.Name, l.broker, re, onReady)
	}()
	go func() {
		defer wg.Done()
		// The ready URL is only ever scraped from stdout.
		scanOutput(stderr, def.Name, l.broker, nil, nil)
	}()

	wg.Wait()
	waitErr := cmd.Wait()

	exitText := "exit status 0"
	if waitErr != nil {
		exitText = waitErr.Error()
	}
	l.broker.Publish(console.Event{Kind: console.EventExited, Package: def.Name, Text: exitText})
	logger.Info("🏁 Package exited.", "result", exitText)

	// Cancellation is a requested stop, not a launch failure.
	if ctx.Err() != nil {
		return nil
	}
	if waitErr != nil {
		return fmt.Errorf("package '%s' exited abnormally: %w", def.Name, waitErr)
	}
	return nil
}

// mergedEnv layers the manifest env table over the parent environment.
func mergedEnv(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}
