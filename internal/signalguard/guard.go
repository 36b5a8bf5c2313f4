// Package signalguard implements the Signal Guard: a process-wide guard
// that intercepts SIGINT/SIGTERM/SIGHUP to trigger deterministic manifest
// restoration before exit. It is adapted from the
// internal/oninterrupt package, generalized from a single SIGINT-only
// callback list into a three-signal, wait-then-restore, never-exit-0,
// second-signal-kills-immediately contract.
package signalguard

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/distr1/hackctl/internal/rewrite"
)

// childWait is how long the guard waits after the first signal for the
// in-flight builder invocation to observe its own copy of the signal
// before the guard restores manifests and exits. The child receives the
// same signal (it shares the process group) and typically exits well
// within this window; the wait only prevents a restore racing a child
// still writing to a file hackctl is about to overwrite back to original.
const childWait = 200 * time.Millisecond

// Guard coordinates cancellation and restoration across the single
// cooperative run loop and the asynchronous OS signal delivery.
type Guard struct {
	cancelled int32 // atomic
	handle    *rewrite.Handle
	exit      func(code int)
	wait      time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// New returns a Guard that will restore handle's Edit Session (if any
// edit was ever recorded) on signal.
func New(handle *rewrite.Handle) *Guard {
	ctx, cancel := context.WithCancel(context.Background())
	return &Guard{handle: handle, exit: os.Exit, wait: childWait, ctx: ctx, cancel: cancel}
}

// Cancelled reports whether a signal has been received. The run loop
// polls this between runs and must not start a new child once true.
func (g *Guard) Cancelled() bool {
	return atomic.LoadInt32(&g.cancelled) != 0
}

// Context returns a context canceled the instant a signal is received,
// before the guard's wait/restore/exit sequence runs. The Runner threads
// this into exec.CommandContext so process-spawning itself observes
// cancellation promptly; it does not, by itself, stop an already-running
// child (the child receives the same signal directly from the terminal).
func (g *Guard) Context() context.Context {
	return g.ctx
}

// Install registers the guard's signal handler and returns a function
// that unregisters it, for use in tests and for the rare caller that runs
// multiple independent plans in one process.
func (g *Guard) Install() (uninstall func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	done := make(chan struct{})
	go func() {
		select {
		case <-c:
		case <-done:
			return
		}
		atomic.StoreInt32(&g.cancelled, 1)
		g.cancel()
		// A second signal now falls through to the default disposition
		// (immediate termination), which is the documented escape hatch
		// for a restore that hangs.
		signal.Stop(c)
		time.Sleep(g.wait)
		if paths := g.handle.PendingPaths(); len(paths) > 0 {
			fmt.Fprintf(os.Stderr, "interrupted: restoring %d manifest(s)\n", len(paths))
		}
		g.handle.RestoreIfAny()
		// Never exit 0: the process was interrupted, regardless of how
		// (or whether) the in-flight child exited.
		g.exit(1)
	}()
	return func() {
		signal.Stop(c)
		close(done)
	}
}
