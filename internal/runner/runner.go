package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/distr1/hackctl/internal/herrors"
	"github.com/distr1/hackctl/internal/rewrite"
)

// Guard is the subset of *signalguard.Guard the Runner depends on. Kept
// as an interface so the run loop can be tested without real signal
// delivery.
type Guard interface {
	Cancelled() bool
	Context() context.Context
}

// Runner drives the run loop over a Plan, one child process at a time.
type Runner struct {
	Options Options
	Guard   Guard
	Handle  *rewrite.Handle

	Stdout, Stderr io.Writer

	KeepGoing        bool
	PrintCommandList bool
	LogGroup         string // "" or "github-actions"

	// DenyWarnings forces RUSTFLAGS="-D warnings" onto every child
	// invocation, from HACKCTL_DENY_WARNINGS.
	DenyWarnings bool

	CleanPerRun     func(pkg Run) error
	CleanPerVersion func(toolchain string) error

	// lastVersion tracks toolchain changes across consecutive runs so
	// CleanPerVersion fires once per toolchain transition, not once per
	// run.
	lastVersion string
}

// Result is the outcome of executing a Plan.
type Result struct {
	Total    int
	Ran      int
	Failures []Failure
}

// Failure records one non-zero-exit run. Without KeepGoing the loop stops
// at the first one, so Failures then holds a single entry.
type Failure struct {
	Run      Run
	Command  []string
	ExitCode int
}

func (r *Result) ok() bool { return len(r.Failures) == 0 }

// Run executes plan in order, stopping at the first failure unless
// KeepGoing is set. It never launches a new child once the Guard reports
// Cancelled, and always restores the Edit Session (if any) before
// returning a non-nil error triggered by a child failure.
func (rn *Runner) Run(plan []Run) (Result, error) {
	res := Result{Total: len(plan)}
	for i, run := range plan {
		if rn.Guard != nil && rn.Guard.Cancelled() {
			return res, herrors.New(herrors.Cancelled, fmt.Errorf("cancelled after %d/%d runs", res.Ran, res.Total))
		}

		if rn.lastVersion != "" && rn.lastVersion != run.Toolchain && rn.CleanPerVersion != nil {
			if err := rn.CleanPerVersion(run.Toolchain); err != nil {
				return res, herrors.New(herrors.IoError, err)
			}
		}
		rn.lastVersion = run.Toolchain

		if rn.CleanPerRun != nil {
			if err := rn.CleanPerRun(run); err != nil {
				return res, herrors.New(herrors.IoError, err)
			}
		}

		argv := BuildCommand(rn.Options, run)
		bin := Binary(rn.Options, run)

		fmt.Fprintf(rn.Stdout, "running %s %s on %s (%d/%d)\n",
			bin, run.Combination.Kind, run.Package.Name, i+1, res.Total)

		if rn.PrintCommandList {
			fmt.Fprintln(rn.Stdout, formatCommand(bin, argv))
			continue
		}

		rn.beginGroup(bin, argv)
		exitCode, err := rn.exec(bin, argv)
		rn.endGroup()
		if err != nil {
			return res, herrors.New(herrors.IoError, err)
		}
		res.Ran++
		if exitCode != 0 {
			res.Failures = append(res.Failures, Failure{Run: run, Command: argv, ExitCode: exitCode})
			if !rn.KeepGoing {
				if rn.Handle != nil {
					rn.Handle.RestoreIfAny()
				}
				return res, herrors.Newf(herrors.ChildNonZero, "%s exited %d", formatCommand(bin, argv), exitCode).
					WithOffending(formatCommand(bin, argv))
			}
		}
	}

	if rn.Handle != nil {
		rn.Handle.RestoreIfAny()
	}
	if !res.ok() {
		return res, herrors.Newf(herrors.ChildNonZero, "%d/%d runs failed", len(res.Failures), res.Total)
	}
	return res, nil
}

// exec runs one child to completion and reports its exit code, using the
// Guard's context so the spawn itself is interruptible even though an
// already-running child is left to observe its own copy of the signal.
func (rn *Runner) exec(bin string, argv []string) (int, error) {
	ctx := context.Background()
	if rn.Guard != nil {
		ctx = rn.Guard.Context()
	}
	cmd := exec.CommandContext(ctx, bin, argv...)
	// Cancellation only prevents the spawn; a running child is not killed.
	cmd.Cancel = func() error { return nil }
	cmd.Stdout = rn.Stdout
	cmd.Stderr = rn.Stderr
	if rn.DenyWarnings {
		cmd.Env = append(os.Environ(), "RUSTFLAGS=-D warnings")
	}
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

func (rn *Runner) beginGroup(bin string, argv []string) {
	if rn.LogGroup != "github-actions" {
		return
	}
	fmt.Fprintf(rn.Stdout, "::group::%s\n", formatCommand(bin, argv))
}

func (rn *Runner) endGroup() {
	if rn.LogGroup != "github-actions" {
		return
	}
	fmt.Fprintln(rn.Stdout, "::endgroup::")
}

func formatCommand(bin string, argv []string) string {
	out := bin
	for _, a := range argv {
		out += " " + a
	}
	return out
}
