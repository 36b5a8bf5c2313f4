// Package report renders a Run Plan as human-readable text: a full
// command-line preview for --dry-run, and a --features-only table of
// toolchain/package/combination for inspecting the plan's shape without
// materializing any command at all.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/distr1/hackctl/internal/enumerate"
	"github.com/distr1/hackctl/internal/runner"
)

// CommandLine is one materialized invocation: the resolved binary (which
// varies per run when a version manager prefixes non-default toolchains)
// plus its argv.
type CommandLine struct {
	Bin  string
	Argv []string
}

// CommandList writes one line per entry in the same argv-form the
// Runner's --print-command-list mode emits per run, used by --dry-run to
// preview the full plan before anything executes.
func CommandList(w io.Writer, lines []CommandLine) {
	for _, l := range lines {
		fmt.Fprint(w, l.Bin)
		for _, a := range l.Argv {
			fmt.Fprint(w, " ", a)
		}
		fmt.Fprintln(w)
	}
}

// FeaturesOnly renders plan as a table of (toolchain, package,
// combination) without touching the Manifest Rewriter or spawning any
// child process, for --features-only.
func FeaturesOnly(w io.Writer, plan []runner.Run) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOOLCHAIN\tPACKAGE\tCOMBINATION")
	for _, r := range plan {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Toolchain, r.Package.Name, describe(r))
	}
	tw.Flush()
}

func describe(r runner.Run) string {
	if r.Combination.Kind != enumerate.Explicit {
		return r.Combination.Kind.String()
	}
	out := ""
	if r.Combination.NoDefaultFeatures {
		out = "no-default-features+"
	}
	for i, f := range r.Combination.Features {
		if i > 0 {
			out += ","
		}
		out += f
	}
	return out
}
