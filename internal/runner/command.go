package runner

import (
	"strings"

	"github.com/distr1/hackctl/internal/enumerate"
)

// Options are the invocation-wide settings that apply to every Run's
// materialized command line.
type Options struct {
	// Subcommand is the builder verb being hacked across, e.g. "check",
	// "build", "test".
	Subcommand string
	// ExtraArgs are pass-through flags collected by the argument parser,
	// forwarded to the builder verbatim after Subcommand.
	ExtraArgs []string

	NoManifestPath bool
	Locked         bool
	Target         string

	// BaseFeatures are -F/--features activations applied in every run in
	// addition to whatever the combination selects, e.g. a feature the
	// package always needs active to build meaningfully at all. Omitted
	// for AllFeatures runs, where they are already implied.
	BaseFeatures []string

	// DefaultToolchain is the toolchain identifier that needs no version
	// manager prefix (the one already active in the environment).
	DefaultToolchain string
	// VersionManagerBin is the external version manager's binary name
	// (e.g. "rustup"), used to prefix non-default-toolchain invocations.
	VersionManagerBin string

	// BuilderBin is the builder's own binary name, e.g. "cargo".
	BuilderBin string
}

// BuildCommand materializes argv (excluding argv[0], the resolved binary
// itself, which Binary picks separately) for one Run.
func BuildCommand(opts Options, r Run) []string {
	var argv []string
	if prefixed := r.Toolchain != "" && r.Toolchain != opts.DefaultToolchain && opts.VersionManagerBin != ""; prefixed {
		// The invocation runs through the version manager, which itself
		// needs to be told which builder binary to hand the toolchain to.
		argv = append(argv, "run", "--"+r.Toolchain, opts.BuilderBin)
	}
	argv = append(argv, opts.Subcommand)

	if !opts.NoManifestPath {
		argv = append(argv, "--manifest-path", r.Package.ManifestPath)
	}

	switch r.Combination.Kind {
	case enumerate.NoDefault:
		argv = append(argv, "--no-default-features")
		if len(opts.BaseFeatures) > 0 {
			argv = append(argv, "--features", strings.Join(opts.BaseFeatures, ","))
		}
	case enumerate.AllFeatures:
		argv = append(argv, "--all-features")
	case enumerate.Explicit:
		if r.Combination.NoDefaultFeatures {
			argv = append(argv, "--no-default-features")
		}
		combined := append(append([]string(nil), opts.BaseFeatures...), r.Combination.Features...)
		if len(combined) > 0 {
			argv = append(argv, "--features", strings.Join(combined, ","))
		}
	default:
		if len(opts.BaseFeatures) > 0 {
			argv = append(argv, "--features", strings.Join(opts.BaseFeatures, ","))
		}
	}

	if opts.Locked {
		argv = append(argv, "--locked")
	}
	if opts.Target != "" {
		argv = append(argv, "--target", opts.Target)
	}
	argv = append(argv, opts.ExtraArgs...)
	return argv
}

// Binary returns the program to exec: the version manager when the
// toolchain needs prefixing through it, otherwise the builder directly.
func Binary(opts Options, r Run) string {
	if r.Toolchain != "" && r.Toolchain != opts.DefaultToolchain && opts.VersionManagerBin != "" {
		return opts.VersionManagerBin
	}
	return opts.BuilderBin
}
