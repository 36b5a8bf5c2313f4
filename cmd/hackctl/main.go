// Command hackctl drives a builder sub-command across the cross product
// of workspace packages, feature combinations, and compiler versions.
// Invoke it as `hackctl [flags] <subcommand> [subcommand-args...]`; flags
// before the first positional argument are hackctl's own, everything
// from the subcommand onward is forwarded to the builder verbatim.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/distr1/hackctl/internal/herrors"
)

var (
	verbose     = flag.Bool("v", false, "verbose diagnostic output")
	versionFlag = flag.Bool("V", false, "print hackctl's version and exit")
	debug       = flag.Bool("debug", false, "format error messages with additional detail")

	manifestPath   = flag.String("manifest-path", "", "path to the root Cargo.toml (default: ./Cargo.toml)")
	noManifestPath = flag.Bool("no-manifest-path", false, "do not pass --manifest-path through to the builder")

	packages      []string
	excludes      []string
	all           = flag.Bool("workspace", false, "operate on every workspace member (alias: --all)")
	allAlias      = flag.Bool("all", false, "operate on every workspace member (alias: --workspace)")
	ignorePrivate = flag.Bool("ignore-private", false, "skip packages with publish = false")
	noPrivate     = flag.Bool("no-private", false, "like --ignore-private, and also hide them from the workspace members list")

	features        []string
	eachFeature     = flag.Bool("each-feature", false, "run once per feature, individually")
	featurePowerset = flag.Bool("feature-powerset", false, "run once per element of the feature powerset")
	optionalDeps    = flag.Bool("optional-deps", false, "synthesize implicit features from optional dependencies")

	excludeFeatures           []string
	excludeNoDefaultFeatures  = flag.Bool("exclude-no-default-features", false, "suppress the --no-default-features run")
	excludeAllFeaturesFlag    = flag.Bool("exclude-all-features", false, "suppress the --all-features run")
	includeFeatures           []string
	groupFeatures             [][]string
	mutuallyExclusiveFeatures [][]string
	atLeastOneOf              [][]string
	depth                     = flag.Int("depth", 0, "maximum feature-powerset subset size (0: unbounded)")
	ignoreUnknownFeatures     = flag.Bool("ignore-unknown-features", false, "do not fail on an activator naming an unknown feature")

	noDevDeps     = flag.Bool("no-dev-deps", false, "temporarily strip dev-dependencies for the duration of the run, then restore")
	removeDevDeps = flag.Bool("remove-dev-deps", false, "permanently strip dev-dependencies (no restoration)")

	rustVersionFlag = flag.Bool("rust-version", false, "build each package only against its own declared rust-version")
	versionRange    = flag.String("version-range", "", "S..[=E]: the inclusive range of toolchain minor versions to build against")
	versionStep     = flag.String("version-step", "", "minor-version step size within --version-range (default 1)")

	cleanPerRun      = flag.Bool("clean-per-run", false, "invoke the builder's clean sub-command scoped to the package before each run")
	cleanPerVersion  = flag.Bool("clean-per-version", false, "invoke the builder's clean sub-command scoped to the workspace on toolchain change")
	keepGoing        = flag.Bool("keep-going", false, "continue after a non-zero exit, aggregating failures")
	partition        = flag.String("partition", "", "M/N: execute only the M-th of N partitions of the run plan")
	target           = flag.String("target", "", "builder --target to pass through")
	locked           = flag.Bool("locked", false, "pass --locked through to the builder")
	printCommandList = flag.Bool("print-command-list", false, "print the materialized command lines instead of running them")
	dryRun           = flag.Bool("dry-run", false, "apply manifest edits, print the plan size and every materialized command line, then exit without invoking the builder")
	featuresOnly     = flag.Bool("features-only", false, "print the run plan as a table and exit, touching nothing on disk")

	logGroup = flag.String("log-group", "", "\"github-actions\": wrap each run's output in collapsible group markers")
	color    = flag.String("color", "auto", "always|never|auto: whether to colorize output")

	builderBin        = flag.String("builder-bin", "cargo", "the builder binary to invoke")
	versionManagerBin = flag.String("version-manager-bin", "rustup", "the toolchain version manager binary to invoke for non-default toolchains")
)

func init() {
	flag.Var(stringList{&packages}, "package", "package to operate on (repeatable; alias -p)")
	flag.Var(stringList{&packages}, "p", "package to operate on (repeatable; alias --package)")
	flag.Var(stringList{&excludes}, "exclude", "package to exclude (repeatable)")
	flag.Var(stringList{&features}, "features", "feature to activate (repeatable; alias -F)")
	flag.Var(stringList{&features}, "F", "feature to activate (repeatable; alias --features)")
	flag.Var(stringList{&excludeFeatures}, "exclude-features", "feature to exclude from the atom universe (repeatable; alias --skip)")
	flag.Var(stringList{&excludeFeatures}, "skip", "feature to exclude from the atom universe (repeatable; alias --exclude-features)")
	flag.Var(stringList{&includeFeatures}, "include-features", "feature that replaces the atom universe entirely (repeatable)")
	flag.Var(familyList{&groupFeatures}, "group-features", "comma-separated feature group, one synthetic atom (repeatable)")
	flag.Var(familyList{&mutuallyExclusiveFeatures}, "mutually-exclusive-features", "comma-separated family of pairwise-forbidden features (repeatable)")
	flag.Var(familyList{&atLeastOneOf}, "at-least-one-of", "comma-separated family that must intersect every emitted set (repeatable)")
}

// explicitFlags records which flag names were actually passed on the
// command line, so configFromFlags can tell "left at zero value" apart
// from "explicitly set to the zero value" when applying manifest-file
// defaults (--each-feature etc. falling back to [workspace.metadata.hack]).
var explicitFlags = map[string]bool{}

func funcmain() error {
	flag.Parse()
	flag.Visit(func(f *flag.Flag) { explicitFlags[f.Name] = true })

	if *versionFlag {
		fmt.Println("hackctl (unreleased)")
		return nil
	}

	cfg, err := configFromFlags()
	if err != nil {
		return err
	}

	if *verbose {
		log.Printf("hackctl: manifest-path=%s subcommand=%s packages=%v", cfg.ManifestPath, cfg.Subcommand, cfg.Workspace.Packages)
	}

	return run(cfg)
}

func main() {
	if err := funcmain(); err != nil {
		if *debug {
			fmt.Fprintf(os.Stderr, "hackctl: %+v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "hackctl: %v\n", err)
		}
		os.Exit(herrors.ExitCode(err))
	}
}
