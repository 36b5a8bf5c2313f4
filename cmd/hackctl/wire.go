package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/distr1/hackctl/internal/enumerate"
	"github.com/distr1/hackctl/internal/env"
	"github.com/distr1/hackctl/internal/feature"
	"github.com/distr1/hackctl/internal/herrors"
	"github.com/distr1/hackctl/internal/manifest"
	"github.com/distr1/hackctl/internal/report"
	"github.com/distr1/hackctl/internal/rewrite"
	"github.com/distr1/hackctl/internal/runner"
	"github.com/distr1/hackctl/internal/signalguard"
	"github.com/distr1/hackctl/internal/version"
	"github.com/distr1/hackctl/internal/workspace"
)

// run is the full pipeline: configuration -> Workspace Resolver -> (per
// package) Manifest Model + Feature Model -> Combination Enumerator ->
// Version Planner x package list x combinations -> Runner -> aggregated
// status.
func run(cfg *config) error {
	hasWorkspace, err := manifest.HasWorkspace(cfg.ManifestPath)
	if err != nil {
		return err
	}

	var ws *manifest.WorkspaceManifest
	var allMembers []*manifest.Package
	current, err := manifest.ParsePackage(cfg.ManifestPath, nil)
	if err != nil && hasWorkspace {
		// A workspace root manifest with no [package] table of its own is
		// legal; ParsePackage returning an error here is fine as long as we
		// don't also need `current`.
		current = nil
		err = nil
	}
	if err != nil {
		return err
	}
	if current != nil && current.Name == "" {
		// A bare [workspace] root with no [package] table of its own is not
		// a usable "current package"; -p/--workspace is required in that case.
		current = nil
	}

	if hasWorkspace {
		ws, err = manifest.ParseWorkspace(cfg.ManifestPath)
		if err != nil {
			return err
		}
		memberDirs, err := workspace.ExpandMembers(filepath.Dir(cfg.ManifestPath), ws)
		if err != nil {
			return err
		}
		// Parsing is read-only and independent per member, so fan it out the
		// same way batch builds do: one goroutine per unit of work. Every
		// member is parsed; errgroup reports the first error returned.
		parsed := make([]*manifest.Package, len(memberDirs))
		var eg errgroup.Group
		for i, dir := range memberDirs {
			i, dir := i, dir
			eg.Go(func() error {
				pkg, err := manifest.ParsePackage(filepath.Join(dir, "Cargo.toml"), ws)
				if err != nil {
					return err
				}
				parsed[i] = pkg // distinct index per goroutine, no shared mutation
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
		allMembers = parsed
		if *verbose {
			log.Printf("hackctl: parsed %d workspace member manifest(s)", len(allMembers))
		}
	}

	if !cfg.IgnoreUnknownFeatures {
		for _, pkg := range allMembers {
			if err := manifest.ValidateActivators(pkg); err != nil {
				return err
			}
		}
		if current != nil {
			if err := manifest.ValidateActivators(current); err != nil {
				return err
			}
		}
	}

	packages, err := workspace.Resolve(cfg.Workspace, allMembers, current)
	if err != nil {
		return err
	}
	if len(packages) == 0 {
		return herrors.Newf(herrors.NoMatchingPackage, "no package resolved for this invocation")
	}

	handle := rewrite.NewHandle()
	guard := signalguard.New(handle)
	defer guard.Install()()
	defer handle.RestoreIfAny()

	if !cfg.FeaturesOnly && (cfg.NoDevDeps || cfg.RemoveDevDeps) {
		rw := &rewrite.Rewriter{Handle: handle}
		var paths []string
		for _, pkg := range packages {
			paths = append(paths, pkg.ManifestPath)
		}
		if err := rw.StripDevDependencies(paths, cfg.NoDevDeps && !cfg.RemoveDevDeps); err != nil {
			return err
		}
	}
	if !cfg.FeaturesOnly && cfg.Workspace.NoPrivate && ws != nil {
		rw := &rewrite.Rewriter{Handle: handle}
		private := workspace.PrivateMemberPaths(filepath.Dir(cfg.ManifestPath), allMembers)
		if err := rw.StripPrivateMembers(ws.ManifestPath, private); err != nil {
			return err
		}
	}

	toolchains, err := planToolchains(cfg, packages)
	if err != nil {
		return err
	}

	plan := runner.BuildPlan(toolchains, packages, func(pkg *manifest.Package) []enumerate.Combination {
		return combinationsFor(cfg, pkg)
	})
	if cfg.RustVersionOnly {
		var own []runner.Run
		for _, r := range plan {
			if r.Toolchain == r.Package.RustVersion {
				own = append(own, r)
			}
		}
		plan = own
	}

	if cfg.Partition != "" {
		plan, err = runner.Partition(plan, cfg.Partition)
		if err != nil {
			return err
		}
	}

	if cfg.FeaturesOnly {
		report.FeaturesOnly(os.Stdout, plan)
		return nil
	}

	// Terminal coloring itself is the builder's job; hackctl only resolves
	// which mode to forward to it.
	extraArgs := append([]string{"--color", colorMode(cfg)}, cfg.ExtraArgs...)

	opts := runner.Options{
		Subcommand:        cfg.Subcommand,
		ExtraArgs:         extraArgs,
		NoManifestPath:    cfg.NoManifestPath,
		Locked:            cfg.Locked,
		Target:            cfg.Target,
		BaseFeatures:      cfg.Features,
		DefaultToolchain:  "",
		VersionManagerBin: cfg.VersionManagerBin,
		BuilderBin:        cfg.BuilderBin,
	}

	if cfg.DryRun {
		fmt.Fprintf(os.Stdout, "%d run(s) planned\n", len(plan))
		lines := make([]report.CommandLine, len(plan))
		for i, r := range plan {
			lines[i] = report.CommandLine{Bin: runner.Binary(opts, r), Argv: runner.BuildCommand(opts, r)}
		}
		report.CommandList(os.Stdout, lines)
		return nil
	}

	logGroup := cfg.LogGroup
	if logGroup == "" && env.CI() {
		logGroup = "github-actions"
	}

	rn := &runner.Runner{
		Options:          opts,
		Guard:            guard,
		Handle:           handle,
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
		KeepGoing:        cfg.KeepGoing,
		PrintCommandList: cfg.PrintCommandList,
		LogGroup:         logGroup,
		DenyWarnings:     env.DenyWarnings(),
	}
	if cfg.CleanPerRun {
		rn.CleanPerRun = func(r runner.Run) error {
			return runClean(cfg, []string{"-p", r.Package.Name})
		}
	}
	if cfg.CleanPerVersion {
		rn.CleanPerVersion = func(toolchain string) error {
			return runClean(cfg, nil)
		}
	}

	_, err = rn.Run(plan)
	return err
}

func runClean(cfg *config, extra []string) error {
	argv := append([]string{"clean"}, extra...)
	if !cfg.NoManifestPath {
		argv = append(argv, "--manifest-path", cfg.ManifestPath)
	}
	cmd := exec.Command(cfg.BuilderBin, argv...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return herrors.New(herrors.IoError, err)
	}
	return nil
}

// colorMode resolves --color against HACKCTL_COLOR and a real terminal
// check, giving the environment override precedence over "auto" but not
// over an explicit --color=always/never.
func colorMode(cfg *config) string {
	if cfg.Color == "always" || cfg.Color == "never" {
		return cfg.Color
	}
	switch env.Color() {
	case env.ColorAlways:
		return "always"
	case env.ColorNever:
		return "never"
	}
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return "always"
	}
	return "never"
}

func planToolchains(cfg *config, packages []*manifest.Package) ([]string, error) {
	if cfg.RustVersionOnly {
		var out []string
		seen := map[string]bool{}
		for _, pkg := range packages {
			vs, err := version.PlanRustVersion(pkg.RustVersion)
			if err != nil {
				return nil, err
			}
			for _, v := range vs {
				if !seen[v] {
					seen[v] = true
					out = append(out, v)
				}
			}
		}
		return out, nil
	}
	if cfg.VersionRange == "" {
		return []string{""}, nil
	}
	r, err := version.ParseRange(cfg.VersionRange)
	if err != nil {
		return nil, err
	}
	var rustVersions []string
	for _, pkg := range packages {
		rustVersions = append(rustVersions, pkg.RustVersion)
	}
	return version.Plan(r, cfg.VersionStep, version.MinRustVersion(rustVersions), "")
}

func combinationsFor(cfg *config, pkg *manifest.Package) []enumerate.Combination {
	fm := feature.New(pkg, cfg.OptionalDeps)
	atoms := enumerate.BuildAtoms(fm.Explicit(), fm.ImplicitNames(), cfg.IncludeFeatures, cfg.ExcludeFeatures, groupMap(cfg.GroupFeatures))

	ec := cfg.enumConfig()
	ec.Atoms = atoms
	ec.Namespaced = pkg.Namespaced
	ec.Closure = func(members []string) map[string]bool {
		return fm.Closure(members)
	}
	return enumerate.Enumerate(ec)
}
