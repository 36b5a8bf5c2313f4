// Package workspace implements the Workspace Resolver: it combines the
// parsed workspace manifest with the selection flags (-p, --exclude,
// --workspace, --ignore-private, --no-private) into the ordered package
// list every other subsystem operates on.
package workspace

import (
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/distr1/hackctl/internal/herrors"
	"github.com/distr1/hackctl/internal/manifest"
)

// ExpandMembers expands the workspace's members/exclude glob patterns
// against the filesystem and returns the sorted list of member directories
// (each joined onto root), after removing anything matched by exclude.
//
// Glob expansion order is not guaranteed stable across platforms; this
// resolver always sorts lexicographically afterward so the order is
// deterministic within one run, but downstream consumers should not
// depend on it holding across different filesystems or platforms.
func ExpandMembers(root string, ws *manifest.WorkspaceManifest) ([]string, error) {
	excluded := map[string]bool{}
	for _, pattern := range ws.Exclude {
		matches, err := doublestar.FilepathGlob(filepath.Join(root, pattern))
		if err != nil {
			return nil, herrors.New(herrors.MalformedManifest, err).WithOffending(ws.ManifestPath)
		}
		for _, m := range matches {
			excluded[m] = true
		}
	}

	seen := map[string]bool{}
	var dirs []string
	for _, pattern := range ws.Members {
		matches, err := doublestar.FilepathGlob(filepath.Join(root, pattern))
		if err != nil {
			return nil, herrors.New(herrors.MalformedManifest, err).WithOffending(ws.ManifestPath)
		}
		for _, m := range matches {
			if excluded[m] || seen[m] {
				continue
			}
			seen[m] = true
			dirs = append(dirs, m)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Config is the Workspace Resolver's input, gathered from CLI flags.
type Config struct {
	All           bool // --workspace / --all
	Packages      []string
	Exclude       []string
	IgnorePrivate bool
	NoPrivate     bool
}

// Resolve applies Config to the full member list, returning the ordered,
// filtered package list to operate on.
func Resolve(cfg Config, allMembers []*manifest.Package, current *manifest.Package) ([]*manifest.Package, error) {
	var base []*manifest.Package
	if cfg.All || len(cfg.Packages) > 0 || len(cfg.Exclude) > 0 {
		base = allMembers
	} else if current != nil {
		base = []*manifest.Package{current}
	}

	if len(cfg.Packages) > 0 {
		want := map[string]bool{}
		for _, p := range cfg.Packages {
			want[p] = true
		}
		var matched []*manifest.Package
		for _, pkg := range base {
			if want[pkg.Name] {
				matched = append(matched, pkg)
			}
		}
		if len(matched) == 0 {
			return nil, herrors.Newf(herrors.NoMatchingPackage,
				"no workspace member matches %v", cfg.Packages)
		}
		base = matched
	}

	if len(cfg.Exclude) > 0 {
		excl := map[string]bool{}
		for _, p := range cfg.Exclude {
			excl[p] = true
		}
		var kept []*manifest.Package
		for _, pkg := range base {
			if !excl[pkg.Name] {
				kept = append(kept, pkg)
			}
		}
		base = kept
	}

	if cfg.IgnorePrivate || cfg.NoPrivate {
		var kept []*manifest.Package
		for _, pkg := range base {
			if pkg.Publish {
				kept = append(kept, pkg)
			}
		}
		base = kept
	}

	sort.Slice(base, func(i, j int) bool { return base[i].Path < base[j].Path })
	return base, nil
}

// PrivateMemberPaths returns, relative to root, the workspace member
// directories whose package is not publishable, for the Manifest
// Rewriter's --no-private members-array edit.
func PrivateMemberPaths(root string, allMembers []*manifest.Package) []string {
	var paths []string
	for _, pkg := range allMembers {
		if !pkg.Publish {
			rel, err := filepath.Rel(root, pkg.Path)
			if err != nil {
				rel = pkg.Path
			}
			paths = append(paths, rel)
		}
	}
	sort.Strings(paths)
	return paths
}
