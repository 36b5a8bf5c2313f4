// Package manifest parses the subset of package manifests hackctl needs:
// [features], the three dependency kinds (including target-conditional
// tables), package.rust-version, publish, and workspace members/exclude.
// It is grounded on the manifest-parsing layer of holo-build, the one
// reference repo in the retrieval pack that also drives a builder purely
// off a declarative TOML package manifest.
package manifest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/semver"

	"github.com/distr1/hackctl/internal/herrors"
)

// validRustVersion checks that v has the dotted MAJOR.MINOR[.PATCH] shape
// Cargo's rust-version key requires, by routing through
// golang.org/x/mod/semver after adding the "v" prefix it expects (the same
// maybeV-style trick used for upstream-tag comparisons elsewhere in the
// pack). It only validates syntax; ordering and range-stepping over
// rust-version strings is the Version Planner's job, via
// Masterminds/semver/v3.
func validRustVersion(v string) bool {
	return semver.IsValid("v" + v)
}

// DependencyKind is which manifest table a dependency came from.
type DependencyKind int

const (
	Normal DependencyKind = iota
	Dev
	Build
)

func (k DependencyKind) String() string {
	switch k {
	case Dev:
		return "dev-dependencies"
	case Build:
		return "build-dependencies"
	default:
		return "dependencies"
	}
}

// Dependency is one entry from a dependency table, with its origin
// preserved so the edit buffer knows which section to touch.
type Dependency struct {
	// Name is the table key, e.g. "serde".
	Name string
	// Package is the resolved crate name: Name unless the entry carries
	// `package = "..."`, in which case that value (a rename).
	Package  string
	Optional bool
	Kind     DependencyKind
	// Target is the cfg() string the table was nested under
	// (target.'cfg(unix)'.dependencies), or "" if unconditional.
	Target string
}

// Package is the immutable view of one workspace member's manifest.
type Package struct {
	// Path is the package's source directory.
	Path string
	// ManifestPath is Path/Cargo.toml.
	ManifestPath string

	Name    string
	Version string

	Dependencies []Dependency

	// Features maps feature name to its ordered activator list. Order
	// matches declaration order in the manifest, used for deterministic
	// closure computation and error messages.
	Features map[string][]ActivatorToken
	// FeatureOrder lists Features' keys sorted by name.
	FeatureOrder []string

	// Publish is false only when the manifest declares `publish = false`.
	// Any other form (absent, true, or a registry list) is true.
	Publish bool

	// RustVersion is package.rust-version, resolved from workspace
	// inheritance if `rust-version.workspace = true`. Empty if unset.
	RustVersion string

	// Namespaced is true if any feature value contains a "dep:" token,
	// per the namespacing rule in the feature model.
	Namespaced bool

	// TargetDeps is the set of distinct target cfg() strings that appear
	// in this package's dependency tables.
	TargetDeps []string
}

// WorkspaceManifest is the parsed root manifest's [workspace] table.
type WorkspaceManifest struct {
	RootPath     string
	ManifestPath string

	// Members and Exclude are the raw, unexpanded glob patterns; glob
	// expansion is the Workspace Resolver's job, not the Manifest Model's.
	Members []string
	Exclude []string

	// inheritable holds raw TOML values any package manifest can inherit
	// via `workspace = true` (workspace.dependencies, workspace.package,
	// workspace.lints).
	inheritable map[string]interface{}
}

type rawManifest struct {
	Package   map[string]interface{} `toml:"package"`
	Features  map[string]interface{} `toml:"features"`
	Deps      map[string]interface{} `toml:"dependencies"`
	DevDeps   map[string]interface{} `toml:"dev-dependencies"`
	BuildDeps map[string]interface{} `toml:"build-dependencies"`
	Target    map[string]rawTarget   `toml:"target"`
	Workspace *rawWorkspace          `toml:"workspace"`
}

type rawTarget struct {
	Deps      map[string]interface{} `toml:"dependencies"`
	DevDeps   map[string]interface{} `toml:"dev-dependencies"`
	BuildDeps map[string]interface{} `toml:"build-dependencies"`
}

type rawWorkspace struct {
	Members      []string               `toml:"members"`
	Exclude      []string               `toml:"exclude"`
	Package      map[string]interface{} `toml:"package"`
	Dependencies map[string]interface{} `toml:"dependencies"`
	Lints        map[string]interface{} `toml:"lints"`
	Metadata     map[string]interface{} `toml:"metadata"`
}

// HasWorkspace reports whether path's manifest declares a [workspace]
// table, so callers can decide between the workspace and standalone
// package code paths without risking ParseWorkspace's error for the
// latter.
func HasWorkspace(path string) (bool, error) {
	var raw rawManifest
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return false, herrors.New(herrors.MalformedManifest, err).WithOffending(path)
	}
	return raw.Workspace != nil, nil
}

// ParseWorkspace parses a workspace root manifest, leaving Members/Exclude
// glob patterns unexpanded.
func ParseWorkspace(path string) (*WorkspaceManifest, error) {
	var raw rawManifest
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, herrors.New(herrors.MalformedManifest, err).WithOffending(path)
	}
	if raw.Workspace == nil {
		return nil, herrors.Newf(herrors.MalformedManifest, "%s has no [workspace] table", path).WithOffending(path)
	}
	inh := map[string]interface{}{}
	if raw.Workspace.Package != nil {
		inh["package"] = raw.Workspace.Package
	}
	if raw.Workspace.Dependencies != nil {
		inh["dependencies"] = raw.Workspace.Dependencies
	}
	if raw.Workspace.Lints != nil {
		inh["lints"] = raw.Workspace.Lints
	}
	return &WorkspaceManifest{
		ManifestPath: path,
		Members:      raw.Workspace.Members,
		Exclude:      raw.Workspace.Exclude,
		inheritable:  inh,
	}, nil
}

// ParsePackage parses one member manifest. ws may be nil for a standalone
// (non-workspace) package. The only `workspace = true` form resolved is
// package.rust-version, and only when ws is non-nil; dependency entries
// marked `workspace = true` are read as written in the member manifest,
// without the workspace table's keys (such as `package`).
func ParsePackage(path string, ws *WorkspaceManifest) (*Package, error) {
	var raw rawManifest
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, herrors.New(herrors.MalformedManifest, err).WithOffending(path)
	}

	pkg := &Package{
		ManifestPath: path,
		Features:     map[string][]ActivatorToken{},
		Publish:      true,
	}
	dir := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		dir = path[:idx]
	}
	pkg.Path = dir

	if name, ok := raw.Package["name"].(string); ok {
		pkg.Name = name
	}
	if v, ok := raw.Package["version"].(string); ok {
		pkg.Version = v
	}
	if pub, ok := raw.Package["publish"]; ok {
		if b, ok := pub.(bool); ok && !b {
			pkg.Publish = false
		}
	}
	if rv, ok := raw.Package["rust-version"]; ok {
		switch v := rv.(type) {
		case string:
			pkg.RustVersion = v
		case map[string]interface{}:
			if inherit, _ := v["workspace"].(bool); inherit {
				if ws == nil {
					return nil, herrors.Newf(herrors.UnresolvedInheritance,
						"%s: rust-version.workspace = true but no workspace root manifest available", path).
						WithOffending(path)
				}
				wsPkg, _ := ws.inheritable["package"].(map[string]interface{})
				if wsPkg == nil {
					return nil, herrors.Newf(herrors.UnresolvedInheritance,
						"%s: rust-version.workspace = true but workspace has no [workspace.package.rust-version]", path).
						WithOffending(path)
				}
				if v, ok := wsPkg["rust-version"].(string); ok {
					pkg.RustVersion = v
				}
			}
		}
		if pkg.RustVersion != "" && !validRustVersion(pkg.RustVersion) {
			return nil, herrors.Newf(herrors.MalformedManifest,
				"%s: rust-version %q is not a dotted MAJOR.MINOR[.PATCH] version", path, pkg.RustVersion).
				WithOffending(path)
		}
	}

	addDeps(pkg, raw.Deps, Normal, "")
	addDeps(pkg, raw.DevDeps, Dev, "")
	addDeps(pkg, raw.BuildDeps, Build, "")
	targets := map[string]bool{}
	for cfg, t := range raw.Target {
		addDeps(pkg, t.Deps, Normal, cfg)
		addDeps(pkg, t.DevDeps, Dev, cfg)
		addDeps(pkg, t.BuildDeps, Build, cfg)
		if len(t.Deps) > 0 || len(t.DevDeps) > 0 || len(t.BuildDeps) > 0 {
			targets[cfg] = true
		}
	}
	for cfg := range targets {
		pkg.TargetDeps = append(pkg.TargetDeps, cfg)
	}
	sort.Strings(pkg.TargetDeps)

	names := make([]string, 0, len(raw.Features))
	for name := range raw.Features {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		raw := raw.Features[name]
		vals, _ := raw.([]interface{})
		tokens := make([]ActivatorToken, 0, len(vals))
		for _, v := range vals {
			s, _ := v.(string)
			if s == "" {
				continue
			}
			tok := ParseActivator(s)
			tokens = append(tokens, tok)
			if tok.Kind == DepToken {
				pkg.Namespaced = true
			}
		}
		pkg.Features[name] = tokens
		pkg.FeatureOrder = append(pkg.FeatureOrder, name)
	}

	return pkg, nil
}

func addDeps(pkg *Package, table map[string]interface{}, kind DependencyKind, target string) {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		entry := table[name]
		dep := Dependency{Name: name, Package: name, Kind: kind, Target: target}
		if m, ok := entry.(map[string]interface{}); ok {
			if renamed, ok := m["package"].(string); ok {
				dep.Package = renamed
			}
			if opt, ok := m["optional"].(bool); ok {
				dep.Optional = opt
			}
		}
		pkg.Dependencies = append(pkg.Dependencies, dep)
	}
}

// ValidateActivators checks every activator token references a feature or
// dependency actually declared by the package, per the Package invariant
// in the data model. Callers honoring --ignore-unknown-features should
// skip calling this rather than call it and discard the error, so that a
// genuinely malformed manifest elsewhere still surfaces.
func ValidateActivators(pkg *Package) error {
	depNames := map[string]bool{}
	for _, d := range pkg.Dependencies {
		depNames[d.Name] = true
	}
	for _, name := range pkg.FeatureOrder {
		for _, tok := range pkg.Features[name] {
			switch tok.Kind {
			case FeatureToken:
				if tok.Feature == name {
					continue // self-reference is harmless, closure handles cycles
				}
				if _, ok := pkg.Features[tok.Feature]; !ok && !isImplicitCandidate(pkg, tok.Feature) {
					return herrors.Newf(herrors.UnknownFeature,
						"feature %q activates unknown feature %q", name, tok.Feature).
						WithOffending(pkg.ManifestPath).
						WithHint("--ignore-unknown-features")
				}
			case DepToken, DepFeatureToken:
				if !depNames[tok.Dep] {
					return herrors.Newf(herrors.UnknownFeature,
						"feature %q activates unknown dependency %q", name, tok.Dep).
						WithOffending(pkg.ManifestPath).
						WithHint("--ignore-unknown-features")
				}
			}
		}
	}
	return nil
}

func isImplicitCandidate(pkg *Package, name string) bool {
	for _, d := range pkg.Dependencies {
		if d.Optional && d.Package == name {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer for error messages that need to name a
// package unambiguously.
func (p *Package) String() string {
	return fmt.Sprintf("%s v%s (%s)", p.Name, p.Version, p.Path)
}
