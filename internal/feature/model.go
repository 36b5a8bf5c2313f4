// Package feature derives, from a parsed package manifest, the explicit
// and implicit feature sets, the dependency-activation closure used for
// de-duplication, and dependency usage per candidate feature set. It never
// attempts to resolve feature activation across packages: that is the
// builder's job.
package feature

import (
	"sort"
	"strings"

	"github.com/distr1/hackctl/internal/manifest"
)

// Model is the per-package view the Combination Enumerator consumes.
type Model struct {
	pkg *manifest.Package

	// Implicit maps an implicit feature name (the dependency's
	// rename-or-package name) to the dependency it activates.
	Implicit map[string]string
}

// New derives a Model from pkg. optionalDeps controls whether
// non-namespaced optional dependencies contribute implicit features at
// all (the --optional-deps flag); when false, Implicit is empty.
func New(pkg *manifest.Package, optionalDeps bool) *Model {
	m := &Model{pkg: pkg, Implicit: map[string]string{}}
	if !optionalDeps {
		return m
	}

	mentioned := map[string]bool{}
	for _, name := range pkg.FeatureOrder {
		for _, tok := range pkg.Features[name] {
			if tok.Kind == manifest.DepToken {
				mentioned[tok.Dep] = true
			}
		}
	}

	for _, d := range pkg.Dependencies {
		if !d.Optional {
			continue
		}
		if mentioned[d.Name] {
			// Package uses namespacing for this dependency: no implicit
			// feature is synthesized for it.
			continue
		}
		m.Implicit[d.Package] = d.Name
	}
	return m
}

// Explicit returns the package's declared feature names, sorted.
func (m *Model) Explicit() []string {
	names := append([]string(nil), m.pkg.FeatureOrder...)
	sort.Strings(names)
	return names
}

// ImplicitNames returns the implicit feature names, sorted.
func (m *Model) ImplicitNames() []string {
	names := make([]string, 0, len(m.Implicit))
	for name := range m.Implicit {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasFeature reports whether name is either an explicit or an implicit
// feature of this model.
func (m *Model) HasFeature(name string) bool {
	if _, ok := m.pkg.Features[name]; ok {
		return true
	}
	_, ok := m.Implicit[name]
	return ok
}

// Closure computes cl(S): the fixed point of expanding each member of S
// via its activators. "dep:X" and unconditional "X/feat" both count as
// activating X (the implicit feature named after X, if one exists, is
// added to the closure so closures compare equal across features that
// reach the same dependency via different spellings). Weak activators
// ("X?/feat") do not activate X on their own.
//
// A visited-set guards the fixed point so cyclic feature activations
// (legal manifest input, since the builder's own resolver tolerates them)
// never loop.
func (m *Model) Closure(s []string) map[string]bool {
	closure := map[string]bool{}
	var visit func(name string)
	visit = func(name string) {
		if closure[name] {
			return
		}
		closure[name] = true
		if dep, ok := m.Implicit[name]; ok {
			// name is itself an implicit feature; its only activator is
			// the dependency it names, already recorded via closure[name].
			_ = dep
			return
		}
		tokens, ok := m.pkg.Features[name]
		if !ok {
			return
		}
		for _, tok := range tokens {
			switch tok.Kind {
			case manifest.FeatureToken:
				visit(tok.Feature)
			case manifest.DepToken:
				if implicitName, ok := m.reverseImplicit(tok.Dep); ok {
					closure[implicitName] = true
				}
				closure["dep:"+tok.Dep] = true
			case manifest.DepFeatureToken:
				if !tok.Weak {
					if implicitName, ok := m.reverseImplicit(tok.Dep); ok {
						closure[implicitName] = true
					}
					closure["dep:"+tok.Dep] = true
				}
				closure["depfeat:"+tok.Dep+"/"+tok.DepFeat] = true
			}
		}
	}
	for _, name := range s {
		visit(name)
	}
	return closure
}

func (m *Model) reverseImplicit(depName string) (string, bool) {
	for implicitName, d := range m.Implicit {
		if d == depName {
			return implicitName, true
		}
	}
	return "", false
}

// CanonicalClosure renders a closure as a sorted, comma-joined string
// suitable as a map key for de-duplication.
func CanonicalClosure(closure map[string]bool) string {
	names := make([]string, 0, len(closure))
	for name := range closure {
		names = append(names, name)
	}
	sort.Strings(names)
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ","
		}
		out += n
	}
	return out
}

// DepUsed returns the set of dependency names activated by cl(S), derived
// from the "dep:" and "depfeat:" pseudo-entries Closure records.
func DepUsed(closure map[string]bool) map[string]bool {
	used := map[string]bool{}
	for name := range closure {
		if dep, ok := strings.CutPrefix(name, "dep:"); ok {
			used[dep] = true
		} else if rest, ok := strings.CutPrefix(name, "depfeat:"); ok {
			if idx := strings.IndexByte(rest, '/'); idx >= 0 {
				used[rest[:idx]] = true
			}
		}
	}
	return used
}
