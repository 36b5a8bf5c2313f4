package enumerate

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// staticClosure builds a Closure func for simple test fixtures where each
// feature's activation list names other features directly (no dep:/weak
// forms), sufficient to exercise the enumerator's own logic independent of
// the real TOML-driven feature model.
func staticClosure(activations map[string][]string) func([]string) map[string]bool {
	return func(members []string) map[string]bool {
		closure := map[string]bool{}
		var visit func(string)
		visit = func(name string) {
			if closure[name] {
				return
			}
			closure[name] = true
			for _, a := range activations[name] {
				visit(a)
			}
		}
		for _, m := range members {
			visit(m)
		}
		return closure
	}
}

func kinds(combos []Combination) []string {
	var out []string
	for _, c := range combos {
		if c.Kind == Explicit {
			s := append([]string(nil), c.Features...)
			sort.Strings(s)
			out = append(out, join(s))
		} else {
			out = append(out, c.Kind.String())
		}
	}
	return out
}

func join(s []string) string {
	out := ""
	for i, x := range s {
		if i > 0 {
			out += ","
		}
		out += x
	}
	return out
}

// Scenario A: a = [], b = ["a"]; --feature-powerset.
func TestScenarioA(t *testing.T) {
	cfg := Config{
		Atoms:           []string{"a", "b"},
		FeaturePowerset: true,
		Closure:         staticClosure(map[string][]string{"b": {"a"}}),
	}
	got := kinds(Enumerate(cfg))
	want := []string{"no-default-features", "default", "b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("kinds() mismatch (-want +got):\n%s", diff)
	}
}

// Scenario B: x,y,z independent; --feature-powerset --depth 2.
func TestScenarioB(t *testing.T) {
	cfg := Config{
		Atoms:           []string{"x", "y", "z"},
		FeaturePowerset: true,
		Depth:           2,
		DepthSpecified:  true,
		Closure:         staticClosure(nil),
	}
	got := kinds(Enumerate(cfg))
	want := []string{
		"no-default-features", "default",
		"x", "y", "z",
		"x,y", "x,z", "y,z",
		"all-features",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("kinds() mismatch (-want +got):\n%s", diff)
	}
}

// Scenario C: p,q with --mutually-exclusive-features p,q --feature-powerset.
func TestScenarioC(t *testing.T) {
	cfg := Config{
		Atoms:             []string{"p", "q"},
		FeaturePowerset:   true,
		MutuallyExclusive: [][]string{{"p", "q"}},
		Closure:           staticClosure(nil),
	}
	got := kinds(Enumerate(cfg))
	want := []string{"no-default-features", "default", "p", "q"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("kinds() mismatch (-want +got):\n%s", diff)
	}
}

// Scenario D: one implicit atom (serde), --each-feature --optional-deps.
func TestScenarioD(t *testing.T) {
	cfg := Config{
		Atoms:       []string{"serde"},
		EachFeature: true,
		Closure:     staticClosure(nil),
	}
	got := kinds(Enumerate(cfg))
	want := []string{"no-default-features", "default", "serde"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("kinds() mismatch (-want +got):\n%s", diff)
	}
}

// Invariant 4: for --each-feature with independent atoms A and no
// excludes, |plan| = 2 + |A| + [|A|>1].
func TestEachFeaturePlanSize(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5} {
		var atoms []string
		for i := 0; i < n; i++ {
			atoms = append(atoms, string(rune('a'+i)))
		}
		cfg := Config{Atoms: atoms, EachFeature: true, Closure: staticClosure(nil)}
		got := len(Enumerate(cfg))
		want := 2 + n
		if n > 1 {
			want++
		}
		if got != want {
			t.Errorf("n=%d: got plan size %d, want %d", n, got, want)
		}
	}
}

// Invariant 1: every emitted combination is unique under closure equality.
func TestNoDuplicateClosures(t *testing.T) {
	cfg := Config{
		Atoms:           []string{"a", "b", "c"},
		FeaturePowerset: true,
		Closure:         staticClosure(map[string][]string{"c": {"a", "b"}}),
	}
	combos := Enumerate(cfg)
	seen := map[string]bool{}
	closure := staticClosure(map[string][]string{"c": {"a", "b"}})
	for _, c := range combos {
		if c.Kind != Explicit {
			continue
		}
		key := closureKey(closure(c.Features))
		if seen[key] {
			t.Errorf("duplicate closure emitted: %v (%s)", c.Features, key)
		}
		seen[key] = true
	}
}

// A --group-features atom must never surface in an emitted Combination's
// Features: Enumerate always substitutes the group's member names.
func TestGroupAtomsExpandedInEmittedFeatures(t *testing.T) {
	cfg := Config{
		Atoms:           []string{"group-0", "x"},
		Groups:          map[string][]string{"group-0": {"a", "b"}},
		FeaturePowerset: true,
		Closure:         staticClosure(nil),
	}
	for _, c := range Enumerate(cfg) {
		if c.Kind != Explicit && c.Kind != AllFeatures {
			continue
		}
		for _, f := range c.Features {
			if f == "group-0" {
				t.Errorf("Combination.Features contains unexpanded group atom %q: %v", f, c.Features)
			}
		}
	}
}

// The one-atom-group combination expands to its full member list, not the
// group's own name.
func TestGroupAloneExpandsToMembers(t *testing.T) {
	cfg := Config{
		Atoms:           []string{"group-0"},
		Groups:          map[string][]string{"group-0": {"a", "b"}},
		FeaturePowerset: true,
		Closure:         staticClosure(nil),
	}
	combos := Enumerate(cfg)
	var found bool
	for _, c := range combos {
		if c.Kind != Explicit {
			continue
		}
		found = true
		want := []string{"a", "b"}
		if diff := cmp.Diff(want, c.Features); diff != "" {
			t.Errorf("Features mismatch (-want +got):\n%s", diff)
		}
	}
	if !found {
		t.Fatal("expected an Explicit combination for the single-group atom")
	}
}

// include-features suppresses the NoDefault run.
func TestIncludeFeaturesSuppressesNoDefault(t *testing.T) {
	cfg := Config{
		Atoms:              []string{"x"},
		FeaturePowerset:    true,
		IncludeFeaturesSet: true,
		Closure:            staticClosure(nil),
	}
	got := kinds(Enumerate(cfg))
	for _, k := range got {
		if k == "no-default-features" {
			t.Errorf("NoDefault should be suppressed by include-features, got %v", got)
		}
	}
}
