// Package enumerate implements the Combination Enumerator: the feature
// set generator that turns a package's atom universe, grouping/exclusion
// rules, and a powerset mode into the minimal, de-duplicated sequence of
// combinations the Runner executes. This is the hard core of hackctl.
package enumerate

import "sort"

// Kind distinguishes the four combination shapes the Runner can execute.
type Kind int

const (
	NoDefault Kind = iota
	Default
	AllFeatures
	Explicit
)

func (k Kind) String() string {
	switch k {
	case NoDefault:
		return "no-default-features"
	case Default:
		return "default"
	case AllFeatures:
		return "all-features"
	default:
		return "explicit"
	}
}

// Combination is one entry of the run plan's feature dimension.
type Combination struct {
	Kind Kind
	// NoDefaultFeatures is true when Kind == Explicit and the run should
	// additionally pass --no-default-features.
	NoDefaultFeatures bool
	// Features holds the group-expanded member feature names selected for
	// Kind == Explicit (command construction joins these straight into
	// --features) or Kind == AllFeatures (purely for reporting; command
	// construction ignores it there and emits --all-features instead). No
	// synthetic group name ever appears here, only the features the group
	// stands for.
	Features []string
}

// Config bundles every enumerator input.
type Config struct {
	Atoms []string // universe A, already exclude/include/group-processed

	Groups            map[string][]string
	MutuallyExclusive [][]string
	AtLeastOneOf      [][]string

	EachFeature     bool
	FeaturePowerset bool
	Depth           int
	DepthSpecified  bool
	Namespaced      bool

	ExcludeNoDefault   bool
	ExcludeDefault     bool // "default" present in --exclude-features
	ExcludeAllFeatures bool
	// IncludeOrExcludeApplied is true when --include-features or a
	// non-empty --exclude-features was used, which both suppresses the
	// auto-injected AllFeatures run and (for include-features) the
	// NoDefault run.
	IncludeOrExcludeApplied bool
	IncludeFeaturesSet      bool

	// Closure computes cl(S) for a fully group-expanded feature name
	// list, returning the set of closure member names.
	Closure func(members []string) map[string]bool
}

// closedSet is an intermediate candidate: its declared atom names (used
// for size-class bookkeeping and subsumption), its group-expanded feature
// list (what actually gets emitted), and its computed closure.
type closedSet struct {
	atoms    []string
	expanded []string
	closure  map[string]bool
}

func closureKey(c map[string]bool) string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
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

func isSubset(a, b map[string]bool) bool {
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func setsEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	return isSubset(a, b)
}

// passesFamilyFilters applies the mutex and at-least-one-of family checks
// to a candidate's closure.
func passesFamilyFilters(closure map[string]bool, mutex, atLeastOne [][]string) bool {
	for _, family := range mutex {
		count := 0
		for _, f := range family {
			if closure[f] {
				count++
			}
		}
		if count >= 2 {
			return false
		}
	}
	for _, family := range atLeastOne {
		hit := false
		for _, f := range family {
			if closure[f] {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// dominatedWithinClass drops every candidate in sets whose closure is a
// strict subset of another candidate's closure IN THE SAME SIZE CLASS
// (sets is assumed to all share one size already). This is the
// "dependency subsumption" rule: testing the smaller set is redundant
// once the larger-closure set of the same atom-count is also a candidate.
func dominatedWithinClass(sets []closedSet) []closedSet {
	keep := make([]bool, len(sets))
	for i := range sets {
		keep[i] = true
	}
	for i, a := range sets {
		for j, b := range sets {
			if i == j {
				continue
			}
			if isSubset(a.closure, b.closure) && !setsEqual(a.closure, b.closure) {
				keep[i] = false
				break
			}
		}
	}
	var out []closedSet
	for i, s := range sets {
		if keep[i] {
			out = append(out, s)
		}
	}
	return out
}

// subsets returns every k-element subset of atoms (already sorted), in
// lexicographic order.
func subsets(atoms []string, k int) [][]string {
	n := len(atoms)
	if k == 0 {
		return [][]string{{}}
	}
	if k > n {
		return nil
	}
	var out [][]string
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		chosen := make([]string, k)
		for i, ix := range idx {
			chosen[i] = atoms[ix]
		}
		out = append(out, chosen)

		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return out
}

// Enumerate runs the full combination-enumeration algorithm and returns the
// ordered combination sequence (before partitioning, which is the
// Runner's job once packages and toolchains are folded in).
func Enumerate(cfg Config) []Combination {
	var result []Combination
	seenClosures := map[string]bool{}

	emit := func(c Combination, closure map[string]bool) {
		result = append(result, c)
		if closure != nil {
			seenClosures[closureKey(closure)] = true
		}
	}

	suppressNoDefault := cfg.ExcludeNoDefault || cfg.IncludeFeaturesSet
	if !suppressNoDefault {
		emit(Combination{Kind: NoDefault, NoDefaultFeatures: true}, nil)
	}
	if !cfg.ExcludeDefault {
		emit(Combination{Kind: Default}, nil)
	}

	atoms := append([]string(nil), cfg.Atoms...)
	sort.Strings(atoms)

	var sizes []int
	switch {
	case cfg.EachFeature:
		sizes = []int{1}
	case cfg.FeaturePowerset:
		max := len(atoms)
		if cfg.DepthSpecified && cfg.Depth < max {
			max = cfg.Depth
		}
		for i := 1; i <= max; i++ {
			sizes = append(sizes, i)
		}
	}

	for _, size := range sizes {
		var candidates []closedSet
		for _, chosen := range subsets(atoms, size) {
			expanded := ExpandGroups(chosen, cfg.Groups)
			closure := cfg.Closure(expanded)
			candidates = append(candidates, closedSet{atoms: chosen, expanded: expanded, closure: closure})
		}
		survivors := dominatedWithinClass(candidates)
		for _, s := range survivors {
			if !passesFamilyFilters(s.closure, cfg.MutuallyExclusive, cfg.AtLeastOneOf) {
				continue
			}
			key := closureKey(s.closure)
			if seenClosures[key] {
				continue
			}
			emit(Combination{Kind: Explicit, Features: s.expanded}, s.closure)
		}
	}

	if allFeaturesEligible(cfg, atoms) {
		expanded := ExpandGroups(atoms, cfg.Groups)
		closure := cfg.Closure(expanded)
		if passesFamilyFilters(closure, cfg.MutuallyExclusive, cfg.AtLeastOneOf) {
			key := closureKey(closure)
			if !seenClosures[key] {
				emit(Combination{Kind: AllFeatures, Features: expanded}, closure)
				if shouldReorderEarly(cfg) {
					result = moveAllFeaturesEarly(result)
				}
			}
		}
	}

	return result
}

func allFeaturesEligible(cfg Config, atoms []string) bool {
	a := cfg.EachFeature || (cfg.FeaturePowerset && (cfg.DepthSpecified || cfg.Namespaced))
	b := !cfg.IncludeOrExcludeApplied
	c := len(atoms) > 1
	d := !cfg.ExcludeAllFeatures
	return a && b && c && d
}

// shouldReorderEarly implements the documented "likely-problematic early"
// reordering: with no depth limit and no filters narrowing the search,
// the full-coverage AllFeatures run is moved right after the foundational
// Default/NoDefault runs so a failure surfaces before the whole powerset
// sweep completes. This never changes which combinations are emitted,
// only their order.
func shouldReorderEarly(cfg Config) bool {
	return !cfg.DepthSpecified &&
		!cfg.IncludeOrExcludeApplied &&
		len(cfg.MutuallyExclusive) == 0 &&
		len(cfg.AtLeastOneOf) == 0
}

func moveAllFeaturesEarly(combos []Combination) []Combination {
	idx := -1
	for i, c := range combos {
		if c.Kind == AllFeatures {
			idx = i
			break
		}
	}
	if idx < 0 {
		return combos
	}
	af := combos[idx]
	without := append(append([]Combination(nil), combos[:idx]...), combos[idx+1:]...)

	insertAt := 0
	for insertAt < len(without) && (without[insertAt].Kind == NoDefault || without[insertAt].Kind == Default) {
		insertAt++
	}
	out := make([]Combination, 0, len(combos))
	out = append(out, without[:insertAt]...)
	out = append(out, af)
	out = append(out, without[insertAt:]...)
	return out
}
