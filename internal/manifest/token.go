package manifest

import "strings"

// TokenKind distinguishes the three forms an activator inside a feature
// value can take.
type TokenKind int

const (
	// FeatureToken activates another feature of the same package, e.g. "a".
	FeatureToken TokenKind = iota
	// DepToken is the namespaced form "dep:name"; it activates the named
	// optional dependency without creating an implicit feature for it.
	DepToken
	// DepFeatureToken is "dep/feat" or the weak form "dep?/feat"; it
	// activates feature feat of dependency dep.
	DepFeatureToken
)

// ActivatorToken is one entry in a feature's activator list.
type ActivatorToken struct {
	Kind TokenKind

	// Feature is set for FeatureToken: the name of the feature activated.
	Feature string

	// Dep is set for DepToken and DepFeatureToken: the dependency name.
	Dep string

	// DepFeat is set for DepFeatureToken: the dependency's feature name.
	DepFeat string

	// Weak is set for DepFeatureToken of the form "dep?/feat": it does not
	// itself activate dep, only feat of dep if dep is separately activated.
	Weak bool
}

// String renders the token back into manifest syntax, e.g. for error
// messages that need to echo the offending activator.
func (t ActivatorToken) String() string {
	switch t.Kind {
	case DepToken:
		return "dep:" + t.Dep
	case DepFeatureToken:
		if t.Weak {
			return t.Dep + "?/" + t.DepFeat
		}
		return t.Dep + "/" + t.DepFeat
	default:
		return t.Feature
	}
}

// ParseActivator parses one entry of a feature's activator list. No form
// other than "name", "dep:name", "dep/feat", and "dep?/feat" is valid
// manifest syntax, so this never needs more than splitting on ':' and '/'.
func ParseActivator(s string) ActivatorToken {
	if dep, ok := strings.CutPrefix(s, "dep:"); ok {
		return ActivatorToken{Kind: DepToken, Dep: dep}
	}
	if dep, feat, ok := strings.Cut(s, "/"); ok {
		weak := strings.HasSuffix(dep, "?")
		dep = strings.TrimSuffix(dep, "?")
		return ActivatorToken{Kind: DepFeatureToken, Dep: dep, DepFeat: feat, Weak: weak}
	}
	return ActivatorToken{Kind: FeatureToken, Feature: s}
}
