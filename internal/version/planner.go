// Package version implements the Version Planner: it expands
// --version-range/--rust-version into the ordered list of toolchain
// identifiers the Runner installs (lazily, via the external version
// manager) and iterates over.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/distr1/hackctl/internal/herrors"
)

// Identifier is a toolchain version, e.g. "1.60". Only major.minor is
// meaningful for range stepping; patch is ignored if present.
type Identifier struct {
	Major, Minor int
}

func (id Identifier) String() string { return fmt.Sprintf("%d.%d", id.Major, id.Minor) }

// Less orders identifiers by (Major, Minor).
func (id Identifier) Less(other Identifier) bool {
	if id.Major != other.Major {
		return id.Major < other.Major
	}
	return id.Minor < other.Minor
}

// ParseIdentifier parses a dotted version string into an Identifier,
// tolerating bare "1.60" forms that are not valid full semver by routing
// through Masterminds/semver's partial-version support.
func ParseIdentifier(s string) (Identifier, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return Identifier{}, herrors.New(herrors.ConfigError, err).WithOffending(s)
	}
	return Identifier{Major: int(v.Major()), Minor: int(v.Minor())}, nil
}

// RangeSpec is a parsed --version-range expression: "[S]..[=E]".
type RangeSpec struct {
	Start      string // empty if defaulted
	End        string // empty if defaulted
	Deprecated bool   // true if the non-inclusive ".." form was used with an explicit end
}

// ParseRange parses the textual --version-range syntax. Both "S..E" and
// "S..=E" are accepted; the non-inclusive form is treated as inclusive
// (with Deprecated set) for backward compatibility.
func ParseRange(spec string) (RangeSpec, error) {
	idx := strings.Index(spec, "..")
	if idx < 0 {
		return RangeSpec{}, herrors.Newf(herrors.ConfigError,
			"--version-range %q must contain \"..\"", spec)
	}
	start := spec[:idx]
	rest := spec[idx+2:]
	inclusive := false
	if strings.HasPrefix(rest, "=") {
		inclusive = true
		rest = rest[1:]
	}
	return RangeSpec{
		Start:      start,
		End:        rest,
		Deprecated: !inclusive && rest != "",
	}, nil
}

// Plan expands a parsed range into the sorted list of toolchain
// identifiers from Start to End (both inclusive), stepped by step minor
// versions (step < 1 is treated as 1). defaultStart/defaultEnd are used
// when the range omits that bound: defaultStart is normally the minimum
// rust-version across the operated packages, defaultEnd the latest stable
// version known to the toolchain manager (an external input; callers that
// cannot supply one should reject a range with no explicit end before
// calling Plan).
func Plan(r RangeSpec, step int, defaultStart, defaultEnd string) ([]string, error) {
	startStr := r.Start
	if startStr == "" {
		startStr = defaultStart
	}
	endStr := r.End
	if endStr == "" {
		endStr = defaultEnd
	}
	if startStr == "" || endStr == "" {
		return nil, herrors.Newf(herrors.ToolchainUnavailable,
			"version range has no resolvable start/end (start=%q end=%q)", startStr, endStr)
	}

	start, err := ParseIdentifier(startStr)
	if err != nil {
		return nil, err
	}
	end, err := ParseIdentifier(endStr)
	if err != nil {
		return nil, err
	}
	if end.Less(start) {
		return nil, herrors.Newf(herrors.ConfigError,
			"--version-range end %s is before start %s", end, start)
	}
	if step < 1 {
		step = 1
	}

	// Built directly in increasing (Major, Minor) order; a subsequent
	// lexicographic sort.Strings would misorder crossing a digit-count
	// boundary (e.g. "1.9" after "1.10").
	var out []string
	for m := start.Minor; m <= end.Minor; m += step {
		out = append(out, Identifier{Major: start.Major, Minor: m}.String())
	}
	return out, nil
}

// PlanRustVersion returns the single-element plan used when --rust-version
// is set: each package builds only against its own declared rust-version.
func PlanRustVersion(pkgRustVersion string) ([]string, error) {
	if pkgRustVersion == "" {
		return nil, herrors.New(herrors.ConfigError,
			fmt.Errorf("--rust-version requires package.rust-version to be set"))
	}
	if _, err := ParseIdentifier(pkgRustVersion); err != nil {
		return nil, err
	}
	return []string{pkgRustVersion}, nil
}

// MinRustVersion returns the lowest rust-version across versions,
// ignoring empty entries, for use as --version-range's default start.
func MinRustVersion(versions []string) string {
	var min Identifier
	var minStr string
	for _, v := range versions {
		if v == "" {
			continue
		}
		id, err := ParseIdentifier(v)
		if err != nil {
			continue
		}
		if minStr == "" || id.Less(min) {
			min = id
			minStr = v
		}
	}
	return minStr
}

// ParseStep converts the --version-step flag value, defaulting to 1.
func ParseStep(s string) (int, error) {
	if s == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, herrors.Newf(herrors.ConfigError, "--version-step must be a positive integer, got %q", s)
	}
	return n, nil
}
