// Package runner implements the Runner: it materializes the builder
// invocation for each (toolchain, package, combination) triple, executes
// them in order, and aggregates exit status, honoring partitioning,
// keep-going, print-only, and the clean-per-run/clean-per-version hooks.
package runner

import (
	"github.com/distr1/hackctl/internal/enumerate"
	"github.com/distr1/hackctl/internal/herrors"
	"github.com/distr1/hackctl/internal/manifest"
)

// Run is one fully-resolved entry of the Run Plan:
// (toolchain, package, combination) triple.
type Run struct {
	Toolchain   string
	Package     *manifest.Package
	Combination enumerate.Combination
}

// BuildPlan takes the cross product of toolchains and packages, calling
// combosFor once per package (since each package's atom universe and
// closure differ), and flattens the result in toolchain-major,
// package-major, combination order — matching the order the Version
// Planner, Workspace Resolver, and Combination Enumerator each already
// produce internally.
func BuildPlan(toolchains []string, packages []*manifest.Package, combosFor func(pkg *manifest.Package) []enumerate.Combination) []Run {
	var plan []Run
	for _, tc := range toolchains {
		for _, pkg := range packages {
			for _, combo := range combosFor(pkg) {
				plan = append(plan, Run{Toolchain: tc, Package: pkg, Combination: combo})
			}
		}
	}
	return plan
}

// Partition parses "M/N" and returns the 0-indexed subsequence of plan
// where i mod N == M-1.
func Partition(plan []Run, spec string) ([]Run, error) {
	m, n, err := parsePartitionSpec(spec)
	if err != nil {
		return nil, err
	}
	var out []Run
	for i, r := range plan {
		if i%n == m-1 {
			out = append(out, r)
		}
	}
	return out, nil
}

func parsePartitionSpec(spec string) (m, n int, err error) {
	idx := -1
	for i, c := range spec {
		if c == '/' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, 0, herrors.Newf(herrors.BadPartition, "--partition %q must have the form M/N", spec)
	}
	m, errM := atoiStrict(spec[:idx])
	n, errN := atoiStrict(spec[idx+1:])
	if errM != nil || errN != nil {
		return 0, 0, herrors.Newf(herrors.BadPartition, "--partition %q must have the form M/N with integer M, N", spec)
	}
	if n < 1 || m < 1 || m > n {
		return 0, 0, herrors.Newf(herrors.BadPartition, "--partition %q: require 1 <= M <= N", spec)
	}
	return m, n, nil
}

func atoiStrict(s string) (int, error) {
	if s == "" {
		return 0, herrors.Newf(herrors.BadPartition, "empty partition component")
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, herrors.Newf(herrors.BadPartition, "non-digit %q in partition spec", string(c))
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}
