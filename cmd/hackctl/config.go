package main

import (
	"flag"
	"path/filepath"

	"github.com/distr1/hackctl/internal/enumerate"
	"github.com/distr1/hackctl/internal/herrors"
	"github.com/distr1/hackctl/internal/manifest"
	"github.com/distr1/hackctl/internal/version"
	"github.com/distr1/hackctl/internal/workspace"
)

// config is the fully-resolved configuration record produced from CLI
// flags (and, where a flag was not passed on the command line, from the
// root manifest's [workspace.metadata.hack] or [hack] table). Building it is the one
// place flag values are validated together, since several interact
// (--rust-version vs --version-range, --include-features vs excludes).
type config struct {
	ManifestPath   string
	NoManifestPath bool

	Workspace workspace.Config

	Features                  []string
	EachFeature               bool
	FeaturePowerset           bool
	OptionalDeps              bool
	ExcludeFeatures           []string
	ExcludeNoDefaultFeatures  bool
	ExcludeAllFeatures        bool
	IncludeFeatures           []string
	GroupFeatures             [][]string
	MutuallyExclusiveFeatures [][]string
	AtLeastOneOf              [][]string
	Depth                     int
	IgnoreUnknownFeatures     bool

	NoDevDeps     bool
	RemoveDevDeps bool

	RustVersionOnly bool
	VersionRange    string
	VersionStep     int

	CleanPerRun      bool
	CleanPerVersion  bool
	KeepGoing        bool
	Partition        string
	Target           string
	Locked           bool
	PrintCommandList bool
	DryRun           bool
	FeaturesOnly     bool

	LogGroup string
	Color    string

	BuilderBin        string
	VersionManagerBin string

	Subcommand string
	ExtraArgs  []string
}

func configFromFlags() (*config, error) {
	mp := *manifestPath
	if mp == "" {
		mp = "Cargo.toml"
	}
	abs, err := filepath.Abs(mp)
	if err != nil {
		return nil, herrors.New(herrors.ConfigError, err)
	}

	step, err := version.ParseStep(*versionStep)
	if err != nil {
		return nil, err
	}

	if *rustVersionFlag && *versionRange != "" {
		return nil, herrors.Newf(herrors.ConfigError, "--rust-version and --version-range are mutually exclusive")
	}

	hackDefaults, err := manifest.LoadHackDefaults(abs)
	if err != nil {
		return nil, herrors.New(herrors.MalformedManifest, err).WithOffending(abs)
	}

	eachFeatureVal := *eachFeature
	if !explicitFlags["each-feature"] && hackDefaults.EachFeature {
		eachFeatureVal = true
	}
	groupFeaturesVal := groupFeatures
	if !explicitFlags["group-features"] && len(hackDefaults.GroupFeatures) > 0 {
		groupFeaturesVal = hackDefaults.GroupFeatures
	}
	excludeFeaturesVal := excludeFeatures
	if !explicitFlags["exclude-features"] && !explicitFlags["skip"] && len(hackDefaults.ExcludeFeatures) > 0 {
		excludeFeaturesVal = hackDefaults.ExcludeFeatures
	}
	mutuallyExclusiveVal := mutuallyExclusiveFeatures
	if !explicitFlags["mutually-exclusive-features"] && len(hackDefaults.MutuallyExclusiveFeatures) > 0 {
		mutuallyExclusiveVal = hackDefaults.MutuallyExclusiveFeatures
	}

	args := flag.Args()
	var subcommand string
	var extra []string
	if len(args) > 0 {
		subcommand, extra = args[0], args[1:]
	}

	return &config{
		ManifestPath:   abs,
		NoManifestPath: *noManifestPath,

		Workspace: workspace.Config{
			All:           *all || *allAlias,
			Packages:      packages,
			Exclude:       excludes,
			IgnorePrivate: *ignorePrivate,
			NoPrivate:     *noPrivate,
		},

		Features:                  features,
		EachFeature:               eachFeatureVal,
		FeaturePowerset:           *featurePowerset,
		OptionalDeps:              *optionalDeps,
		ExcludeFeatures:           excludeFeaturesVal,
		ExcludeNoDefaultFeatures:  *excludeNoDefaultFeatures,
		ExcludeAllFeatures:        *excludeAllFeaturesFlag,
		IncludeFeatures:           includeFeatures,
		GroupFeatures:             groupFeaturesVal,
		MutuallyExclusiveFeatures: mutuallyExclusiveVal,
		AtLeastOneOf:              atLeastOneOf,
		Depth:                     *depth,
		IgnoreUnknownFeatures:     *ignoreUnknownFeatures,

		NoDevDeps:     *noDevDeps,
		RemoveDevDeps: *removeDevDeps,

		RustVersionOnly: *rustVersionFlag,
		VersionRange:    *versionRange,
		VersionStep:     step,

		CleanPerRun:      *cleanPerRun,
		CleanPerVersion:  *cleanPerVersion,
		KeepGoing:        *keepGoing,
		Partition:        *partition,
		Target:           *target,
		Locked:           *locked,
		PrintCommandList: *printCommandList,
		DryRun:           *dryRun,
		FeaturesOnly:     *featuresOnly,

		LogGroup: *logGroup,
		Color:    *color,

		BuilderBin:        *builderBin,
		VersionManagerBin: *versionManagerBin,

		Subcommand: subcommand,
		ExtraArgs:  extra,
	}, nil
}

// enumConfig builds the per-package enumerate.Config, sharing every
// cross-package flag; atoms and Closure are filled in by the caller once
// the package's Feature Model is available.
func (c *config) enumConfig() enumerate.Config {
	return enumerate.Config{
		Groups:                  groupMap(c.GroupFeatures),
		MutuallyExclusive:       c.MutuallyExclusiveFeatures,
		AtLeastOneOf:            c.AtLeastOneOf,
		EachFeature:             c.EachFeature,
		FeaturePowerset:         c.FeaturePowerset,
		Depth:                   c.Depth,
		DepthSpecified:          c.Depth > 0,
		ExcludeNoDefault:        c.ExcludeNoDefaultFeatures,
		ExcludeDefault:          hasFeature(c.ExcludeFeatures, "default"),
		ExcludeAllFeatures:      c.ExcludeAllFeatures,
		IncludeOrExcludeApplied: len(c.IncludeFeatures) > 0 || len(c.ExcludeFeatures) > 0,
		IncludeFeaturesSet:      len(c.IncludeFeatures) > 0,
	}
}

func groupMap(groups [][]string) map[string][]string {
	out := map[string][]string{}
	for i, members := range groups {
		out[syntheticGroupName(i)] = members
	}
	return out
}

// syntheticGroupName names a --group-features family deterministically
// (group-0, group-1, ...); the builder only ever sees the expanded
// member list, never this name.
func syntheticGroupName(i int) string {
	return "group-" + itoaDigits(i)
}

func itoaDigits(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

func hasFeature(list []string, name string) bool {
	for _, f := range list {
		if f == name {
			return true
		}
	}
	return false
}
