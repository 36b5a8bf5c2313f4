package manifest

import "github.com/BurntSushi/toml"

// HackDefaults is the subset of manifest-embedded configuration hackctl
// reads as CLI-flag defaults: a `[workspace.metadata.hack]` table for workspace
// manifests, or a top-level `[hack]` table for a standalone package
// manifest. CLI flags always override whatever is found here.
type HackDefaults struct {
	EachFeature               bool
	GroupFeatures             [][]string
	ExcludeFeatures           []string
	MutuallyExclusiveFeatures [][]string
}

type rawHackMetadata struct {
	EachFeature               bool       `toml:"each-feature"`
	GroupFeatures             [][]string `toml:"group-features"`
	ExcludeFeatures           []string   `toml:"exclude-features"`
	MutuallyExclusiveFeatures [][]string `toml:"mutually-exclusive-features"`
}

type rawHackConfigDoc struct {
	Workspace *struct {
		Metadata *struct {
			Hack *rawHackMetadata `toml:"hack"`
		} `toml:"metadata"`
	} `toml:"workspace"`
	Hack *rawHackMetadata `toml:"hack"`
}

// LoadHackDefaults reads path (the root manifest) for a companion-tool
// defaults table, returning a zero HackDefaults (no error) if neither
// table is present.
func LoadHackDefaults(path string) (HackDefaults, error) {
	var raw rawHackConfigDoc
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return HackDefaults{}, err
	}
	var meta *rawHackMetadata
	if raw.Workspace != nil && raw.Workspace.Metadata != nil && raw.Workspace.Metadata.Hack != nil {
		meta = raw.Workspace.Metadata.Hack
	} else if raw.Hack != nil {
		meta = raw.Hack
	}
	if meta == nil {
		return HackDefaults{}, nil
	}
	return HackDefaults{
		EachFeature:               meta.EachFeature,
		GroupFeatures:             meta.GroupFeatures,
		ExcludeFeatures:           meta.ExcludeFeatures,
		MutuallyExclusiveFeatures: meta.MutuallyExclusiveFeatures,
	}, nil
}
