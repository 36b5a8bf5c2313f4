package runner

import (
	"strings"
	"testing"

	"github.com/distr1/hackctl/internal/enumerate"
	"github.com/distr1/hackctl/internal/manifest"
)

func TestBuildCommandExplicitFeatures(t *testing.T) {
	opts := Options{
		Subcommand:       "check",
		BuilderBin:       "cargo",
		DefaultToolchain: "1.75",
	}
	r := Run{
		Toolchain: "1.75",
		Package:   &manifest.Package{ManifestPath: "/ws/crates/a/Cargo.toml"},
		Combination: enumerate.Combination{
			Kind:     enumerate.Explicit,
			Features: []string{"a", "b"},
		},
	}
	argv := BuildCommand(opts, r)
	got := strings.Join(argv, " ")
	want := "check --manifest-path /ws/crates/a/Cargo.toml --features a,b"
	if got != want {
		t.Errorf("BuildCommand = %q, want %q", got, want)
	}
	if bin := Binary(opts, r); bin != "cargo" {
		t.Errorf("binary = %q, want cargo", bin)
	}
}

func TestBuildCommandVersionManagerPrefix(t *testing.T) {
	opts := Options{
		Subcommand:        "test",
		BuilderBin:        "cargo",
		DefaultToolchain:  "1.75",
		VersionManagerBin: "rustup",
		NoManifestPath:    true,
	}
	r := Run{
		Toolchain:   "1.60",
		Package:     &manifest.Package{ManifestPath: "/ws/Cargo.toml"},
		Combination: enumerate.Combination{Kind: enumerate.NoDefault, NoDefaultFeatures: true},
	}
	argv := BuildCommand(opts, r)
	got := strings.Join(argv, " ")
	want := "run --1.60 cargo test --no-default-features"
	if got != want {
		t.Errorf("BuildCommand = %q, want %q", got, want)
	}
	if bin := Binary(opts, r); bin != "rustup" {
		t.Errorf("binary = %q, want rustup", bin)
	}
}

func TestBuildCommandBaseFeaturesMergeWithExplicit(t *testing.T) {
	opts := Options{
		Subcommand:       "check",
		BuilderBin:       "cargo",
		DefaultToolchain: "1.75",
		BaseFeatures:     []string{"always-on"},
	}
	r := Run{
		Toolchain:   "1.75",
		Package:     &manifest.Package{ManifestPath: "/ws/Cargo.toml"},
		Combination: enumerate.Combination{Kind: enumerate.Explicit, Features: []string{"b"}},
	}
	argv := BuildCommand(opts, r)
	got := strings.Join(argv, " ")
	want := "check --manifest-path /ws/Cargo.toml --features always-on,b"
	if got != want {
		t.Errorf("BuildCommand = %q, want %q", got, want)
	}
}

func TestBuildCommandExplicitFeaturesGroupAlreadyExpanded(t *testing.T) {
	opts := Options{
		Subcommand:       "check",
		BuilderBin:       "cargo",
		DefaultToolchain: "1.75",
	}
	// Combination.Features must already hold the group's member names by
	// the time BuildCommand sees it; the group name itself never appears
	// on a command line.
	r := Run{
		Toolchain: "1.75",
		Package:   &manifest.Package{ManifestPath: "/ws/Cargo.toml"},
		Combination: enumerate.Combination{
			Kind:     enumerate.Explicit,
			Features: []string{"tokio", "tracing"},
		},
	}
	argv := BuildCommand(opts, r)
	got := strings.Join(argv, " ")
	want := "check --manifest-path /ws/Cargo.toml --features tokio,tracing"
	if got != want {
		t.Errorf("BuildCommand = %q, want %q", got, want)
	}
}

func TestBuildCommandAllFeaturesAndLocked(t *testing.T) {
	opts := Options{
		Subcommand:       "build",
		BuilderBin:       "cargo",
		DefaultToolchain: "1.75",
		Locked:           true,
	}
	r := Run{
		Toolchain:   "1.75",
		Package:     &manifest.Package{ManifestPath: "/ws/Cargo.toml"},
		Combination: enumerate.Combination{Kind: enumerate.AllFeatures},
	}
	argv := BuildCommand(opts, r)
	got := strings.Join(argv, " ")
	want := "build --manifest-path /ws/Cargo.toml --all-features --locked"
	if got != want {
		t.Errorf("BuildCommand = %q, want %q", got, want)
	}
}
