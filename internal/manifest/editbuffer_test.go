package manifest

import (
	"strings"
	"testing"
)

func TestRemoveDevDependenciesIdempotent(t *testing.T) {
	src := `[package]
name = "foo"

[dependencies]
serde = "1"

[dev-dependencies]
criterion = "0.5"

[target.'cfg(unix)'.dev-dependencies]
nix = "0.27"

[build-dependencies]
cc = "1"
`
	buf := NewEditBuffer([]byte(src))
	buf.RemoveDevDependencies()
	out := string(buf.Bytes())
	if strings.Contains(out, "dev-dependencies") {
		t.Errorf("dev-dependencies section survived:\n%s", out)
	}
	if !strings.Contains(out, "[build-dependencies]") || !strings.Contains(out, "cc = ") {
		t.Errorf("unrelated section was damaged:\n%s", out)
	}
	if !strings.Contains(out, `serde = "1"`) {
		t.Errorf("unrelated dependency was damaged:\n%s", out)
	}

	again := NewEditBuffer(buf.Bytes())
	again.RemoveDevDependencies()
	if again.Changed() {
		t.Errorf("second application should be a no-op, got changed bytes:\n%s", again.Bytes())
	}
}

func TestRemovePrivateMembers(t *testing.T) {
	src := `[workspace]
members = ["crates/a", "crates/b", "crates/internal"]
`
	buf := NewEditBuffer([]byte(src))
	buf.RemovePrivateMembers([]string{"crates/internal"})
	out := string(buf.Bytes())
	if strings.Contains(out, `members = ["crates/a", "crates/b", "crates/internal"]`) {
		t.Errorf("members array unchanged:\n%s", out)
	}
	if !strings.Contains(out, `exclude`) || !strings.Contains(out, `"crates/internal"`) {
		t.Errorf("excluded member missing from exclude array:\n%s", out)
	}
	if !strings.Contains(out, `"crates/a"`) || !strings.Contains(out, `"crates/b"`) {
		t.Errorf("surviving members dropped:\n%s", out)
	}
}
