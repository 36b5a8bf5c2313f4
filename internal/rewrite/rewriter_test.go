package rewrite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStripDevDependenciesRestoresOnRequest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	original := "[package]\nname = \"foo\"\n\n[dev-dependencies]\ncriterion = \"0.5\"\n"
	if err := os.WriteFile(path, []byte(original), 0o644); err != nil {
		t.Fatal(err)
	}

	h := NewHandle()
	rw := &Rewriter{Handle: h}
	if err := rw.StripDevDependencies([]string{path}, true); err != nil {
		t.Fatalf("StripDevDependencies: %v", err)
	}

	stripped, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(stripped), "dev-dependencies") {
		t.Errorf("dev-dependencies survived stripping:\n%s", stripped)
	}

	if err := h.RestoreIfAny(); err != nil {
		t.Fatalf("RestoreIfAny: %v", err)
	}
	restored, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(restored) != original {
		t.Errorf("restored content = %q, want original %q", restored, original)
	}
}

func TestStripDevDependenciesPermanentWhenNotRestorable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	original := "[package]\nname = \"foo\"\n\n[dev-dependencies]\ncriterion = \"0.5\"\n"
	if err := os.WriteFile(path, []byte(original), 0o644); err != nil {
		t.Fatal(err)
	}

	h := NewHandle()
	rw := &Rewriter{Handle: h}
	if err := rw.StripDevDependencies([]string{path}, false); err != nil {
		t.Fatalf("StripDevDependencies: %v", err)
	}

	// --remove-dev-deps never records an edit, so restoring afterward
	// must be a no-op: the strip is permanent.
	if err := h.RestoreIfAny(); err != nil {
		t.Fatalf("RestoreIfAny: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(got), "dev-dependencies") {
		t.Errorf("--remove-dev-deps edit should survive RestoreIfAny, got:\n%s", got)
	}
}

func TestStripPrivateMembersRestoresOnRequest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	original := "[workspace]\nmembers = [\"crates/a\", \"crates/internal\"]\n"
	if err := os.WriteFile(path, []byte(original), 0o644); err != nil {
		t.Fatal(err)
	}

	h := NewHandle()
	rw := &Rewriter{Handle: h}
	if err := rw.StripPrivateMembers(path, []string{"crates/internal"}); err != nil {
		t.Fatalf("StripPrivateMembers: %v", err)
	}

	stripped, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(stripped), "exclude") {
		t.Errorf("expected an exclude array, got:\n%s", stripped)
	}

	if err := h.RestoreIfAny(); err != nil {
		t.Fatalf("RestoreIfAny: %v", err)
	}
	restored, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(restored) != original {
		t.Errorf("restored content = %q, want original %q", restored, original)
	}
}

func TestStripPrivateMembersNoopWhenNothingToStrip(t *testing.T) {
	h := NewHandle()
	rw := &Rewriter{Handle: h}
	if err := rw.StripPrivateMembers("/does/not/exist/Cargo.toml", nil); err != nil {
		t.Errorf("StripPrivateMembers with no private paths should short-circuit, got %v", err)
	}
}
