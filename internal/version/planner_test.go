package version

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Scenario E: --version-range 1.60..=1.62 --version-step 2 emits exactly
// 1.60 and 1.62.
func TestScenarioEVersionRangeWithStep(t *testing.T) {
	r, err := ParseRange("1.60..=1.62")
	if err != nil {
		t.Fatalf("ParseRange: %v", err)
	}
	got, err := Plan(r, 2, "", "")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	want := []string{"1.60", "1.62"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Plan() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRangeDeprecatedNonInclusiveForm(t *testing.T) {
	r, err := ParseRange("1.60..1.62")
	if err != nil {
		t.Fatalf("ParseRange: %v", err)
	}
	if !r.Deprecated {
		t.Error("non-inclusive form with an explicit end should be marked Deprecated")
	}
	got, err := Plan(r, 1, "", "")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	want := []string{"1.60", "1.61", "1.62"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Plan() mismatch (-want +got):\n%s", diff)
	}
}

// Regression: Plan used to re-sort its output with sort.Strings, which
// misorders across a digit-count boundary (e.g. "1.9" after "1.10").
func TestPlanPreservesNumericOrderAcrossDigitBoundary(t *testing.T) {
	r, err := ParseRange("1.9..=1.11")
	if err != nil {
		t.Fatalf("ParseRange: %v", err)
	}
	got, err := Plan(r, 1, "", "")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	want := []string{"1.9", "1.10", "1.11"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Plan() mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanUsesDefaultsWhenBoundsOmitted(t *testing.T) {
	r, err := ParseRange("..=1.62")
	if err != nil {
		t.Fatalf("ParseRange: %v", err)
	}
	got, err := Plan(r, 1, "1.60", "")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	want := []string{"1.60", "1.61", "1.62"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Plan() mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanRejectsEndBeforeStart(t *testing.T) {
	r, err := ParseRange("1.62..=1.60")
	if err != nil {
		t.Fatalf("ParseRange: %v", err)
	}
	if _, err := Plan(r, 1, "", ""); err == nil {
		t.Error("Plan should reject an end before its start")
	}
}

func TestPlanRejectsUnresolvableBounds(t *testing.T) {
	r, err := ParseRange("..=1.62")
	if err != nil {
		t.Fatalf("ParseRange: %v", err)
	}
	if _, err := Plan(r, 1, "", ""); err == nil {
		t.Error("Plan should reject a range with no resolvable start")
	}
}

func TestPlanRustVersionSingleElement(t *testing.T) {
	got, err := PlanRustVersion("1.70")
	if err != nil {
		t.Fatalf("PlanRustVersion: %v", err)
	}
	want := []string{"1.70"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PlanRustVersion() mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanRustVersionRequiresDeclaredVersion(t *testing.T) {
	if _, err := PlanRustVersion(""); err == nil {
		t.Error("PlanRustVersion(\"\") should fail without a declared rust-version")
	}
}

func TestMinRustVersionIgnoresEmptyAndPicksLowest(t *testing.T) {
	got := MinRustVersion([]string{"1.75", "", "1.60", "1.68"})
	if got != "1.60" {
		t.Errorf("MinRustVersion = %q, want %q", got, "1.60")
	}
}

func TestParseStepDefaultsToOne(t *testing.T) {
	n, err := ParseStep("")
	if err != nil {
		t.Fatalf("ParseStep: %v", err)
	}
	if n != 1 {
		t.Errorf("ParseStep(\"\") = %d, want 1", n)
	}
}

func TestParseStepRejectsNonPositive(t *testing.T) {
	for _, s := range []string{"0", "-1", "abc"} {
		if _, err := ParseStep(s); err == nil {
			t.Errorf("ParseStep(%q) should have failed", s)
		}
	}
}
