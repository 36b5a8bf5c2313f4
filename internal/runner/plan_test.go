package runner

import "testing"

func TestPartitionScenarioF(t *testing.T) {
	plan := make([]Run, 7)
	got, err := Partition(plan, "2/3")
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2 (indices {1,4})", len(got))
	}
}

func TestPartitionCoversWholePlanExactlyOnce(t *testing.T) {
	plan := make([]Run, 7)
	for i := range plan {
		plan[i].Toolchain = itoa(i) // distinct marker per index
	}
	const n = 3
	seen := map[string]int{}
	for m := 1; m <= n; m++ {
		got, err := Partition(plan, itoa(m)+"/"+itoa(n))
		if err != nil {
			t.Fatalf("Partition %d/%d: %v", m, n, err)
		}
		for _, r := range got {
			seen[r.Toolchain]++
		}
	}
	for _, r := range plan {
		if c := seen[r.Toolchain]; c != 1 {
			t.Errorf("index %s covered %d times, want exactly 1", r.Toolchain, c)
		}
	}
}

func TestPartitionRejectsBadSpec(t *testing.T) {
	plan := make([]Run, 7)
	for _, spec := range []string{"0/3", "4/3", "abc", "2", "2/0"} {
		if _, err := Partition(plan, spec); err == nil {
			t.Errorf("Partition(%q) should have failed", spec)
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
