package reconcile

import (
	"sort"
	"testing"
)

func sorted(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCompute_Basic(t *testing.T) {
	disk := NewSet("a", "b", "c")
	store := NewSet("b", "c", "d")

	d := Compute(disk, store)
	if got := sorted(d.Missing); !equal(got, []string{"a"}) {
		t.Errorf("Missing = %v, want [a]", got)
	}
	if got := sorted(d.Stale); !equal(got, []string{"d"}) {
		t.Errorf("Stale = %v, want [d]", got)
	}
}

func TestCompute_EqualSets(t *testing.T) {
	disk := NewSet("a", "b")
	store := NewSet("b", "a")

	d := Compute(disk, store)
	if len(d.Missing) != 0 || len(d.Stale) != 0 {
		t.Errorf("Compute(equal sets) = %+v, want both empty", d)
	}
}

func TestCompute_EmptySides(t *testing.T) {
	d := Compute(NewSet("a"), NewSet())
	if got := sorted(d.Missing); !equal(got, []string{"a"}) {
		t.Errorf("Missing = %v, want [a]", got)
	}
	if len(d.Stale) != 0 {
		t.Errorf("Stale = %v, want empty", d.Stale)
	}

	d = Compute(NewSet(), NewSet("z"))
	if len(d.Missing) != 0 {
		t.Errorf("Missing = %v, want empty", d.Missing)
	}
	if got := sorted(d.Stale); !equal(got, []string{"z"}) {
		t.Errorf("Stale = %v, want [z]", got)
	}
}

func TestCompute_ResultsAreSubsets(t *testing.T) {
	disk := NewSet("a", "b", "c", "e")
	store := NewSet("b", "d", "f")

	d := Compute(disk, store)
	for _, k := range d.Missing {
		if !disk.Contains(k) {
			t.Errorf("missing key %q not in disk set", k)
		}
		if store.Contains(k) {
			t.Errorf("missing key %q is in store set", k)
		}
	}
	for _, k := range d.Stale {
		if !store.Contains(k) {
			t.Errorf("stale key %q not in store set", k)
		}
		if disk.Contains(k) {
			t.Errorf("stale key %q is in disk set", k)
		}
	}
}

func TestCompute_DoesNotMutateInputs(t *testing.T) {
	disk := NewSet("a", "b")
	store := NewSet("c")

	_ = Compute(disk, store)
	if len(disk) != 2 || len(store) != 1 {
		t.Errorf("inputs mutated: disk=%v store=%v", disk, store)
	}
}

func TestNewSet_DropsEmptyKeys(t *testing.T) {
	s := NewSet("a", "", "b")
	if len(s) != 2 {
		t.Errorf("NewSet kept empty key: %v", s)
	}
	s.Add("")
	if len(s) != 2 {
		t.Errorf("Add kept empty key: %v", s)
	}
}
