package mode

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Mode{Hybrid, Keyword, Vector}
	for _, m := range valid {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}

	invalid := []Mode{"", "semantic", "geo", "HYBRID"}
	for _, m := range invalid {
		if m.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", m)
		}
	}
}

func TestSources(t *testing.T) {
	tests := []struct {
		m       Mode
		keyword bool
		vector  bool
	}{
		{Hybrid, true, true},
		{Keyword, true, false},
		{Vector, false, true},
	}
	for _, tc := range tests {
		if tc.m.UsesKeyword() != tc.keyword || tc.m.UsesVector() != tc.vector {
			t.Errorf("%q: keyword=%v vector=%v", tc.m, tc.m.UsesKeyword(), tc.m.UsesVector())
		}
	}
}

func TestIndexSize(t *testing.T) {
	if got := Hybrid.IndexSize(10); got != 10 {
		t.Errorf("hybrid size = %d, want 10", got)
	}
	if got := Keyword.IndexSize(10); got != 20 {
		t.Errorf("keyword size = %d, want 20", got)
	}
	if got := Vector.IndexSize(7); got != 14 {
		t.Errorf("vector size = %d, want 14", got)
	}
}
