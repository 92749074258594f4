package db

import "testing"

func TestTagMatch(t *testing.T) {
	tests := []struct {
		field, value, want string
	}{
		{"index_origin", "erp-fmea", `@index_origin:{erp\-fmea}`},
		{"doc_type", "ECN notice", `@doc_type:{ECN\ notice}`},
		{"doc_id", "a.b", `@doc_id:{a\.b}`},
	}
	for _, tc := range tests {
		if got := TagMatch(tc.field, tc.value); got != tc.want {
			t.Errorf("TagMatch(%q, %q) = %q, want %q", tc.field, tc.value, got, tc.want)
		}
	}
}

func TestIsMissing(t *testing.T) {
	if got := IsMissing("vector_generated_at"); got != "ismissing(@vector_generated_at)" {
		t.Errorf("IsMissing() = %q", got)
	}
}
