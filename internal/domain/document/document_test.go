package document

import (
	"reflect"
	"testing"
)

func TestCategoryForOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   Category
	}{
		{IndexNotices, CategoryNotice},
		{IndexApplications, CategoryApplication},
		{IndexComplaints, CategoryComplaint},
		{IndexFMEA, CategoryFailureAnalysis},
		{IndexDocuments, CategoryStructured},
		{"ERP-FMEA-2024", CategoryFailureAnalysis},
		{"structured-docs", CategoryStructured},
		{"erp-misc", CategoryGeneric},
		{"", CategoryGeneric},
	}
	for _, tc := range tests {
		t.Run(tc.origin, func(t *testing.T) {
			if got := CategoryForOrigin(tc.origin); got != tc.want {
				t.Errorf("CategoryForOrigin(%q) = %q, want %q", tc.origin, got, tc.want)
			}
		})
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"json", `["ABC-123", " XYZ ", ""]`, []string{"ABC-123", "XYZ"}},
		{"comma", "a, b ,,c", []string{"a", "b", "c"}},
		{"broken json falls back", `[a, b`, []string{"[a", "b"}},
		{"only separators", " , ,", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseList(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ParseList(%q) = %#v, want %#v", tc.in, got, tc.want)
			}
		})
	}
}

func TestDecode_FailureAnalysisScores(t *testing.T) {
	f := Decode(CategoryFailureAnalysis, map[string]string{
		"case_number":           "F-1",
		"severity_s":            "8",
		"rpn":                   "not-a-number",
		"is_customer_complaint": "true",
	})

	fa, ok := f.(FailureAnalysisFields)
	if !ok {
		t.Fatalf("expected FailureAnalysisFields, got %T", f)
	}
	if fa.Severity == nil || *fa.Severity != 8 {
		t.Errorf("expected severity 8, got %v", fa.Severity)
	}
	if fa.RPN != nil {
		t.Errorf("expected nil RPN for unparseable value, got %v", *fa.RPN)
	}
	if fa.Occurrence != nil {
		t.Error("expected nil occurrence when absent")
	}
	if !fa.CustomerComplaint {
		t.Error("expected customer complaint flag")
	}
}

func TestDecode_Structured(t *testing.T) {
	f := Decode(CategoryStructured, map[string]string{
		"doc_number":    "TD-1",
		"product_codes": `["ABC-123","ABC-124"]`,
		"keywords":      "焊接,鍍層",
	})

	sf, ok := f.(StructuredFields)
	if !ok {
		t.Fatalf("expected StructuredFields, got %T", f)
	}
	if sf.DocNumber != "TD-1" {
		t.Errorf("unexpected doc number %q", sf.DocNumber)
	}
	if !reflect.DeepEqual(sf.ProductCodes, []string{"ABC-123", "ABC-124"}) {
		t.Errorf("unexpected product codes %v", sf.ProductCodes)
	}
	if !reflect.DeepEqual(sf.Keywords, []string{"焊接", "鍍層"}) {
		t.Errorf("unexpected keywords %v", sf.Keywords)
	}
}

func TestDecode_GenericExcludesInternal(t *testing.T) {
	f := Decode(CategoryGeneric, map[string]string{
		"b":          "2",
		"a":          "1",
		AttrVector:   "blob",
		AttrVectorAt: "1700000000",
		AttrOrigin:   "erp-misc",
		AttrDocID:    "x",
	})

	gf, ok := f.(GenericFields)
	if !ok {
		t.Fatalf("expected GenericFields, got %T", f)
	}
	want := []Attr{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}}
	if !reflect.DeepEqual(gf.Attrs, want) {
		t.Errorf("got %v, want %v", gf.Attrs, want)
	}
}

func TestRecord_First(t *testing.T) {
	r := Record{Attrs: map[string]string{
		"doc_number":    " ",
		"notice_number": "EN-1",
		"case_number":   "F-1",
	}}

	if got := r.First("doc_number", "notice_number", "case_number"); got != "EN-1" {
		t.Errorf("expected EN-1, got %q", got)
	}
	if got := r.First("missing"); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestRecord_Public(t *testing.T) {
	r := Record{Attrs: map[string]string{
		"summary":    "s",
		AttrVector:   "blob",
		AttrVectorAt: "1",
	}}

	pub := r.Public()
	if _, ok := pub[AttrVector]; ok {
		t.Error("vector must not be public")
	}
	if _, ok := pub[AttrVectorAt]; ok {
		t.Error("vector timestamp must not be public")
	}
	if pub["summary"] != "s" {
		t.Error("expected summary to be public")
	}
}

func TestRecord_FieldsFollowOrigin(t *testing.T) {
	r := Record{Origin: IndexComplaints, Attrs: map[string]string{"complaint_number": "CS-1"}}

	f := r.Fields()
	if f.Category() != CategoryComplaint {
		t.Fatalf("expected complaint category, got %q", f.Category())
	}
	if f.(ComplaintFields).ComplaintNumber != "CS-1" {
		t.Error("expected complaint number to be decoded")
	}
}
