package document

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Hash attribute names shared by the search index and the write path.
const (
	AttrDocID       = "doc_id"
	AttrOrigin      = "index_origin"
	AttrDocType     = "doc_type"
	AttrDocNumber   = "doc_number"
	AttrFileName    = "file_name"
	AttrFilePath    = "file_path"
	AttrSummary     = "summary"
	AttrKeywords    = "keywords"
	AttrContent     = "content"
	AttrVector      = "content_vector"
	AttrVectorAt    = "vector_generated_at"
	AttrProductCode = "product_codes"
)

// internalAttrs never reach canonical text or API responses.
var internalAttrs = map[string]bool{
	AttrVector:   true,
	AttrVectorAt: true,
	AttrOrigin:   true,
	AttrDocID:    true,
}

// Record is a document as stored in the search index: a stable ID, the
// logical index it came from and its flat attributes.
type Record struct {
	ID     string
	Origin string
	Attrs  map[string]string
}

// Category returns the category derived from the record's origin.
func (r Record) Category() Category {
	return CategoryForOrigin(r.Origin)
}

// Fields decodes the record into its category-specific struct.
func (r Record) Fields() Fields {
	return Decode(r.Category(), r.Attrs)
}

// First returns the first non-empty attribute among names.
func (r Record) First(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(r.Attrs[n]); v != "" {
			return v
		}
	}
	return ""
}

// List returns a list-valued attribute.
func (r Record) List(name string) []string {
	return ParseList(r.Attrs[name])
}

// Public returns the attributes safe to expose, without internal fields.
func (r Record) Public() map[string]string {
	out := make(map[string]string, len(r.Attrs))
	for k, v := range r.Attrs {
		if !internalAttrs[k] {
			out[k] = v
		}
	}
	return out
}

// Decode builds the category-specific Fields from flat attributes.
// Absent attributes stay empty.
func Decode(c Category, a map[string]string) Fields {
	switch c {
	case CategoryNotice:
		return NoticeFields{
			NoticeNumber:      a["notice_number"],
			ProductName:       a["product_name"],
			ProductCode:       a["product_code"],
			ChangeDescription: a["change_description"],
			BeforeChange:      a["before_change"],
			AfterChange:       a["after_change"],
			InventoryHandling: a["inventory_handling"],
			Applicant:         a["applicant"],
		}
	case CategoryApplication:
		return ApplicationFields{
			ApplicationNumber:  a["application_number"],
			ProductName:        a["product_name"],
			ProductCode:        a["product_code"],
			Reason:             a["reason"],
			ChangeItems:        a["change_items"],
			ChangeBefore:       a["change_before"],
			ChangeAfter:        a["change_after"],
			MeetingSuggestions: a["meeting_suggestions"],
			ReviewNotes:        a["review_notes"],
		}
	case CategoryComplaint:
		return ComplaintFields{
			ComplaintNumber:      a["complaint_number"],
			CustomerName:         a["customer_name"],
			ProductName:          a["product_name"],
			ProductCode:          a["product_code"],
			ComplaintDescription: a["complaint_description"],
			ComplaintAnalysis:    a["complaint_analysis"],
			ResponsibleSales:     a["responsible_sales"],
		}
	case CategoryFailureAnalysis:
		return FailureAnalysisFields{
			CaseNumber:        a["case_number"],
			AnalysisType:      a["analysis_type"],
			CaseName:          a["case_name"],
			ProductType:       a["product_type"],
			AnalysisItem:      a["analysis_item"],
			FailureMode:       a["failure_mode"],
			FailureEffect:     a["failure_effect"],
			FailureCause:      a["failure_cause"],
			Severity:          parseScore(a["severity_s"]),
			Occurrence:        parseScore(a["occurrence_o"]),
			Detection:         parseScore(a["detection_d"]),
			RPN:               parseScore(a["rpn"]),
			CorrectiveAction:  a["corrective_action"],
			ImprovementResult: a["improvement_result"],
			CustomerComplaint: parseFlag(a["is_customer_complaint"]),
			ResponsiblePerson: a["responsible_person"],
		}
	case CategoryStructured:
		return StructuredFields{
			DocNumber:    a[AttrDocNumber],
			ProductNames: ParseList(a["product_names"]),
			ProductCodes: ParseList(a[AttrProductCode]),
			Summary:      a[AttrSummary],
			Keywords:     ParseList(a[AttrKeywords]),
		}
	default:
		names := make([]string, 0, len(a))
		for k := range a {
			if !internalAttrs[k] {
				names = append(names, k)
			}
		}
		sort.Strings(names)

		attrs := make([]Attr, 0, len(names))
		for _, n := range names {
			attrs = append(attrs, Attr{Name: n, Value: a[n]})
		}
		return GenericFields{Attrs: attrs}
	}
}

// ParseList reads a list attribute stored either as a JSON array or as a
// comma-separated string.
func ParseList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if strings.HasPrefix(s, "[") {
		var out []string
		if err := json.Unmarshal([]byte(s), &out); err == nil {
			return compact(out)
		}
	}

	return compact(strings.Split(s, ","))
}

func compact(in []string) []string {
	out := in[:0]
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseScore(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "是":
		return true
	default:
		return false
	}
}
