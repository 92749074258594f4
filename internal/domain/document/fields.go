package document

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Segment is one labelled piece of a canonical text template.
// Segments with an empty Value are omitted when rendered.
type Segment struct {
	Label string
	Value string
}

// Fields is the category-specific structured part of a document.
// Segments returns the ordered extraction template for embedding input.
type Fields interface {
	Category() Category
	Segments() []Segment
}

// NoticeFields are the attributes of an engineering change notice.
type NoticeFields struct {
	NoticeNumber      string
	ProductName       string
	ProductCode       string
	ChangeDescription string
	BeforeChange      string
	AfterChange       string
	InventoryHandling string
	Applicant         string
}

// Category implements Fields.
func (NoticeFields) Category() Category { return CategoryNotice }

// Segments implements Fields.
func (f NoticeFields) Segments() []Segment {
	return []Segment{
		{"設變通知單 ", f.NoticeNumber},
		{"", f.ProductName},
		{"品號 ", f.ProductCode},
		{"設變說明：", f.ChangeDescription},
		{"設變前：", f.BeforeChange},
		{"設變後：", f.AfterChange},
		{"庫存處理：", f.InventoryHandling},
		{"申請人：", f.Applicant},
	}
}

// ApplicationFields are the attributes of an engineering change application.
type ApplicationFields struct {
	ApplicationNumber  string
	ProductName        string
	ProductCode        string
	Reason             string
	ChangeItems        string
	ChangeBefore       string
	ChangeAfter        string
	MeetingSuggestions string
	ReviewNotes        string
}

// Category implements Fields.
func (ApplicationFields) Category() Category { return CategoryApplication }

// Segments implements Fields.
func (f ApplicationFields) Segments() []Segment {
	return []Segment{
		{"設變申請單 ", f.ApplicationNumber},
		{"", f.ProductName},
		{"品號 ", f.ProductCode},
		{"緣由：", f.Reason},
		{"設變項目：", f.ChangeItems},
		{"設變前：", f.ChangeBefore},
		{"設變後：", f.ChangeAfter},
		{"會議建議：", f.MeetingSuggestions},
		{"審查說明：", f.ReviewNotes},
	}
}

// ComplaintFields are the attributes of a customer complaint record.
type ComplaintFields struct {
	ComplaintNumber      string
	CustomerName         string
	ProductName          string
	ProductCode          string
	ComplaintDescription string
	ComplaintAnalysis    string
	ResponsibleSales     string
}

// Category implements Fields.
func (ComplaintFields) Category() Category { return CategoryComplaint }

// Segments implements Fields.
func (f ComplaintFields) Segments() []Segment {
	return []Segment{
		{"客訴單 ", f.ComplaintNumber},
		{"客戶：", f.CustomerName},
		{"", f.ProductName},
		{"品號 ", f.ProductCode},
		{"抱怨內容：", f.ComplaintDescription},
		{"分析：", f.ComplaintAnalysis},
		{"承辦：", f.ResponsibleSales},
	}
}

// FailureAnalysisFields are the attributes of an FMEA record.
// Risk scores are nil when absent.
type FailureAnalysisFields struct {
	CaseNumber        string
	AnalysisType      string
	CaseName          string
	ProductType       string
	AnalysisItem      string
	FailureMode       string
	FailureEffect     string
	FailureCause      string
	Severity          *float64
	Occurrence        *float64
	Detection         *float64
	RPN               *float64
	CorrectiveAction  string
	ImprovementResult string
	CustomerComplaint bool
	ResponsiblePerson string
}

// Category implements Fields.
func (FailureAnalysisFields) Category() Category { return CategoryFailureAnalysis }

// Segments implements Fields. Risk scores collapse into one segment of
// compact label+value tokens.
func (f FailureAnalysisFields) Segments() []Segment {
	analysisType := f.AnalysisType
	if analysisType == "" {
		analysisType = "FMEA"
	}

	var complaint string
	if f.CustomerComplaint {
		complaint = "客訴案"
	}

	return []Segment{
		{analysisType + " ", f.CaseNumber},
		{"", f.CaseName},
		{"產品：", f.ProductType},
		{"分析項目：", f.AnalysisItem},
		{"失效模式：", f.FailureMode},
		{"失效影響：", f.FailureEffect},
		{"失效成因：", f.FailureCause},
		{"", f.riskTokens()},
		{"對策方案：", f.CorrectiveAction},
		{"改善結果：", f.ImprovementResult},
		{"", complaint},
		{"負責人：", f.ResponsiblePerson},
	}
}

func (f FailureAnalysisFields) riskTokens() string {
	scores := []struct {
		label string
		v     *float64
	}{
		{"嚴重度", f.Severity},
		{"發生度", f.Occurrence},
		{"難檢度", f.Detection},
		{"RPN", f.RPN},
	}

	tokens := make([]string, 0, len(scores))
	for _, s := range scores {
		if s.v != nil {
			tokens = append(tokens, s.label+strconv.FormatFloat(*s.v, 'f', -1, 64))
		}
	}
	return strings.Join(tokens, " ")
}

// StructuredFields are the attributes of a parsed technical document.
type StructuredFields struct {
	DocNumber    string
	ProductNames []string
	ProductCodes []string
	Summary      string
	Keywords     []string
}

// Category implements Fields.
func (StructuredFields) Category() Category { return CategoryStructured }

// Segments implements Fields. Lists are capped so that a long product list
// cannot crowd out the summary.
func (f StructuredFields) Segments() []Segment {
	segs := []Segment{{"", f.DocNumber}}
	segs = appendValues(segs, head(f.ProductNames, 3))
	segs = appendValues(segs, head(f.ProductCodes, 3))
	segs = append(segs, Segment{"", f.Summary})
	return appendValues(segs, head(f.Keywords, 5))
}

// Attr is a loosely typed attribute of a document without a known category.
type Attr struct {
	Name  string
	Value string
}

// GenericFields hold the attributes of an unrecognized category in a stable order.
type GenericFields struct {
	Attrs []Attr
}

// genericPriority lists the attributes tried first for unrecognized categories.
var genericPriority = []string{
	"summary", "description", "content", "title",
	"product_name", "complaint_description", "change_description",
}

// Category implements Fields.
func (GenericFields) Category() Category { return CategoryGeneric }

// Segments implements Fields. The first priority attribute longer than ten
// characters wins; otherwise up to five non-empty attributes are joined.
func (f GenericFields) Segments() []Segment {
	for _, name := range genericPriority {
		if v := f.lookup(name); utf8.RuneCountInString(v) > 10 {
			return []Segment{{"", v}}
		}
	}

	segs := make([]Segment, 0, 5)
	for _, a := range f.Attrs {
		if a.Value == "" {
			continue
		}
		segs = append(segs, Segment{"", a.Value})
		if len(segs) == 5 {
			break
		}
	}
	return segs
}

func (f GenericFields) lookup(name string) string {
	for _, a := range f.Attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

func appendValues(segs []Segment, values []string) []Segment {
	for _, v := range values {
		segs = append(segs, Segment{"", v})
	}
	return segs
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
