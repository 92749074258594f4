package document

import "strings"

// Category is the source category of a document. A document keeps its
// category for the lifetime of the record.
type Category string

// Category values.
const (
	CategoryNotice          Category = "notice"
	CategoryApplication     Category = "application"
	CategoryComplaint       Category = "complaint"
	CategoryFailureAnalysis Category = "failure-analysis"
	CategoryStructured      Category = "document"
	CategoryGeneric         Category = "generic"
)

// Logical source indices written by the intake pipeline.
const (
	IndexNotices      = "erp-ecn-notices"
	IndexApplications = "erp-ecn-applications"
	IndexComplaints   = "erp-complaint-records"
	IndexFMEA         = "erp-fmea"
	IndexDocuments    = "erp-documents"
)

// KnownIndices lists the logical indices in reporting order.
var KnownIndices = []string{
	IndexNotices,
	IndexApplications,
	IndexComplaints,
	IndexFMEA,
	IndexDocuments,
}

// CategoryForOrigin maps a logical index name to its category.
// Unrecognized names map to CategoryGeneric.
func CategoryForOrigin(origin string) Category {
	o := strings.ToLower(origin)
	switch {
	case strings.Contains(o, "ecn-notice"):
		return CategoryNotice
	case strings.Contains(o, "ecn-application"):
		return CategoryApplication
	case strings.Contains(o, "complaint"):
		return CategoryComplaint
	case strings.Contains(o, "fmea"):
		return CategoryFailureAnalysis
	case strings.Contains(o, "document"), strings.Contains(o, "structure"):
		return CategoryStructured
	default:
		return CategoryGeneric
	}
}
