package search

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/docfusion/internal/domain/document"
	"github.com/kailas-cloud/docfusion/internal/domain/search/result"
	"github.com/kailas-cloud/docfusion/internal/domain/snippet"
)

const (
	// PreviewField holds the best short excerpt of a document.
	PreviewField = "_searchable_preview"

	previewRunes = 200
	defaultTitle = "技術文件"
	defaultType  = "文件"
	attrRelated  = "related_doc_numbers"
	attrDocType  = "doc_type"
	attrDept     = "department"
)

var (
	docNumberAttrs = []string{
		document.AttrDocNumber, "notice_number", "application_number", "complaint_number", "case_number",
	}
	issueDateAttrs = []string{"doc_date", "ecn_date", "complaint_date"}
	applicantAttrs = []string{"applicant", "responsible_person"}
)

func (s *Service) render(h result.Result, rec document.Record, content string, keywords []string) Document {
	summary := snippet.Clean(rec.Attrs[document.AttrSummary], true)
	docNumber := rec.First(docNumberAttrs...)
	docType := rec.First(attrDocType)
	fileName := rec.Attrs[document.AttrFileName]

	origin := h.Origin()
	if origin == "" {
		origin = rec.Origin
	}

	highlight := cleanHighlights(h.Highlights())
	if p := preview(highlight, summary); p != "" {
		highlight[PreviewField] = []string{p}
	}
	if len(highlight) == 0 {
		highlight = nil
	}

	return Document{
		DocID:        h.ID(),
		DocNumber:    docNumber,
		DocType:      docType,
		Title:        title(fileName, docType, docNumber),
		Summary:      summary,
		IssueDate:    rec.First(issueDateAttrs...),
		Department:   rec.First(attrDept),
		Applicant:    rec.First(applicantAttrs...),
		ProductCodes: rec.List(document.AttrProductCode),
		Keywords:     rec.List(document.AttrKeywords),
		FileURL:      s.files.Resolve(rec.First(document.AttrFilePath, document.AttrFileName), fileName),
		FileName:     fileName,
		Score:        math.Round(h.Score()*1000) / 1000,
		IndexOrigin:  origin,
		Highlight:    highlight,
		Snippets:     s.snippets.Extract(content, summary, keywords),
	}
}

func title(fileName, docType, docNumber string) string {
	if fileName != "" {
		return strings.TrimSuffix(fileName, ".pdf")
	}
	if docNumber != "" {
		if docType == "" {
			docType = defaultType
		}
		return docType + " - " + docNumber
	}
	return defaultTitle
}

func cleanHighlights(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in)+1)
	for field, frags := range in {
		cleaned := make([]string, 0, len(frags))
		for _, f := range frags {
			if c := snippet.Clean(f, true); c != "" {
				cleaned = append(cleaned, c)
			}
		}
		if len(cleaned) > 0 {
			out[field] = cleaned
		}
	}
	return out
}

// preview picks the first highlight fragment in field order, falling back
// to the head of the summary.
func preview(highlight map[string][]string, summary string) string {
	fields := make([]string, 0, len(highlight))
	for f := range highlight {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if len(highlight[f]) > 0 {
			return highlight[f][0]
		}
	}

	if summary == "" {
		return ""
	}
	if utf8.RuneCountInString(summary) > previewRunes {
		return string([]rune(summary)[:previewRunes]) + "..."
	}
	return summary
}
