package search

import "github.com/kailas-cloud/docfusion/internal/domain/search/mode"

// Response is the ranked result of one search.
type Response struct {
	Query        string
	Mode         mode.Mode
	Total        int
	Documents    []Document
	Answer       string
	SearchTimeMS int64
	Metadata     Metadata
}

// Metadata describes how the query was interpreted.
type Metadata struct {
	StructuredHits   int
	IdentifiersFound []string
	KeywordsUsed     []string
	Index            string
}

// Document is a ranked document prepared for display.
type Document struct {
	DocID        string
	DocNumber    string
	DocType      string
	Title        string
	Summary      string
	IssueDate    string
	Department   string
	Applicant    string
	ProductCodes []string
	Keywords     []string
	FileURL      string
	FileName     string
	Score        float64
	IndexOrigin  string
	Highlight    map[string][]string
	Snippets     []string
}

// Detail is a single stored document.
type Detail struct {
	ID          string
	IndexOrigin string
	Fields      map[string]string
	FileURL     string
	Related     []string
}

// Stats are document counts per logical index.
type Stats struct {
	Total  int
	Counts map[string]int
}
