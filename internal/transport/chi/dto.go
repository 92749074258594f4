package chi

import (
	searchuc "github.com/kailas-cloud/docfusion/internal/usecase/search"
)

type queryRequest struct {
	Query     string `json:"query"`
	Mode      string `json:"mode"`
	TopK      int    `json:"top_k"`
	UseAnswer bool   `json:"use_answer"`
}

type queryResponse struct {
	Success      bool               `json:"success"`
	Query        string             `json:"query"`
	Mode         string             `json:"mode"`
	Total        int                `json:"total"`
	Documents    []documentResponse `json:"documents"`
	Answer       *string            `json:"answer,omitempty"`
	SearchTimeMS int64              `json:"search_time_ms"`
	Metadata     queryMetadata      `json:"metadata"`
}

type queryMetadata struct {
	StructuredHits   int      `json:"structured_hits"`
	IdentifiersFound []string `json:"identifiers_found"`
	KeywordsUsed     []string `json:"keywords_used"`
	Index            string   `json:"index"`
}

type documentResponse struct {
	DocID        string              `json:"doc_id"`
	DocNumber    string              `json:"doc_number"`
	DocType      string              `json:"doc_type,omitempty"`
	Title        string              `json:"title,omitempty"`
	Summary      string              `json:"summary,omitempty"`
	IssueDate    string              `json:"issue_date,omitempty"`
	Department   string              `json:"department,omitempty"`
	Applicant    string              `json:"applicant,omitempty"`
	ProductCodes []string            `json:"product_codes"`
	Keywords     []string            `json:"keywords"`
	FileURL      string              `json:"file_url,omitempty"`
	FileName     string              `json:"file_name,omitempty"`
	Score        float64             `json:"score"`
	IndexOrigin  string              `json:"index_origin"`
	Highlight    map[string][]string `json:"highlight,omitempty"`
	Snippets     []string            `json:"snippets,omitempty"`
}

type detailResponse struct {
	Success           bool              `json:"success"`
	Document          map[string]string `json:"document"`
	RelatedDocNumbers []string          `json:"related_doc_numbers"`
}

type statsResponse struct {
	TotalDocuments int            `json:"total_documents"`
	IndexCounts    map[string]int `json:"index_counts"`
}

type healthResponse struct {
	Status    string            `json:"status"`
	Readiness string            `json:"readiness"`
	Checks    map[string]string `json:"checks"`
}

type infoResponse struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	Index       string `json:"index"`
	FileService string `json:"file_service,omitempty"`
	Status      string `json:"status"`
}

func queryResponseFrom(r *searchuc.Response) queryResponse {
	docs := make([]documentResponse, len(r.Documents))
	for i := range r.Documents {
		docs[i] = documentResponseFrom(&r.Documents[i])
	}

	var answer *string
	if r.Answer != "" {
		a := r.Answer
		answer = &a
	}

	return queryResponse{
		Success:      true,
		Query:        r.Query,
		Mode:         string(r.Mode),
		Total:        r.Total,
		Documents:    docs,
		Answer:       answer,
		SearchTimeMS: r.SearchTimeMS,
		Metadata: queryMetadata{
			StructuredHits:   r.Metadata.StructuredHits,
			IdentifiersFound: nonNil(r.Metadata.IdentifiersFound),
			KeywordsUsed:     nonNil(r.Metadata.KeywordsUsed),
			Index:            r.Metadata.Index,
		},
	}
}

func documentResponseFrom(d *searchuc.Document) documentResponse {
	return documentResponse{
		DocID:        d.DocID,
		DocNumber:    d.DocNumber,
		DocType:      d.DocType,
		Title:        d.Title,
		Summary:      d.Summary,
		IssueDate:    d.IssueDate,
		Department:   d.Department,
		Applicant:    d.Applicant,
		ProductCodes: nonNil(d.ProductCodes),
		Keywords:     nonNil(d.Keywords),
		FileURL:      d.FileURL,
		FileName:     d.FileName,
		Score:        d.Score,
		IndexOrigin:  d.IndexOrigin,
		Highlight:    d.Highlight,
		Snippets:     d.Snippets,
	}
}

// detailResponseFrom flattens the stored fields and adds the resolved file
// and download URLs.
func detailResponseFrom(d *searchuc.Detail) detailResponse {
	doc := make(map[string]string, len(d.Fields)+4)
	for k, v := range d.Fields {
		doc[k] = v
	}
	doc["doc_id"] = d.ID
	doc["index_origin"] = d.IndexOrigin
	if d.FileURL != "" {
		doc["file_url"] = d.FileURL
		doc["download_url"] = d.FileURL
	}

	return detailResponse{
		Success:           true,
		Document:          doc,
		RelatedDocNumbers: nonNil(d.Related),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
