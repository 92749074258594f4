package structured

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
)

var errDisabled = errors.New("structured store disabled")

// ScoreOptions tunes keyword scoring.
type ScoreOptions struct {
	// ContentWeight scales matches in full-text content relative to summaries.
	ContentWeight float64
	// ContentScanLimit caps content rows scanned per keyword.
	ContentScanLimit int
}

func (o ScoreOptions) withDefaults() ScoreOptions {
	if o.ContentWeight <= 0 {
		o.ContentWeight = 0.5
	}
	if o.ContentScanLimit <= 0 {
		o.ContentScanLimit = 100
	}
	return o
}

// Repo scores documents against the relational store. A Repo without a
// database behaves as an empty store.
type Repo struct {
	db   *gorm.DB
	opts ScoreOptions
}

// New creates a structured-store repository. gdb may be nil.
func New(gdb *gorm.DB, opts ScoreOptions) *Repo {
	return &Repo{db: gdb, opts: opts.withDefaults()}
}

// Enabled reports whether a database is attached.
func (r *Repo) Enabled() bool { return r.db != nil }

// Ping verifies the connection.
func (r *Repo) Ping(ctx context.Context) error {
	if r.db == nil {
		return errDisabled
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// MatchIdentifiers returns the documents whose product codes match any of
// ids, in lexical order.
func (r *Repo) MatchIdentifiers(ctx context.Context, ids []string) ([]string, error) {
	if r.db == nil || len(ids) == 0 {
		return nil, nil
	}

	found := make(map[string]struct{})
	tx := r.db.WithContext(ctx)

	for _, id := range ids {
		var docIDs []string
		err := tx.Model(&StructuredDocument{}).
			Where("product_codes LIKE ? ESCAPE '!'", containsPattern(`"`+id+`"`)).
			Pluck("original_doc_id", &docIDs).Error
		if err != nil {
			return nil, fmt.Errorf("match structured_documents: %w", err)
		}
		addAll(found, docIDs)
	}

	for _, model := range identifierTables {
		var docIDs []string
		if err := tx.Model(model).Where("product_code IN ?", ids).Pluck("doc_id", &docIDs).Error; err != nil {
			return nil, fmt.Errorf("match product_code: %w", err)
		}
		addAll(found, docIDs)
	}

	out := make([]string, 0, len(found))
	for id := range found {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

type textRow struct {
	DocID string
	Text  string
}

// ScoreKeywords sums, per document, occurrences × keyword length / text
// length over summaries and full content. Content matches are scaled by
// ContentWeight and capped at ContentScanLimit rows per keyword.
func (r *Repo) ScoreKeywords(ctx context.Context, keywords []string) (map[string]float64, error) {
	scores := make(map[string]float64)
	if r.db == nil || len(keywords) == 0 {
		return scores, nil
	}
	tx := r.db.WithContext(ctx)

	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		pattern := containsPattern(kw)

		var summaries []textRow
		err := tx.Model(&StructuredDocument{}).
			Select("original_doc_id AS doc_id, summary AS text").
			Where("summary LIKE ? ESCAPE '!'", pattern).
			Scan(&summaries).Error
		if err != nil {
			return nil, fmt.Errorf("score summaries: %w", err)
		}
		for _, row := range summaries {
			scores[row.DocID] += Relevance(row.Text, kw)
		}

		var contents []textRow
		err = tx.Model(&TechnicalDocument{}).
			Select("doc_id, content AS text").
			Where("content LIKE ? ESCAPE '!'", pattern).
			Limit(r.opts.ContentScanLimit).
			Scan(&contents).Error
		if err != nil {
			return nil, fmt.Errorf("score content: %w", err)
		}
		for _, row := range contents {
			scores[row.DocID] += Relevance(row.Text, kw) * r.opts.ContentWeight
		}
	}

	return scores, nil
}

// FullContent returns the extracted text of each document that has one.
func (r *Repo) FullContent(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if r.db == nil || len(ids) == 0 {
		return out, nil
	}

	var rows []textRow
	err := r.db.WithContext(ctx).Model(&TechnicalDocument{}).
		Select("doc_id, content AS text").
		Where("doc_id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("full content: %w", err)
	}
	for _, row := range rows {
		if _, ok := out[row.DocID]; !ok && row.Text != "" {
			out[row.DocID] = row.Text
		}
	}
	return out, nil
}

// Relevance is a cheap term-frequency proxy: case-insensitive occurrences of
// kw times its length, divided by the length of text, all in runes.
func Relevance(text, kw string) float64 {
	n := utf8.RuneCountInString(text)
	k := utf8.RuneCountInString(kw)
	if n == 0 || k == 0 {
		return 0
	}
	occ := strings.Count(strings.ToLower(text), strings.ToLower(kw))
	return float64(occ*k) / float64(n)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func addAll(set map[string]struct{}, ids []string) {
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
}
