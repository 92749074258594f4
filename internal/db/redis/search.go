package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docfusion/internal/db"
)

const vectorScoreField = "__vector_score"

// SearchKNN runs a KNN vector similarity search via FT.SEARCH.
// Scores are cosine similarities in [0, 1].
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.VectorField == "" {
		return nil, fmt.Errorf("vector field is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	args := []string{q.IndexName, buildKNNQuery(q)}

	if len(q.ReturnFields) > 0 {
		fields := withField(q.ReturnFields, vectorScoreField)
		args = append(args, "RETURN", strconv.Itoa(len(fields)))
		args = append(args, fields...)
	}

	args = append(args,
		"SORTBY", vectorScoreField,
		"LIMIT", "0", strconv.Itoa(q.K),
	)
	if q.EFRuntime > 0 {
		args = append(args, "PARAMS", "4", "BLOB", vectorToBytes(q.Vector), "EF", strconv.Itoa(q.EFRuntime))
	} else {
		args = append(args, "PARAMS", "2", "BLOB", vectorToBytes(q.Vector))
	}
	args = append(args, "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, wrap(db.OpSearch, err)
	}

	return parseKNNResult(raw)
}

func buildKNNQuery(q *db.KNNQuery) string {
	knn := fmt.Sprintf("[KNN %d @%s $BLOB", q.K, q.VectorField)
	if q.EFRuntime > 0 {
		knn += " EF_RUNTIME $EF"
	}
	knn += "]"

	if q.Filter == "" || q.Filter == "*" {
		return "*=>" + knn
	}
	return fmt.Sprintf("(%s)=>%s", q.Filter, knn)
}

// SearchText runs a scored full-text search via FT.SEARCH, optionally with
// highlighted fragments.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	queryStr := BuildTextQuery(q.Fields, q.Terms, q.Fuzzy)
	if queryStr == "" {
		return nil, fmt.Errorf("query is required")
	}

	args := []string{q.IndexName, queryStr, "WITHSCORES"}

	ret := q.ReturnFields
	if h := q.Highlight; h != nil && len(ret) > 0 {
		for _, f := range h.Fields {
			ret = withField(ret, f)
		}
	}
	if len(ret) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(ret)))
		args = append(args, ret...)
	}

	if h := q.Highlight; h != nil && len(h.Fields) > 0 {
		args = append(args, highlightArgs(h)...)
	}

	args = append(args,
		"LIMIT", "0", strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, wrap(db.OpSearch, err)
	}

	return parseScoredResult(raw)
}

func highlightArgs(h *db.Highlight) []string {
	n := strconv.Itoa(len(h.Fields))
	var args []string

	if h.Frags > 0 || h.FragLen > 0 {
		args = append(args, "SUMMARIZE", "FIELDS", n)
		args = append(args, h.Fields...)
		if h.Frags > 0 {
			args = append(args, "FRAGS", strconv.Itoa(h.Frags))
		}
		if h.FragLen > 0 {
			args = append(args, "LEN", strconv.Itoa(h.FragLen))
		}
	}

	args = append(args, "HIGHLIGHT", "FIELDS", n)
	args = append(args, h.Fields...)
	if h.OpenTag != "" && h.CloseTag != "" {
		args = append(args, "TAGS", h.OpenTag, h.CloseTag)
	}
	return args
}

// SearchList performs an unscored, optionally sorted listing via FT.SEARCH.
func (s *Store) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	query := q.Query
	if query == "" {
		query = "*"
	}

	args := []string{q.IndexName, query}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}
	if q.SortBy != "" {
		order := "ASC"
		if q.Descending {
			order = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy, order)
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, wrap(db.OpSearch, err)
	}

	return parseListResult(raw)
}

// SearchCount returns document count via FT.SEARCH with LIMIT 0 0.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, query, "LIMIT", "0", "0", "DIALECT", "2").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, wrap(db.OpSearch, err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// --- Result parsing ---

func parseKNNResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	res, err := parseListResult(raw)
	if err != nil {
		return nil, err
	}

	for i := range res.Entries {
		e := &res.Entries[i]
		if scoreStr, ok := e.Fields[vectorScoreField]; ok {
			if d, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				e.Score = max(0, 1.0-d) // cosine distance → similarity, clamped to [0,1]
			}
			delete(e.Fields, vectorScoreField)
		}
	}

	return res, nil
}

func parseScoredResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/3)
	// 3-stride: [total, key1, score1, fields1, key2, score2, fields2, ...]
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		score, err := raw[i+1].AsFloat64()
		if err != nil {
			continue
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseListResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/2)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Query helpers ---

// BuildTextQuery renders an OR of terms scoped to fields. Words are split on
// the separators the indexer tokenizes on, so a punctuated identifier such as
// ABC-123 becomes the exact phrase "ABC 123". With fuzzy set, single plain
// ASCII words get Levenshtein tolerance by length: up to 2 characters exact,
// up to 5 one edit, longer two edits. Other terms match exactly.
func BuildTextQuery(fields, terms []string, fuzzy bool) string {
	clauses := make([]string, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		for _, word := range strings.Fields(t) {
			c := termClause(word, fuzzy)
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			clauses = append(clauses, c)
		}
	}
	if len(clauses) == 0 {
		return ""
	}

	body := strings.Join(clauses, " | ")
	if len(fields) == 0 {
		return "(" + body + ")"
	}
	return fmt.Sprintf("@%s:(%s)", strings.Join(fields, "|"), body)
}

func termClause(word string, fuzzy bool) string {
	pieces := strings.FieldsFunc(word, isTokenSeparator)
	switch len(pieces) {
	case 0:
		return ""
	case 1:
		word = pieces[0]
	default:
		return `"` + strings.Join(pieces, " ") + `"`
	}

	if !fuzzy || !isPlainWord(word) {
		return word
	}
	switch n := utf8.RuneCountInString(word); {
	case n <= 2:
		return word
	case n <= 5:
		return "%" + word + "%"
	default:
		return "%%" + word + "%%"
	}
}

// isTokenSeparator matches the punctuation RediSearch splits indexed text on.
// Pieces left between separators need no escaping.
func isTokenSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}

func isPlainWord(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isAlnum {
			return false
		}
	}
	return s != ""
}

func withField(fields []string, name string) []string {
	for _, f := range fields {
		if f == name {
			return fields
		}
	}
	out := make([]string, 0, len(fields)+1)
	out = append(out, fields...)
	return append(out, name)
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
