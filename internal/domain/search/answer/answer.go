// Package answer builds the chat prompt used to synthesize an answer from
// ranked documents.
package answer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxSources is how many top-ranked documents are given to the model.
const MaxSources = 5

const summaryRunes = 200

// SystemPrompt instructs the model on tone and layout.
const SystemPrompt = `你是專業的技術文件助理。根據搜尋到的文件內容，提供準確、有條理的回答。

回答格式：
【主要發現】
根據文件 XXX，主要內容為...

【相關產品】
涉及產品編號：...

【建議】
建議參考文件 XXX 以了解更多細節。`

// Source is the part of a ranked document the model sees.
type Source struct {
	DocNumber    string
	Title        string
	DocType      string
	ProductCodes []string
	Department   string
	Summary      string
}

// Prompt renders the user message for query over at most MaxSources sources.
func Prompt(query string, sources []Source) string {
	if len(sources) > MaxSources {
		sources = sources[:MaxSources]
	}

	parts := make([]string, 0, len(sources))
	for i, s := range sources {
		parts = append(parts, s.context(i+1))
	}

	return fmt.Sprintf("查詢: %s\n\n相關文件:\n%s\n\n請根據以上文件回答查詢。", query, strings.Join(parts, "\n\n"))
}

func (s Source) context(n int) string {
	id := s.DocNumber
	if id == "" {
		id = s.Title
	}
	if id == "" {
		id = fmt.Sprintf("文件 %d", n)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "【%s】\n", id)
	fmt.Fprintf(&b, "類型: %s\n", orDefault(s.DocType, "技術文件"))
	fmt.Fprintf(&b, "產品: %s\n", orDefault(strings.Join(s.ProductCodes, ", "), "無"))
	fmt.Fprintf(&b, "部門: %s\n", orDefault(s.Department, "未指定"))
	fmt.Fprintf(&b, "摘要: %s", orDefault(truncate(s.Summary, summaryRunes), "無摘要"))
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
