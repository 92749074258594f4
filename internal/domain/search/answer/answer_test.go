package answer

import (
	"fmt"
	"strings"
	"testing"
)

func TestPrompt_Defaults(t *testing.T) {
	p := Prompt("焊接不良", []Source{{}})

	for _, want := range []string{
		"查詢: 焊接不良",
		"【文件 1】",
		"類型: 技術文件",
		"產品: 無",
		"部門: 未指定",
		"摘要: 無摘要",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestPrompt_IdentifierFallsBackToTitle(t *testing.T) {
	p := Prompt("q", []Source{
		{DocNumber: "EN-1", Title: "ignored"},
		{Title: "規格書"},
	})

	if !strings.Contains(p, "【EN-1】") || !strings.Contains(p, "【規格書】") {
		t.Errorf("unexpected identifiers:\n%s", p)
	}
	if strings.Contains(p, "ignored") {
		t.Error("title must not be used when a doc number exists")
	}
}

func TestPrompt_CapsSourcesAndSummary(t *testing.T) {
	sources := make([]Source, 8)
	for i := range sources {
		sources[i] = Source{DocNumber: fmt.Sprintf("D-%d", i), Summary: strings.Repeat("字", 300)}
	}

	p := Prompt("q", sources)

	if strings.Contains(p, "D-5") {
		t.Errorf("expected at most %d sources", MaxSources)
	}
	if strings.Contains(p, strings.Repeat("字", summaryRunes+1)) {
		t.Error("summary not truncated")
	}
	if !strings.Contains(p, "產品: 無") {
		t.Error("expected empty product list placeholder")
	}
}

func TestPrompt_JoinsProducts(t *testing.T) {
	p := Prompt("q", []Source{{ProductCodes: []string{"ABC-123", "ABC-124"}}})
	if !strings.Contains(p, "產品: ABC-123, ABC-124") {
		t.Errorf("unexpected products line:\n%s", p)
	}
}
