package snippet

import (
	"regexp"
	"strings"
)

var (
	pageMarkers = []*regexp.Regexp{
		regexp.MustCompile(`\[第\s*\d+\s*頁\]`),
		regexp.MustCompile(`【第\s*\d+\s*頁】`),
		regexp.MustCompile(`(?i)page\s+\d+`),
	}
	inlineSpace = regexp.MustCompile(`[ \t]+`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
	anySpace    = regexp.MustCompile(`[\s\x{3000}]+`)
)

// Clean removes page markers and normalizes whitespace. With keepLines the
// line structure survives (at most one blank line in a row); otherwise all
// whitespace collapses into single spaces.
func Clean(text string, keepLines bool) string {
	if text == "" {
		return ""
	}

	for _, re := range pageMarkers {
		text = re.ReplaceAllString(text, "")
	}

	if keepLines {
		text = inlineSpace.ReplaceAllString(text, " ")
		text = blankLines.ReplaceAllString(text, "\n\n")
		lines := strings.Split(text, "\n")
		for i, l := range lines {
			lines[i] = strings.TrimSpace(l)
		}
		text = strings.Join(lines, "\n")
	} else {
		text = anySpace.ReplaceAllString(text, " ")
	}

	return strings.TrimSpace(text)
}
