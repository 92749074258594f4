package db

import "strings"

// TagMatch renders a TAG equality clause such as @field:{value}.
func TagMatch(field, value string) string {
	return "@" + field + ":{" + tagEscaper.Replace(value) + "}"
}

// IsMissing renders a clause matching documents that lack field.
// The field must be declared with INDEXMISSING.
func IsMissing(field string) string {
	return "ismissing(@" + field + ")"
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)
