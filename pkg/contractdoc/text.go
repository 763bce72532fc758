package contractdoc

import (
	"regexp"
	"strings"
)

var lineBreakRegex = regexp.MustCompile(`\r\n|\r|\n`)
var multiSpaceRegex = regexp.MustCompile(`\s{2,}`)

// NormalizeText collapses line breaks and repeated whitespace so block text
// reflows cleanly inside the rendered text box.
func NormalizeText(text string) string {
	text = lineBreakRegex.ReplaceAllString(text, " ")
	text = multiSpaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// SignatureCaption is the line printed under a signature image.
func SignatureCaption(name, role, signedAt string) string {
	caption := name
	if role != "" {
		caption += " (" + role + ")"
	}
	if signedAt != "" {
		caption += ", signed " + signedAt
	}
	return caption
}
