package llm

import (
	"regexp"
	"strings"
)

// maxCommentRunes caps the rendered commentary so it fits on one card line.
const maxCommentRunes = 28

var whitespaceRe = regexp.MustCompile(`\s+`)

// terminal punctuation stripped before re-terminating a truncated comment.
const trailingPunct = "，。,.!?！？;；"

// Sanitize normalizes model output for rendering: whitespace is collapsed,
// surrounding quotes are stripped and over-long text is hard-truncated to
// 28 runes ending on a terminal punctuation mark.
func Sanitize(raw string) string {
	text := whitespaceRe.ReplaceAllString(raw, " ")
	text = strings.Trim(text, ` "'“”‘’`)
	if text == "" {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= maxCommentRunes {
		return text
	}
	text = string(runes[:maxCommentRunes])
	text = strings.TrimRight(text, trailingPunct)
	return text + "."
}
