package structured

import "strings"

const fence = "```"

// Extract isolates the structured payload in a model response. When the
// response contains an opening fence (optionally tagged, e.g. ```json)
// and a later closing fence, the text strictly between them is returned
// trimmed. Otherwise the whole response is returned trimmed. Only the
// first fenced block is considered.
//
// Extract is idempotent on unfenced input.
func Extract(s string) string {
	content, _ := ExtractWithTrailer(s)
	return content
}

// ExtractWithTrailer is Extract that also returns whatever followed the
// closing fence, trimmed. The trailer is for diagnostics only.
func ExtractWithTrailer(s string) (content, trailer string) {
	open := strings.Index(s, fence)
	if open < 0 {
		return strings.TrimSpace(s), ""
	}
	body := skipLanguageTag(s[open+len(fence):])
	end := strings.Index(body, fence)
	if end < 0 {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(body[:end]), strings.TrimSpace(body[end+len(fence):])
}

// skipLanguageTag drops an info string such as "json" directly after an
// opening fence. A tag is a run of letters, digits, '+', '-', '_' or '.'
// that starts with a letter and is followed by whitespace or the start of
// a JSON value.
func skipLanguageTag(s string) string {
	i := 0
	for i < len(s) && isTagByte(s[i], i == 0) {
		i++
	}
	if i == 0 || i == len(s) {
		return s
	}
	switch s[i] {
	case '\n', '\r', ' ', '\t', '{', '[':
		return s[i:]
	}
	return s
}

func isTagByte(b byte, first bool) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z':
		return true
	case first:
		return false
	case b >= '0' && b <= '9', b == '+', b == '-', b == '_', b == '.':
		return true
	}
	return false
}
