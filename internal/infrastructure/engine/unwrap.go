package engine

import "strings"

// unwrapFences strips an optional Markdown code fence envelope from a reply:
// an opening ``` line (with or without a language tag) and a closing ```
// line. Anything else is returned trimmed; actual malformedness surfaces as
// a decode error, never a crash.
func unwrapFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[idx+1:]
	} else {
		// A lone fence line, e.g. "```json{...}```".
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimPrefix(text, "json")
	}

	text = strings.TrimSpace(text)
	if strings.HasSuffix(text, "```") {
		text = strings.TrimSpace(text[:len(text)-3])
	}
	return text
}
