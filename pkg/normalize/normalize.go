// Package normalize turns the free text a vision model answered with into
// canonical annotations.
//
// Models are asked for a JSON array of {"point":[y,x],"label":"..."}
// objects but are free to wrap it in prose or markdown fences. Normalize
// first tries the text as-is, then the span between the first '[' and the
// last ']'. The span heuristic is best effort: it fails when the prose
// itself contains brackets outside the answer, and the caller then gets the
// raw text back instead of an error.
package normalize

import (
	"encoding/json"
	"strings"

	"github.com/rhuss/pinpoint/pkg/api"
)

// Normalize extracts annotations from text and converts them to (row,
// column) order. When no annotation array can be recovered the original
// text is returned unchanged as a raw result. It never fails.
func Normalize(text string, order api.AxisOrder) *api.Result {
	list, ok := Extract(text)
	if !ok {
		return api.RawText(text)
	}
	return api.Structured(Orient(list, order))
}

// Extract recovers an annotation array from text, trying a direct parse and
// then the outermost bracket span.
func Extract(text string) ([]api.Annotation, bool) {
	if list, ok := parse(strings.TrimSpace(text)); ok {
		return list, true
	}
	if span, ok := BracketSpan(text); ok {
		return parse(span)
	}
	return nil, false
}

// BracketSpan returns the substring from the first '[' through the last ']'.
func BracketSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(text, ']')
	if end < start {
		return "", false
	}
	return text[start : end+1], true
}

// Orient converts points reported in the given order to (row, column).
// The list is modified in place and returned.
func Orient(list []api.Annotation, order api.AxisOrder) []api.Annotation {
	if order != api.AxisColumnRow {
		return list
	}
	for i := range list {
		list[i].Point = list[i].Point.Swap()
	}
	return list
}

func parse(s string) ([]api.Annotation, bool) {
	if s == "" || s[0] != '[' {
		return nil, false
	}
	var list []api.Annotation
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil, false
	}
	if list == nil {
		list = []api.Annotation{}
	}
	return list, true
}
