// Package adspan normalizes ad segments flagged on a transcript and redacts
// them from the text.
package adspan

import "sort"

// Marker replaces each removed span in the transcript. Downstream consumers
// match on it, so changing the literal is a breaking change.
const Marker = "[AD REMOVED]"

// Span is a half-open [Start, End) byte range into a transcript snapshot.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Normalize cleans a raw span set against a transcript of textLen bytes:
// invalid and out-of-bounds spans are dropped, straddling spans clamped,
// and overlapping or touching spans merged. The result is sorted,
// non-overlapping and in bounds. Normalizing twice gives the same answer.
func Normalize(spans []Span, textLen int) []Span {
	if len(spans) == 0 || textLen <= 0 {
		return nil
	}

	clean := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start >= s.End {
			continue
		}
		if s.Start >= textLen || s.End <= 0 {
			continue
		}
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End > textLen {
			s.End = textLen
		}
		clean = append(clean, s)
	}
	if len(clean) == 0 {
		return nil
	}

	sort.Slice(clean, func(i, j int) bool {
		if clean[i].Start != clean[j].Start {
			return clean[i].Start < clean[j].Start
		}
		return clean[i].End < clean[j].End
	})

	merged := clean[:1]
	for _, s := range clean[1:] {
		last := &merged[len(merged)-1]
		// Touching spans collapse too: [10,20)+[20,30) is one removal
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// Redact replaces each span of text with marker, one marker per span.
// Callers pass a normalized set; stray indexes are clamped rather than
// panicking because span data ultimately comes from a model.
func Redact(text string, spans []Span, marker string) string {
	if text == "" {
		return ""
	}
	if len(spans) == 0 {
		return text
	}

	var out []byte
	cursor := 0
	for _, s := range spans {
		start, end := s.Start, s.End
		if start < cursor {
			start = cursor
		}
		if start > len(text) {
			start = len(text)
		}
		if end < start {
			end = start
		}
		if end > len(text) {
			end = len(text)
		}
		out = append(out, text[cursor:start]...)
		out = append(out, marker...)
		cursor = end
	}
	out = append(out, text[cursor:]...)
	return string(out)
}
