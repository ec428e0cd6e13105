package format

import (
	"strings"
	"time"
)

// tokens maps date template tokens to Go layout elements, longest first
var tokens = []struct {
	token  string
	layout string
}{
	{"YYYY", "2006"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"HH", "15"},
	{"hh", "03"},
	{"mm", "04"},
	{"ss", "05"},
	{"A", "PM"},
}

// segment is either a layout element or literal text of a template
type segment struct {
	layout  string
	literal string
}

func parseTemplate(template string) []segment {
	var segments []segment
	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			segments = append(segments, segment{literal: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(template); {
		matched := false
		for _, t := range tokens {
			if strings.HasPrefix(template[i:], t.token) {
				flush()
				segments = append(segments, segment{layout: t.layout})
				i += len(t.token)
				matched = true
				break
			}
		}
		if !matched {
			literal.WriteByte(template[i])
			i++
		}
	}
	flush()
	return segments
}

// Layout converts a date template such as "YYYY-MM-DD HH:mm" into a Go time
// layout. Literal text is copied as is, so a literal that Go reads as a
// layout element (a digit 1 to 6, Jan, Mon, MST, ...) changes meaning; use
// FormatDate to render such templates.
func Layout(template string) string {
	var b strings.Builder
	for _, seg := range parseTemplate(template) {
		b.WriteString(seg.layout)
		b.WriteString(seg.literal)
	}
	return b.String()
}

// FormatDate renders t in local time using a date template. Only template
// tokens are formatted; everything else is written verbatim.
func FormatDate(t time.Time, template string) string {
	t = t.Local()
	var b strings.Builder
	for _, seg := range parseTemplate(template) {
		if seg.layout != "" {
			b.WriteString(t.Format(seg.layout))
			continue
		}
		b.WriteString(seg.literal)
	}
	return b.String()
}
