// Package format is the string-formatting helper: it expands a template
// containing "{}" placeholders against a list of positional arguments.
//
// Grounded on original_source/include/log/format.hpp's vformat, trimmed
// to the subset the logging collaborator needs: auto-numbered "{}" only,
// "{{" / "}}" escapes, no per-argument format specifiers.
package format

import (
	"fmt"
	"strings"
)

// Expand replaces each "{}" placeholder in tmpl with the next argument's
// fmt.Sprint representation, in order. "{{" and "}}" are literal braces.
// Extra placeholders are rendered as "{!MISSING}"; extra arguments are
// ignored.
func Expand(tmpl string, args ...any) string {
	var b strings.Builder
	b.Grow(len(tmpl))

	arg := 0
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch {
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			if arg < len(args) {
				writeArg(&b, args[arg])
				arg++
			} else {
				b.WriteString("{!MISSING}")
			}
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func writeArg(b *strings.Builder, v any) {
	switch x := v.(type) {
	case string:
		b.WriteString(x)
	case error:
		b.WriteString(x.Error())
	default:
		fmt.Fprint(b, x)
	}
}
