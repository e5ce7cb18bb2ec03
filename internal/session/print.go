package session

import (
	"strings"

	"github.com/hydromatic/morel-go/internal/eval"
)

// FormatValue renders a value under the session's printing limits
// (spec.md Sec. 4.8): nesting beyond PrintDepth prints as `#`, lists
// longer than PrintLength (or whose rendering would exceed MaxLineWidth)
// are elided with `...`.
func (s *Session) FormatValue(v eval.Value) string {
	var b strings.Builder
	s.formatValue(&b, v, 0)
	return b.String()
}

func (s *Session) formatValue(b *strings.Builder, v eval.Value, depth int) {
	if depth > s.cfg.PrintDepth {
		b.WriteString("#")
		return
	}
	switch v := v.(type) {
	case *eval.ListValue:
		b.WriteString("[")
		for i, e := range v.Elements {
			if i > 0 {
				b.WriteString(",")
			}
			if i >= s.cfg.PrintLength || b.Len() > s.cfg.MaxLineWidth {
				b.WriteString("...")
				break
			}
			s.formatValue(b, e, depth+1)
		}
		b.WriteString("]")
	case *eval.TupleValue:
		b.WriteString("(")
		for i, e := range v.Elements {
			if i > 0 {
				b.WriteString(",")
			}
			s.formatValue(b, e, depth+1)
		}
		b.WriteString(")")
	case *eval.RecordValue:
		b.WriteString("{")
		for i, l := range v.Labels {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(l)
			b.WriteString("=")
			s.formatValue(b, v.Values[i], depth+1)
		}
		b.WriteString("}")
	case *eval.TaggedValue:
		b.WriteString(v.Ctor)
		if v.Payload != nil {
			b.WriteString(" ")
			s.formatValue(b, v.Payload, depth+1)
		}
	default:
		b.WriteString(v.String())
	}
}
