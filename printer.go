// printer.go: canonical display form of runtime values.
package exprlang

import (
	"strconv"
	"strings"
)

// FormatValue renders a value in the language's display conventions. It is a
// total function: every Value, Absent included, has a rendering.
//
//	Bool   → "True" / "False"
//	Str    → content wrapped in double quotes, no escaping
//	Num    → shortest decimal that round-trips; integral values print
//	         without a fractional part
//	Array  → "[" + ", "-joined elements + "]"
//	Absent → "<no value>"
func FormatValue(v Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v Value) {
	switch v.Tag {
	case VTAbsent:
		b.WriteString("<no value>")
	case VTBool:
		if v.Data.(bool) {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case VTNum:
		// 'f' with precision -1 is the shortest fixed-notation form that
		// parses back to the same float64; integral values carry no ".0".
		b.WriteString(strconv.FormatFloat(v.Data.(float64), 'f', -1, 64))
	case VTStr:
		b.WriteByte('"')
		b.WriteString(v.Data.(string))
		b.WriteByte('"')
	case VTArray:
		b.WriteByte('[')
		for i, e := range v.Data.([]Value) {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, e)
		}
		b.WriteByte(']')
	}
}
