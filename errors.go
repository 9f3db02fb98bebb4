// errors.go: caret-snippet rendering for user-facing diagnostics.
//
// WrapErrorWithSource recognizes *LexError, *ParseError and *EvalError and
// returns a new error whose message includes the offending source line with a
// caret under the failing column:
//
//	parse error at 1:14: expected ')', found end of input
//
//	   1 | (2 + 3) * (4
//	     |              ^
//
// Other errors pass through unchanged. Output is plain text; the REPL applies
// styling on top.
package exprlang

import (
	"fmt"
	"strings"
)

// WrapErrorWithSource returns err augmented with a caret-annotated snippet of
// src when err carries a source position, and err unchanged otherwise.
func WrapErrorWithSource(err error, src string) error {
	switch e := err.(type) {
	case *LexError:
		return fmt.Errorf("%s", caretSnippet(src, e.Error(), e.Line, e.Col+1))
	case *ParseError:
		return fmt.Errorf("%s", caretSnippet(src, e.Error(), e.Line, e.Col+1))
	case *EvalError:
		return fmt.Errorf("%s", caretSnippet(src, e.Error(), e.Line, e.Col+1))
	default:
		return err
	}
}

// caretSnippet builds the snippet. Coordinates are treated as 1-based and
// clamped to the source bounds so malformed positions cannot break rendering.
func caretSnippet(src, header string, line, col int) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", header)
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad > len(lineTxt) {
		caretPad = len(lineTxt)
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
