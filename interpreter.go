// interpreter.go: public surface of the exprlang runtime.
//
// OVERVIEW
// --------
// This file exposes everything a host needs to embed the evaluator:
//
//   - The runtime value model (`Value`, `ValueTag`, constructors like
//     `Bool/Num/Str/Arr` and the `Absent` singleton).
//   - Environments (`Env`): the flat variable store a session mutates.
//   - The `Session` type with the canonical entry point `Eval(source)`,
//     which runs lex → parse → evaluate → format and always returns an
//     `EvalResult` (never panics, never leaks a raw error).
//   - A structured `*EvalError` carrying the failure kind, surfaced as a Go
//     error by the lower-level `EvalProgram`.
//
// SCOPING SEMANTICS
// -----------------
// A Session owns one Env for its whole lifetime. Assignments mutate it
// immediately on success; a later failing statement does not roll back the
// bindings made before it. The implicit iteration variable `@it` never lands
// in the Env: it lives on a LIFO frame stack inside the evaluator, one frame
// per collection-call element, so nested predicates shadow only their own
// lexical scope.
//
// A Session is meant to be driven by exactly one caller at a time; it has no
// internal locking. Hosts that share a session across goroutines must
// serialize access themselves.
package exprlang

import (
	"fmt"
	"strconv"
)

////////////////////////////////////////////////////////////////////////////////
//                              VALUES
////////////////////////////////////////////////////////////////////////////////

// ValueTag enumerates all runtime kinds a Value may hold.
type ValueTag int

const (
	VTAbsent ValueTag = iota // no value produced (internal; formats to a placeholder)
	VTBool                   // bool
	VTNum                    // float64
	VTStr                    // string
	VTArray                  // []Value
)

// Value is the universal runtime carrier used by the evaluator. Tag is the
// discriminant; Data holds the Go value appropriate for the tag (nil for
// VTAbsent). Arrays own their elements: the evaluator never aliases an array
// it returns into the environment.
type Value struct {
	Tag  ValueTag
	Data interface{}
}

// String renders a debug representation; FormatValue renders the canonical
// display form.
func (v Value) String() string {
	switch v.Tag {
	case VTAbsent:
		return "<absent>"
	case VTBool:
		return fmt.Sprintf("%v", v.Data.(bool))
	case VTNum:
		return strconv.FormatFloat(v.Data.(float64), 'g', -1, 64)
	case VTStr:
		return fmt.Sprintf("%q", v.Data.(string))
	case VTArray:
		return fmt.Sprintf("<array len=%d>", len(v.Data.([]Value)))
	default:
		return "<unknown>"
	}
}

// KindName names the value kind for user-facing diagnostics.
func (v Value) KindName() string {
	switch v.Tag {
	case VTBool:
		return "boolean"
	case VTNum:
		return "number"
	case VTStr:
		return "string"
	case VTArray:
		return "array"
	default:
		return "nothing"
	}
}

// Absent is the singleton "no value" Value.
var Absent = Value{Tag: VTAbsent}

// Primitive constructors for convenience.
func Bool(b bool) Value    { return Value{Tag: VTBool, Data: b} }
func Num(f float64) Value  { return Value{Tag: VTNum, Data: f} }
func Str(s string) Value   { return Value{Tag: VTStr, Data: s} }
func Arr(xs []Value) Value { return Value{Tag: VTArray, Data: xs} }

// valuesEqual implements structural equality: numbers by value, strings by
// content, booleans by value, arrays element-wise. Different kinds are never
// equal (and never an error).
func valuesEqual(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case VTAbsent:
		return true
	case VTBool:
		return a.Data.(bool) == b.Data.(bool)
	case VTNum:
		return a.Data.(float64) == b.Data.(float64)
	case VTStr:
		return a.Data.(string) == b.Data.(string)
	case VTArray:
		xs, ys := a.Data.([]Value), b.Data.([]Value)
		if len(xs) != len(ys) {
			return false
		}
		for i := range xs {
			if !valuesEqual(xs[i], ys[i]) {
				return false
			}
		}
		return true
	}
	return false
}

////////////////////////////////////////////////////////////////////////////////
//                              ENVIRONMENT
////////////////////////////////////////////////////////////////////////////////

// Env is the flat variable store of a session: one binding per name, a later
// assignment overwrites. Lookups do not consult any parent scope; the only
// scoped name in the language, @it, is handled by the evaluator's predicate
// frame stack instead.
type Env struct {
	table map[string]Value
}

// NewEnv creates an empty environment.
func NewEnv() *Env { return &Env{table: make(map[string]Value)} }

// Define binds name to v, overwriting any previous binding.
func (e *Env) Define(name string, v Value) {
	e.table[name] = v
}

// Get retrieves the binding for name.
func (e *Env) Get(name string) (Value, bool) {
	v, ok := e.table[name]
	return v, ok
}

// Names returns all bound names (unordered).
func (e *Env) Names() []string {
	out := make([]string, 0, len(e.table))
	for k := range e.table {
		out = append(out, k)
	}
	return out
}

// Len reports the number of bindings.
func (e *Env) Len() int { return len(e.table) }

////////////////////////////////////////////////////////////////////////////////
//                              ERRORS
////////////////////////////////////////////////////////////////////////////////

// ErrorKind classifies evaluation failures.
type ErrorKind int

const (
	ErrUndefinedVariable ErrorKind = iota
	ErrTypeMismatch
	ErrDivisionByZero
	ErrIndexOutOfBounds
	ErrArity
	ErrUnknownFunction
	ErrInvalidPattern
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUndefinedVariable:
		return "undefined variable"
	case ErrTypeMismatch:
		return "type mismatch"
	case ErrDivisionByZero:
		return "division by zero"
	case ErrIndexOutOfBounds:
		return "index out of bounds"
	case ErrArity:
		return "wrong number of arguments"
	case ErrUnknownFunction:
		return "unknown function"
	case ErrInvalidPattern:
		return "invalid pattern"
	}
	return "evaluation error"
}

// EvalError is a typed evaluation failure with a source location. Line is
// 1-based, Col 0-based (rendered 1-based).
type EvalError struct {
	Kind ErrorKind
	Line int
	Col  int
	Msg  string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Line, e.Col+1, e.Msg)
}

func evalErrAt(kind ErrorKind, n Node, format string, args ...interface{}) *EvalError {
	line, col := n.Pos()
	return &EvalError{Kind: kind, Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

////////////////////////////////////////////////////////////////////////////////
//                              SESSION
////////////////////////////////////////////////////////////////////////////////

// EvalResult is the outcome of one Session.Eval call. Exactly one of Result
// and Err is meaningful, selected by OK.
type EvalResult struct {
	OK     bool
	Result string // canonical display form of the value, when OK
	Err    string // human-readable failure message, when !OK
}

// Session holds variable bindings across successive Eval calls. Create one
// per user/connection, pre-seed it with Define if desired, and Close it when
// the conversation ends.
type Session struct {
	env *Env
}

// NewSession creates a session with an empty environment.
func NewSession() *Session {
	return &Session{env: NewEnv()}
}

// Define pre-seeds a binding, e.g. to make a host-supplied name resolve to a
// fixed array before the first Eval call.
func (s *Session) Define(name string, v Value) {
	s.env.Define(name, v)
}

// Env exposes the session's environment (single-caller contract applies).
func (s *Session) Env() *Env { return s.env }

// Reset discards every binding and starts over with an empty environment.
func (s *Session) Reset() {
	s.env = NewEnv()
}

// Close discards the environment. The session must not be used afterwards.
func (s *Session) Close() {
	s.env = nil
}

// Eval runs one source line through lexing, parsing, evaluation and
// formatting. Every failure is converted into the failure shape of
// EvalResult; nothing escapes as a raw error or panic.
func (s *Session) Eval(src string) EvalResult {
	prog, err := Parse(src)
	if err != nil {
		return EvalResult{OK: false, Err: err.Error()}
	}
	v, err := EvalProgram(prog, s.env)
	if err != nil {
		return EvalResult{OK: false, Err: err.Error()}
	}
	return EvalResult{OK: true, Result: FormatValue(v)}
}
