// evaluator.go: tree-walking evaluation of exprlang ASTs.
//
// Evaluation is a pure function of (AST, Env) except for two pieces of state:
// the Env itself, mutated by assignment statements, and the predicate frame
// stack that binds @it during collection calls. The frame stack is strictly
// LIFO: one frame is pushed per element, popped unconditionally (success or
// failure), so a filter predicate that itself calls filter cannot clobber the
// outer binding.
package exprlang

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// EvalProgram walks a parsed program against env and returns the value of its
// last statement. Statements run left to right; the first failure aborts the
// call, but assignments that already succeeded stay in env.
func EvalProgram(prog *Program, env *Env) (Value, error) {
	ev := &evaluator{env: env}
	result := Absent
	for _, stmt := range prog.Stmts {
		v, err := ev.eval(stmt)
		if err != nil {
			return Absent, err
		}
		result = v
	}
	return result, nil
}

type evaluator struct {
	env     *Env
	itStack []Value // predicate frames; top binds @it
}

// withIt pushes a predicate frame for one element, runs f, and pops the frame
// unconditionally.
func (ev *evaluator) withIt(v Value, f func() (Value, error)) (Value, error) {
	ev.itStack = append(ev.itStack, v)
	defer func() { ev.itStack = ev.itStack[:len(ev.itStack)-1] }()
	return f()
}

func (ev *evaluator) eval(n Node) (Value, error) {
	switch n := n.(type) {
	case *NumberLit:
		return Num(n.Value), nil
	case *StringLit:
		return Str(n.Value), nil
	case *BoolLit:
		return Bool(n.Value), nil
	case *ItRef:
		if len(ev.itStack) == 0 {
			return Absent, evalErrAt(ErrUndefinedVariable, n,
				"@it is only bound inside a filter/all/any predicate")
		}
		return ev.itStack[len(ev.itStack)-1], nil
	case *Ident:
		v, ok := ev.env.Get(n.Name)
		if !ok {
			return Absent, evalErrAt(ErrUndefinedVariable, n, "%s is not defined", n.Name)
		}
		return v, nil
	case *ArrayLit:
		elems := make([]Value, 0, len(n.Elems))
		for _, e := range n.Elems {
			v, err := ev.eval(e)
			if err != nil {
				return Absent, err
			}
			elems = append(elems, v)
		}
		return Arr(elems), nil
	case *IndexExpr:
		return ev.evalIndex(n)
	case *UnaryExpr:
		return ev.evalUnary(n)
	case *BinaryExpr:
		return ev.evalBinary(n)
	case *AssignStmt:
		v, err := ev.eval(n.Value)
		if err != nil {
			return Absent, err
		}
		ev.env.Define(n.Name, v)
		return v, nil
	case *CallExpr:
		return ev.evalCall(n)
	case *CollectExpr:
		return ev.evalCollect(n)
	case *Program:
		return EvalProgram(n, ev.env)
	}
	return Absent, evalErrAt(ErrTypeMismatch, n, "cannot evaluate this expression")
}

func (ev *evaluator) evalIndex(n *IndexExpr) (Value, error) {
	base, err := ev.eval(n.Base)
	if err != nil {
		return Absent, err
	}
	if base.Tag != VTArray {
		return Absent, evalErrAt(ErrTypeMismatch, n, "cannot index into a %s", base.KindName())
	}
	idxVal, err := ev.eval(n.Index)
	if err != nil {
		return Absent, err
	}
	if idxVal.Tag != VTNum {
		return Absent, evalErrAt(ErrTypeMismatch, n, "array index must be a number, got %s", idxVal.KindName())
	}
	f := idxVal.Data.(float64)
	if f != math.Trunc(f) {
		return Absent, evalErrAt(ErrTypeMismatch, n, "array index must be an integer, got %s", FormatValue(idxVal))
	}
	idx := int(f)
	elems := base.Data.([]Value)
	if idx < 0 || idx >= len(elems) {
		return Absent, evalErrAt(ErrIndexOutOfBounds, n,
			"index %d is out of bounds for an array of length %d", idx, len(elems))
	}
	return elems[idx], nil
}

func (ev *evaluator) evalUnary(n *UnaryExpr) (Value, error) {
	v, err := ev.eval(n.Operand)
	if err != nil {
		return Absent, err
	}
	switch n.Op {
	case "-":
		if v.Tag != VTNum {
			return Absent, evalErrAt(ErrTypeMismatch, n, "operator '-' needs a number, got %s", v.KindName())
		}
		return Num(-v.Data.(float64)), nil
	case "!", "not":
		if v.Tag != VTBool {
			return Absent, evalErrAt(ErrTypeMismatch, n, "operator %q needs a boolean, got %s", n.Op, v.KindName())
		}
		return Bool(!v.Data.(bool)), nil
	}
	return Absent, evalErrAt(ErrTypeMismatch, n, "unknown unary operator %q", n.Op)
}

func (ev *evaluator) evalBinary(n *BinaryExpr) (Value, error) {
	switch n.Op {
	case "&&", "||":
		return ev.evalLogical(n)
	case "==", "!=":
		left, err := ev.eval(n.Left)
		if err != nil {
			return Absent, err
		}
		right, err := ev.eval(n.Right)
		if err != nil {
			return Absent, err
		}
		eq := valuesEqual(left, right)
		if n.Op == "!=" {
			eq = !eq
		}
		return Bool(eq), nil
	}

	// Remaining operators are numeric on both sides.
	left, err := ev.eval(n.Left)
	if err != nil {
		return Absent, err
	}
	right, err := ev.eval(n.Right)
	if err != nil {
		return Absent, err
	}
	if left.Tag != VTNum || right.Tag != VTNum {
		return Absent, evalErrAt(ErrTypeMismatch, n,
			"operator %q needs numbers, got %s and %s", n.Op, left.KindName(), right.KindName())
	}
	a, b := left.Data.(float64), right.Data.(float64)
	switch n.Op {
	case "+":
		return Num(a + b), nil
	case "-":
		return Num(a - b), nil
	case "*":
		return Num(a * b), nil
	case "/":
		if b == 0 {
			return Absent, evalErrAt(ErrDivisionByZero, n, "cannot divide %s by zero", FormatValue(left))
		}
		return Num(a / b), nil
	case "<":
		return Bool(a < b), nil
	case "<=":
		return Bool(a <= b), nil
	case ">":
		return Bool(a > b), nil
	case ">=":
		return Bool(a >= b), nil
	}
	return Absent, evalErrAt(ErrTypeMismatch, n, "unknown operator %q", n.Op)
}

// evalLogical implements '&&' and '||' with short-circuiting: the right
// operand is not evaluated once the left already determines the result.
func (ev *evaluator) evalLogical(n *BinaryExpr) (Value, error) {
	left, err := ev.eval(n.Left)
	if err != nil {
		return Absent, err
	}
	if left.Tag != VTBool {
		return Absent, evalErrAt(ErrTypeMismatch, n,
			"operator %q needs booleans, got %s", n.Op, left.KindName())
	}
	l := left.Data.(bool)
	if n.Op == "&&" && !l {
		return Bool(false), nil
	}
	if n.Op == "||" && l {
		return Bool(true), nil
	}
	right, err := ev.eval(n.Right)
	if err != nil {
		return Absent, err
	}
	if right.Tag != VTBool {
		return Absent, evalErrAt(ErrTypeMismatch, n,
			"operator %q needs booleans, got %s", n.Op, right.KindName())
	}
	return right, nil
}

////////////////////////////////////////////////////////////////////////////////
//                              BUILTIN FUNCTIONS
////////////////////////////////////////////////////////////////////////////////

// builtinArity declares the fixed argument count of every named builtin.
var builtinArity = map[string]int{
	"len":        1,
	"contains":   2,
	"startsWith": 2,
	"endsWith":   2,
	"substring":  3,
	"isEmpty":    1,
	"matches":    2,
}

// BuiltinNames lists the callable builtins (collection calls included), for
// host tooling such as REPL completion.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinArity)+len(collectionCalls))
	for n := range builtinArity {
		names = append(names, n)
	}
	for n := range collectionCalls {
		names = append(names, n)
	}
	return names
}

func (ev *evaluator) evalCall(n *CallExpr) (Value, error) {
	arity, ok := builtinArity[n.Name]
	if !ok {
		return Absent, evalErrAt(ErrUnknownFunction, n, "%s is not a known function", n.Name)
	}
	if len(n.Args) != arity {
		return Absent, evalErrAt(ErrArity, n,
			"%s takes %d argument(s), got %d", n.Name, arity, len(n.Args))
	}
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := ev.eval(a)
		if err != nil {
			return Absent, err
		}
		args[i] = v
	}

	switch n.Name {
	case "len":
		switch args[0].Tag {
		case VTStr:
			return Num(float64(utf8.RuneCountInString(args[0].Data.(string)))), nil
		case VTArray:
			return Num(float64(len(args[0].Data.([]Value)))), nil
		}
		return Absent, evalErrAt(ErrTypeMismatch, n, "len needs a string or array, got %s", args[0].KindName())

	case "contains":
		switch args[0].Tag {
		case VTStr:
			if args[1].Tag != VTStr {
				return Absent, evalErrAt(ErrTypeMismatch, n,
					"contains on a string needs a string needle, got %s", args[1].KindName())
			}
			return Bool(strings.Contains(args[0].Data.(string), args[1].Data.(string))), nil
		case VTArray:
			for _, e := range args[0].Data.([]Value) {
				if valuesEqual(e, args[1]) {
					return Bool(true), nil
				}
			}
			return Bool(false), nil
		}
		return Absent, evalErrAt(ErrTypeMismatch, n, "contains needs a string or array, got %s", args[0].KindName())

	case "startsWith", "endsWith":
		if args[0].Tag != VTStr || args[1].Tag != VTStr {
			return Absent, evalErrAt(ErrTypeMismatch, n,
				"%s needs two strings, got %s and %s", n.Name, args[0].KindName(), args[1].KindName())
		}
		s, sub := args[0].Data.(string), args[1].Data.(string)
		if n.Name == "startsWith" {
			return Bool(strings.HasPrefix(s, sub)), nil
		}
		return Bool(strings.HasSuffix(s, sub)), nil

	case "substring":
		return ev.builtinSubstring(n, args)

	case "isEmpty":
		switch args[0].Tag {
		case VTStr:
			return Bool(args[0].Data.(string) == ""), nil
		case VTArray:
			return Bool(len(args[0].Data.([]Value)) == 0), nil
		}
		return Absent, evalErrAt(ErrTypeMismatch, n, "isEmpty needs a string or array, got %s", args[0].KindName())

	case "matches":
		if args[0].Tag != VTStr || args[1].Tag != VTStr {
			return Absent, evalErrAt(ErrTypeMismatch, n,
				"matches needs two strings, got %s and %s", args[0].KindName(), args[1].KindName())
		}
		re, err := regexp.Compile(args[1].Data.(string))
		if err != nil {
			return Absent, evalErrAt(ErrInvalidPattern, n, "cannot compile pattern %q", args[1].Data.(string))
		}
		return Bool(re.MatchString(args[0].Data.(string))), nil
	}

	return Absent, evalErrAt(ErrUnknownFunction, n, "%s is not a known function", n.Name)
}

// builtinSubstring slices a string by rune positions over the half-open range
// [from, to).
func (ev *evaluator) builtinSubstring(n *CallExpr, args []Value) (Value, error) {
	if args[0].Tag != VTStr || args[1].Tag != VTNum || args[2].Tag != VTNum {
		return Absent, evalErrAt(ErrTypeMismatch, n,
			"substring needs a string and two numbers, got %s, %s and %s",
			args[0].KindName(), args[1].KindName(), args[2].KindName())
	}
	ff, ft := args[1].Data.(float64), args[2].Data.(float64)
	if ff != math.Trunc(ff) || ft != math.Trunc(ft) {
		return Absent, evalErrAt(ErrTypeMismatch, n, "substring indices must be integers")
	}
	runes := []rune(args[0].Data.(string))
	from, to := int(ff), int(ft)
	if from < 0 || to < from || to > len(runes) {
		return Absent, evalErrAt(ErrIndexOutOfBounds, n,
			"substring range [%d, %d) is out of bounds for a string of length %d", from, to, len(runes))
	}
	return Str(string(runes[from:to])), nil
}

////////////////////////////////////////////////////////////////////////////////
//                              COLLECTION CALLS
////////////////////////////////////////////////////////////////////////////////

func (ev *evaluator) evalCollect(n *CollectExpr) (Value, error) {
	coll, err := ev.eval(n.Coll)
	if err != nil {
		return Absent, err
	}
	if coll.Tag != VTArray {
		return Absent, evalErrAt(ErrTypeMismatch, n,
			"%s needs an array, got %s", n.Name, coll.KindName())
	}
	elems := coll.Data.([]Value)

	// predTrue evaluates the predicate for one element under its own frame.
	predTrue := func(elem Value) (bool, error) {
		v, err := ev.withIt(elem, func() (Value, error) { return ev.eval(n.Pred) })
		if err != nil {
			return false, err
		}
		if v.Tag != VTBool {
			return false, evalErrAt(ErrTypeMismatch, n.Pred,
				"%s predicate must produce a boolean, got %s", n.Name, v.KindName())
		}
		return v.Data.(bool), nil
	}

	switch n.Name {
	case "filter":
		kept := make([]Value, 0, len(elems))
		for _, elem := range elems {
			ok, err := predTrue(elem)
			if err != nil {
				return Absent, err
			}
			if ok {
				kept = append(kept, elem)
			}
		}
		return Arr(kept), nil

	case "all":
		for _, elem := range elems {
			ok, err := predTrue(elem)
			if err != nil {
				return Absent, err
			}
			if !ok {
				return Bool(false), nil
			}
		}
		return Bool(true), nil

	case "any":
		for _, elem := range elems {
			ok, err := predTrue(elem)
			if err != nil {
				return Absent, err
			}
			if ok {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	}

	return Absent, evalErrAt(ErrUnknownFunction, n, "%s is not a known function", n.Name)
}
