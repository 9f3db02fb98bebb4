// parser_test.go
package exprlang

import (
	"strings"
	"testing"
)

func parse(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse error for %q: %v", src, err)
	}
	return prog
}

func parseExpr(t *testing.T, src string) Node {
	t.Helper()
	prog := parse(t, src)
	if len(prog.Stmts) != 1 {
		t.Fatalf("want 1 statement, got %d", len(prog.Stmts))
	}
	return prog.Stmts[0]
}

func wantParseError(t *testing.T, src string) *ParseError {
	t.Helper()
	_, err := Parse(src)
	if err == nil {
		t.Fatalf("expected parse error for %q", src)
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	return pe
}

func Test_Parser_PrecedenceShape(t *testing.T) {
	// 2 + 3 * 4 must parse as 2 + (3 * 4)
	add, ok := parseExpr(t, "2 + 3 * 4").(*BinaryExpr)
	if !ok || add.Op != "+" {
		t.Fatalf("want '+' at root, got %#v", add)
	}
	mul, ok := add.Right.(*BinaryExpr)
	if !ok || mul.Op != "*" {
		t.Fatalf("want '*' on the right, got %#v", add.Right)
	}
}

func Test_Parser_ParensOverridePrecedence(t *testing.T) {
	// (2 + 3) * 4 must parse as (2 + 3) * 4
	mul, ok := parseExpr(t, "(2 + 3) * 4").(*BinaryExpr)
	if !ok || mul.Op != "*" {
		t.Fatalf("want '*' at root, got %#v", mul)
	}
	if add, ok := mul.Left.(*BinaryExpr); !ok || add.Op != "+" {
		t.Fatalf("want '+' on the left, got %#v", mul.Left)
	}
}

func Test_Parser_LeftAssociativity(t *testing.T) {
	// 10 - 3 - 2 must parse as (10 - 3) - 2
	outer, ok := parseExpr(t, "10 - 3 - 2").(*BinaryExpr)
	if !ok || outer.Op != "-" {
		t.Fatalf("want '-' at root, got %#v", outer)
	}
	if inner, ok := outer.Left.(*BinaryExpr); !ok || inner.Op != "-" {
		t.Fatalf("want '-' on the left, got %#v", outer.Left)
	}
	if lit, ok := outer.Right.(*NumberLit); !ok || lit.Value != 2 {
		t.Fatalf("want literal 2 on the right, got %#v", outer.Right)
	}
}

func Test_Parser_UnaryMinusInAddition(t *testing.T) {
	// 3 + -5 is addition of a unary-negated operand, not a lex-level hack
	add, ok := parseExpr(t, "3 + -5").(*BinaryExpr)
	if !ok || add.Op != "+" {
		t.Fatalf("want '+' at root, got %#v", add)
	}
	neg, ok := add.Right.(*UnaryExpr)
	if !ok || neg.Op != "-" {
		t.Fatalf("want unary '-' on the right, got %#v", add.Right)
	}
}

func Test_Parser_AssignmentOnlyAtStatementHead(t *testing.T) {
	if _, ok := parseExpr(t, "x = 5").(*AssignStmt); !ok {
		t.Fatalf("x = 5 should be an assignment")
	}
	// '==' never degrades to assignment
	if _, ok := parseExpr(t, "x == 5").(*BinaryExpr); !ok {
		t.Fatalf("x == 5 should be a comparison")
	}
}

func Test_Parser_AssignmentTargetMustBeBareIdentifier(t *testing.T) {
	wantParseError(t, "a[0] = 1")
	wantParseError(t, "(a) = 1")
	wantParseError(t, "1 = 2")
}

func Test_Parser_StatementSequence(t *testing.T) {
	prog := parse(t, "x = 5; y = 10; x + y")
	if len(prog.Stmts) != 3 {
		t.Fatalf("want 3 statements, got %d", len(prog.Stmts))
	}
	if _, ok := prog.Stmts[0].(*AssignStmt); !ok {
		t.Fatalf("first statement should be an assignment, got %#v", prog.Stmts[0])
	}
	if _, ok := prog.Stmts[2].(*BinaryExpr); !ok {
		t.Fatalf("last statement should be an expression, got %#v", prog.Stmts[2])
	}
}

func Test_Parser_ArrayLiteralAndIndex(t *testing.T) {
	arr, ok := parseExpr(t, "[1, 2, 3]").(*ArrayLit)
	if !ok || len(arr.Elems) != 3 {
		t.Fatalf("want 3-element array literal, got %#v", arr)
	}
	if arr, ok := parseExpr(t, "[]").(*ArrayLit); !ok || len(arr.Elems) != 0 {
		t.Fatalf("want empty array literal, got %#v", arr)
	}

	idx, ok := parseExpr(t, "a[0][1]").(*IndexExpr)
	if !ok {
		t.Fatalf("want index expression, got %#v", idx)
	}
	if _, ok := idx.Base.(*IndexExpr); !ok {
		t.Fatalf("chained indexing should nest on the base, got %#v", idx.Base)
	}
}

func Test_Parser_FunctionCall(t *testing.T) {
	call, ok := parseExpr(t, `substring("hello", 1, 3)`).(*CallExpr)
	if !ok || call.Name != "substring" || len(call.Args) != 3 {
		t.Fatalf("want substring call with 3 args, got %#v", call)
	}
	if call, ok := parseExpr(t, "len(x)").(*CallExpr); !ok || len(call.Args) != 1 {
		t.Fatalf("want len call with 1 arg, got %#v", call)
	}
}

func Test_Parser_CollectionCall(t *testing.T) {
	c, ok := parseExpr(t, "filter([1, 2, 3], {@it > 1})").(*CollectExpr)
	if !ok || c.Name != "filter" {
		t.Fatalf("want filter collection call, got %#v", c)
	}
	if _, ok := c.Coll.(*ArrayLit); !ok {
		t.Fatalf("want array literal collection, got %#v", c.Coll)
	}
	if pred, ok := c.Pred.(*BinaryExpr); !ok || pred.Op != ">" {
		t.Fatalf("want '>' predicate, got %#v", c.Pred)
	}
}

func Test_Parser_PredicateNeedNotStartWithIt(t *testing.T) {
	// The predicate body is parsed uniformly; {1 == @it} is as good as {@it == 1}.
	c, ok := parseExpr(t, "any(xs, {1 == @it})").(*CollectExpr)
	if !ok || c.Name != "any" {
		t.Fatalf("want any collection call, got %#v", c)
	}
	pred, ok := c.Pred.(*BinaryExpr)
	if !ok || pred.Op != "==" {
		t.Fatalf("want '==' predicate, got %#v", c.Pred)
	}
	if _, ok := pred.Right.(*ItRef); !ok {
		t.Fatalf("want @it on the right of the predicate, got %#v", pred.Right)
	}
}

func Test_Parser_NestedCollectionCalls(t *testing.T) {
	c, ok := parseExpr(t, "filter(xs, {any(@it, {@it > 2})})").(*CollectExpr)
	if !ok || c.Name != "filter" {
		t.Fatalf("want filter, got %#v", c)
	}
	inner, ok := c.Pred.(*CollectExpr)
	if !ok || inner.Name != "any" {
		t.Fatalf("want nested any predicate, got %#v", c.Pred)
	}
}

func Test_Parser_Errors(t *testing.T) {
	cases := []string{
		"(1 + 2",              // unmatched parenthesis
		"[1, 2",               // unmatched bracket
		"a[1",                 // unmatched index bracket
		"1 +",                 // missing operand
		"filter([1], @it > 0)", // missing predicate braces
		"filter([1], {@it > 0)", // unmatched predicate brace
		"filter([1])",         // missing predicate entirely
		"1 2",                 // two expressions, no separator
		";",                   // empty statement
		"",                    // empty input
	}
	for _, src := range cases {
		pe := wantParseError(t, src)
		if pe.Expected == "" || pe.Found == "" {
			t.Fatalf("parse error for %q lacks context: %#v", src, pe)
		}
	}
}

func Test_Parser_ErrorPosition(t *testing.T) {
	pe := wantParseError(t, "(2 + 3) * (4")
	if pe.Line != 1 {
		t.Fatalf("want line 1, got %d", pe.Line)
	}
	if pe.Found != "end of input" {
		t.Fatalf("want end-of-input context, got %q", pe.Found)
	}
}

func Test_Parser_RejectsExcessiveNesting(t *testing.T) {
	deep := strings.Repeat("(", maxNestingDepth+1) + "1" + strings.Repeat(")", maxNestingDepth+1)
	wantParseError(t, deep)

	// Unary chains are bounded too.
	wantParseError(t, strings.Repeat("-", maxNestingDepth+1)+"1")
}

func Test_Parser_ShallowNestingIsFine(t *testing.T) {
	ok := strings.Repeat("(", 20) + "1" + strings.Repeat(")", 20)
	parse(t, ok)
}
