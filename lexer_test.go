// lexer_test.go
package exprlang

import (
	"reflect"
	"testing"
)

func toks(t *testing.T, src string) []Token {
	t.Helper()
	l := NewLexer(src)
	ts, err := l.Scan()
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	return ts
}

func typesWithoutEOF(tokens []Token) []TokenType {
	if len(tokens) == 0 {
		return nil
	}
	end := len(tokens)
	if tokens[end-1].Type == EOF {
		end--
	}
	out := make([]TokenType, 0, end)
	for i := 0; i < end; i++ {
		out = append(out, tokens[i].Type)
	}
	return out
}

func wantTypes(t *testing.T, src string, want []TokenType) []Token {
	t.Helper()
	got := toks(t, src)
	gotTypes := typesWithoutEOF(got)
	if !reflect.DeepEqual(gotTypes, want) {
		t.Fatalf("\nsource:\n%s\nwant types:\n%v\ngot types:\n%v\n", src, want, gotTypes)
	}
	return got
}

func wantLexError(t *testing.T, src string) *LexError {
	t.Helper()
	_, err := NewLexer(src).Scan()
	if err == nil {
		t.Fatalf("expected lex error for %q", src)
	}
	le, ok := err.(*LexError)
	if !ok {
		t.Fatalf("expected *LexError, got %T: %v", err, err)
	}
	return le
}

func Test_Lexer_Arithmetic(t *testing.T) {
	got := wantTypes(t, "2 + 3 * 4 - 1 / 5", []TokenType{
		NUMBER, PLUS, NUMBER, MULT, NUMBER, MINUS, NUMBER, DIV, NUMBER,
	})
	if got[0].Literal.(float64) != 2 || got[8].Literal.(float64) != 5 {
		t.Fatalf("number literals not parsed: %v, %v", got[0].Literal, got[8].Literal)
	}
}

func Test_Lexer_FractionalNumbers(t *testing.T) {
	got := wantTypes(t, "1.5 0.25 10", []TokenType{NUMBER, NUMBER, NUMBER})
	want := []float64{1.5, 0.25, 10}
	for i, w := range want {
		if got[i].Literal.(float64) != w {
			t.Fatalf("token %d: want %v, got %v", i, w, got[i].Literal)
		}
	}
}

func Test_Lexer_ComparisonVsAssignment(t *testing.T) {
	wantTypes(t, "x = 1", []TokenType{ID, ASSIGN, NUMBER})
	wantTypes(t, "x == 1", []TokenType{ID, EQ, NUMBER})
	wantTypes(t, "x != 1", []TokenType{ID, NEQ, NUMBER})
	wantTypes(t, "x <= 1", []TokenType{ID, LESS_EQ, NUMBER})
	wantTypes(t, "x >= 1", []TokenType{ID, GREATER_EQ, NUMBER})
	wantTypes(t, "x < 1 > 2", []TokenType{ID, LESS, NUMBER, GREATER, NUMBER})
}

func Test_Lexer_LogicalOperators(t *testing.T) {
	wantTypes(t, "true && false || !x", []TokenType{BOOLEAN, AND, BOOLEAN, OR, BANG, ID})
	wantTypes(t, "not x", []TokenType{NOT, ID})
}

func Test_Lexer_BooleanCapitalizations(t *testing.T) {
	got := wantTypes(t, "true True false False", []TokenType{BOOLEAN, BOOLEAN, BOOLEAN, BOOLEAN})
	wantVals := []bool{true, true, false, false}
	for i, w := range wantVals {
		if got[i].Literal.(bool) != w {
			t.Fatalf("boolean %d: want %v, got %v", i, w, got[i].Literal)
		}
	}
}

func Test_Lexer_Strings_BothQuoteKinds(t *testing.T) {
	got := wantTypes(t, `"abc" 'x y'`, []TokenType{STRING, STRING})
	if got[0].Literal.(string) != "abc" || got[1].Literal.(string) != "x y" {
		t.Fatalf("string literals not decoded: %v, %v", got[0].Literal, got[1].Literal)
	}
}

func Test_Lexer_String_MismatchedQuoteIsError(t *testing.T) {
	le := wantLexError(t, `"abc'`)
	if le.Line != 1 {
		t.Fatalf("want line 1, got %d", le.Line)
	}
}

func Test_Lexer_ItVariable(t *testing.T) {
	got := wantTypes(t, "filter(xs, {@it > 1})", []TokenType{
		ID, LROUND, ID, COMMA, LCURLY, IT, GREATER, NUMBER, RCURLY, RROUND,
	})
	if got[5].Lexeme != "@it" {
		t.Fatalf("want @it lexeme, got %q", got[5].Lexeme)
	}
}

func Test_Lexer_BadAtIdentifier(t *testing.T) {
	wantLexError(t, "@foo + 1")
}

func Test_Lexer_UnrecognizedCharacter(t *testing.T) {
	le := wantLexError(t, "1 + $")
	if le.Col != 4 {
		t.Fatalf("want column 4, got %d", le.Col)
	}
}

func Test_Lexer_SingleAmpersandIsError(t *testing.T) {
	wantLexError(t, "true & false")
	wantLexError(t, "true | false")
}

func Test_Lexer_Statements(t *testing.T) {
	wantTypes(t, "x = 5; y = [1, 2]; x", []TokenType{
		ID, ASSIGN, NUMBER, SEMI,
		ID, ASSIGN, LSQUARE, NUMBER, COMMA, NUMBER, RSQUARE, SEMI,
		ID,
	})
}

func Test_Lexer_IsRestartable(t *testing.T) {
	src := "1 + 2"
	a := toks(t, src)
	b := toks(t, src)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two scans of the same source disagree:\n%v\n%v", a, b)
	}
}
