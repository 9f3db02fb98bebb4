// parser.go: recursive-descent parser for exprlang.
//
// The grammar, lowest to highest precedence (left-associative unless noted):
//
//	sequence   := statement (';' statement)*
//	statement  := assignment | expr
//	assignment := IDENT '=' expr            // only a bare identifier on the left
//	expr       := logic_or
//	logic_or   := logic_and ('||' logic_and)*
//	logic_and  := equality ('&&' equality)*
//	equality   := relational (('=='|'!=') relational)*
//	relational := additive (('<'|'>'|'<='|'>=') additive)*
//	additive   := multiplicative (('+'|'-') multiplicative)*
//	multiplicative := unary (('*'|'/') unary)*
//	unary      := ('!' | 'not' | '-') unary | postfix
//	postfix    := primary ('[' expr ']')*
//	primary    := NUMBER | STRING | BOOLEAN | '@it'
//	            | IDENT | IDENT '(' arglist? ')' | '(' expr ')' | '[' arglist? ']'
//	arglist    := expr (',' expr)*
//
// Collection calls are a primary-level special form:
//
//	IDENT '(' expr ',' '{' expr '}' ')'    where IDENT ∈ {filter, all, any}
//
// The brace-enclosed predicate body is parsed as an ordinary expression and may
// reference @it anywhere, so predicates like {1 == @it} work the same as
// {@it == 1}.
//
// Assignment is recognized only at the head of a statement, by looking at the
// two leading tokens (IDENT ASSIGN); '==' is its own token, so relational and
// equality operators can never be misparsed as assignment. Unary minus falls
// out of the grammar position, so "3 + -5" is addition of a negated operand.
package exprlang

import "fmt"

// maxNestingDepth caps expression nesting so adversarial input cannot drive
// the parser (or later the evaluator, whose recursion mirrors the AST) into
// unbounded native recursion.
const maxNestingDepth = 100

// collectionCalls are the higher-order builtins that take a predicate block.
var collectionCalls = map[string]bool{
	"filter": true,
	"all":    true,
	"any":    true,
}

// ParseError reports a structural mismatch between tokens and the grammar.
type ParseError struct {
	Line     int
	Col      int
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: expected %s, found %s", e.Line, e.Col+1, e.Expected, e.Found)
}

// Parse tokenizes and parses a complete source string.
func Parse(src string) (*Program, error) {
	toks, err := NewLexer(src).Scan()
	if err != nil {
		return nil, err
	}
	return ParseTokens(toks)
}

// ParseTokens parses a token stream produced by Lexer.Scan (EOF included).
func ParseTokens(toks []Token) (*Program, error) {
	p := &parser{toks: toks}
	return p.program()
}

type parser struct {
	toks  []Token
	i     int
	depth int
}

// ----- token basics -----

func (p *parser) peek() Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *parser) peekNext() Token {
	if p.i+1 >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+1]
}

func (p *parser) prev() Token { return p.toks[p.i-1] }

func (p *parser) atEnd() bool { return p.peek().Type == EOF }

func (p *parser) match(tt ...TokenType) bool {
	if p.atEnd() {
		return false
	}
	for _, t := range tt {
		if p.peek().Type == t {
			p.i++
			return true
		}
	}
	return false
}

func (p *parser) need(t TokenType, expected string) (Token, error) {
	if p.match(t) {
		return p.prev(), nil
	}
	return Token{}, p.errExpected(expected)
}

func (p *parser) errExpected(expected string) error {
	g := p.peek()
	return &ParseError{Line: g.Line, Col: g.Col, Expected: expected, Found: describe(g)}
}

func describe(t Token) string {
	if t.Type == EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Lexeme)
}

// enter/leave guard the recursion depth across nested expressions.
func (p *parser) enter() error {
	p.depth++
	if p.depth > maxNestingDepth {
		g := p.peek()
		return &ParseError{Line: g.Line, Col: g.Col, Expected: "shallower nesting", Found: "expression nested too deeply"}
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// ----- grammar -----

func (p *parser) program() (*Program, error) {
	first := p.peek()
	stmt, err := p.statement()
	if err != nil {
		return nil, err
	}
	prog := &Program{pos: at(first), Stmts: []Node{stmt}}
	for p.match(SEMI) {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}
	if !p.atEnd() {
		return nil, p.errExpected("';' or end of input")
	}
	return prog, nil
}

func (p *parser) statement() (Node, error) {
	// Assignment only when the statement starts with IDENT '='; '==' is a
	// distinct token, so equality never matches here.
	if p.peek().Type == ID && p.peekNext().Type == ASSIGN {
		name := p.peek()
		p.i += 2 // IDENT '='
		val, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &AssignStmt{pos: at(name), Name: name.Lexeme, Value: val}, nil
	}
	return p.expr()
}

func (p *parser) expr() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	return p.logicOr()
}

func (p *parser) logicOr() (Node, error) {
	left, err := p.logicAnd()
	if err != nil {
		return nil, err
	}
	for p.match(OR) {
		op := p.prev()
		right, err := p.logicAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{pos: at(op), Op: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) logicAnd() (Node, error) {
	left, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.match(AND) {
		op := p.prev()
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{pos: at(op), Op: "&&", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) equality() (Node, error) {
	left, err := p.relational()
	if err != nil {
		return nil, err
	}
	for p.match(EQ, NEQ) {
		op := p.prev()
		right, err := p.relational()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{pos: at(op), Op: op.Lexeme, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) relational() (Node, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	for p.match(LESS, LESS_EQ, GREATER, GREATER_EQ) {
		op := p.prev()
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{pos: at(op), Op: op.Lexeme, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) additive() (Node, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for p.match(PLUS, MINUS) {
		op := p.prev()
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{pos: at(op), Op: op.Lexeme, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) multiplicative() (Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.match(MULT, DIV) {
		op := p.prev()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{pos: at(op), Op: op.Lexeme, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) unary() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.match(BANG, NOT, MINUS) {
		op := p.prev()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{pos: at(op), Op: op.Lexeme, Operand: operand}, nil
	}
	return p.postfix()
}

func (p *parser) postfix() (Node, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.match(LSQUARE) {
		open := p.prev()
		idx, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RSQUARE, "']'"); err != nil {
			return nil, err
		}
		e = &IndexExpr{pos: at(open), Base: e, Index: idx}
	}
	return e, nil
}

func (p *parser) primary() (Node, error) {
	switch {
	case p.match(NUMBER):
		t := p.prev()
		return &NumberLit{pos: at(t), Value: t.Literal.(float64)}, nil

	case p.match(STRING):
		t := p.prev()
		return &StringLit{pos: at(t), Value: t.Literal.(string)}, nil

	case p.match(BOOLEAN):
		t := p.prev()
		return &BoolLit{pos: at(t), Value: t.Literal.(bool)}, nil

	case p.match(IT):
		return &ItRef{pos: at(p.prev())}, nil

	case p.match(ID):
		name := p.prev()
		if p.peek().Type == LROUND {
			p.i++ // '('
			if collectionCalls[name.Lexeme] {
				return p.collectionCall(name)
			}
			return p.call(name)
		}
		return &Ident{pos: at(name), Name: name.Lexeme}, nil

	case p.match(LROUND):
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RROUND, "')'"); err != nil {
			return nil, err
		}
		return e, nil

	case p.match(LSQUARE):
		open := p.prev()
		arr := &ArrayLit{pos: at(open)}
		if p.match(RSQUARE) {
			return arr, nil
		}
		for {
			e, err := p.expr()
			if err != nil {
				return nil, err
			}
			arr.Elems = append(arr.Elems, e)
			if !p.match(COMMA) {
				break
			}
		}
		if _, err := p.need(RSQUARE, "']'"); err != nil {
			return nil, err
		}
		return arr, nil
	}

	return nil, p.errExpected("an expression")
}

// call parses the argument list of an ordinary function call; the name token
// and '(' have already been consumed.
func (p *parser) call(name Token) (Node, error) {
	c := &CallExpr{pos: at(name), Name: name.Lexeme}
	if p.match(RROUND) {
		return c, nil
	}
	for {
		a, err := p.expr()
		if err != nil {
			return nil, err
		}
		c.Args = append(c.Args, a)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.need(RROUND, "')'"); err != nil {
		return nil, err
	}
	return c, nil
}

// collectionCall parses "filter(coll, {pred})" and friends; the name token and
// '(' have already been consumed. The predicate body is a full expression.
func (p *parser) collectionCall(name Token) (Node, error) {
	coll, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(COMMA, fmt.Sprintf("',' between the collection and the predicate of %s", name.Lexeme)); err != nil {
		return nil, err
	}
	if _, err := p.need(LCURLY, "'{' opening the predicate"); err != nil {
		return nil, err
	}
	pred, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(RCURLY, "'}' closing the predicate"); err != nil {
		return nil, err
	}
	if _, err := p.need(RROUND, "')'"); err != nil {
		return nil, err
	}
	return &CollectExpr{pos: at(name), Name: name.Lexeme, Coll: coll, Pred: pred}, nil
}
