// Package parser implements a recursive-descent, precedence-climbing
// parser that turns a miniC token stream into an ast.Node tree.
//
// goparsec (the teacher's combinator library, used by pkg/vm/parsing.go
// and pkg/asm/parsing.go) was evaluated and dropped for this stage —
// see DESIGN.md's "Dropped teacher dependencies" entry. The
// constructor/entry-point shape (NewParser(io.Reader), Parse()) still
// follows that same teacher convention.
package parser

import (
	"fmt"
	"io"

	"minicc.dev/compiler/pkg/ast"
	"minicc.dev/compiler/pkg/lexer"
	"minicc.dev/compiler/pkg/token"
)

// SyntaxError is a fatal parse failure, carrying the offending line.
type SyntaxError struct {
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("[ERROR] [PARSER] [%d]: %s", e.Line, e.Message)
}

// Parser holds no state beyond its own lookahead; it is a pure
// function from token stream to AST, as spec.md §4.2 requires.
type Parser struct {
	lex  *lexer.Lexer
	cur  token.Token
	peek token.Token
}

// NewParser wraps r in a Lexer and primes the first two tokens of lookahead.
func NewParser(r io.Reader) (*Parser, error) {
	lx, err := lexer.NewLexer(r)
	if err != nil {
		return nil, err
	}
	p := &Parser{lex: lx}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	p.cur = p.peek
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.peek = tok
	return nil
}

func (p *Parser) at(k token.Kind) bool { return p.cur.Kind == k }

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if p.cur.Kind != k {
		return token.Token{}, &SyntaxError{Line: p.cur.Line, Message: fmt.Sprintf("expected %s, got %s", k, p.cur.Kind)}
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return token.Token{}, err
	}
	return tok, nil
}

// Parse runs the parser to completion and returns the Root node, or a
// *SyntaxError aborting immediately on the first malformed construct —
// lex/parse errors are fatal per spec.md §7.
func (p *Parser) Parse() (*ast.Node, error) {
	root := ast.New(ast.Root, "", 0)
	for !p.at(token.EOF) {
		seg, err := p.parseSegment()
		if err != nil {
			return nil, err
		}
		root.AppendList(seg)
	}
	return root, nil
}

// parseSegment parses one top-level "type def" — a global var/array
// declaration list, or a function definition/declaration.
func (p *Parser) parseSegment() (*ast.Node, error) {
	typeKind, line, err := p.parseType()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}

	if p.at(token.LParen) {
		return p.parseFunction(typeKind, nameTok.Lexeme, line)
	}
	return p.parseDeclList(typeKind, nameTok.Lexeme, line)
}

func (p *Parser) parseType() (ast.Kind, int, error) {
	line := p.cur.Line
	switch p.cur.Kind {
	case token.KwInt:
		p.advance()
		return ast.Int, line, nil
	case token.KwVoid:
		p.advance()
		return ast.Void, line, nil
	default:
		return 0, line, &SyntaxError{Line: line, Message: fmt.Sprintf("expected 'int' or 'void', got %s", p.cur.Kind)}
	}
}

// parseFunction parses the parameter list and body following "type name".
func (p *Parser) parseFunction(typeKind ast.Kind, name string, line int) (*ast.Node, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}

	params := []*ast.Node{}
	for !p.at(token.RParen) {
		pt, pline, err := p.parseType()
		if err != nil {
			return nil, err
		}
		pname, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		dims, err := p.parseParamDims()
		if err != nil {
			return nil, err
		}

		kind := ast.IntVar
		if len(dims) > 0 {
			kind = ast.IntArray
		}
		if pt == ast.Void {
			return nil, &SyntaxError{Line: pline, Message: "void used for a parameter"}
		}
		param := ast.New(kind, pname.Lexeme, pline)
		param.List = dims
		params = append(params, param)

		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	fnKind := ast.VoidFunc
	if typeKind == ast.Int {
		fnKind = ast.IntFunc
	}
	fn := ast.New(fnKind, name, line)
	fn.List = params
	fn.SetKid("body", body)
	return fn, nil
}

// parseParamDims parses zero or more "[num?]" groups for an array
// parameter; a missing size in the first group (e.g. "int a[]") is the
// pass-by-reference "unknown outer size" marker, recorded as a nil entry.
func (p *Parser) parseParamDims() ([]*ast.Node, error) {
	dims := []*ast.Node{}
	for p.at(token.LBracket) {
		p.advance()
		if p.at(token.RBracket) {
			dims = append(dims, nil)
		} else {
			n, err := p.expect(token.IntLit)
			if err != nil {
				return nil, err
			}
			dims = append(dims, ast.New(ast.Num, n.Lexeme, n.Line))
		}
		if _, err := p.expect(token.RBracket); err != nil {
			return nil, err
		}
	}
	return dims, nil
}

// parseDeclList parses "name dims? (, name dims?)* ;" for a var/array
// declaration list (global when at top level, local inside a block).
func (p *Parser) parseDeclList(typeKind ast.Kind, firstName string, line int) (*ast.Node, error) {
	list := ast.New(ast.Block, "", line)

	name, nline := firstName, line
	for {
		dims, err := p.parseConstDims()
		if err != nil {
			return nil, err
		}
		kind := ast.IntVar
		if len(dims) > 0 {
			kind = ast.IntArray
		}
		if typeKind == ast.Void {
			return nil, &SyntaxError{Line: nline, Message: "void used for a variable/array"}
		}
		decl := ast.New(kind, name, nline)
		decl.List = dims
		list.AppendList(decl)

		if !p.at(token.Comma) {
			break
		}
		p.advance()
		nameTok, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		name, nline = nameTok.Lexeme, nameTok.Line
	}

	if _, err := p.expect(token.Semi); err != nil {
		return nil, err
	}
	return list, nil
}

// parseConstDims parses zero or more "[num]" groups, all sizes required.
func (p *Parser) parseConstDims() ([]*ast.Node, error) {
	dims := []*ast.Node{}
	for p.at(token.LBracket) {
		p.advance()
		n, err := p.expect(token.IntLit)
		if err != nil {
			return nil, err
		}
		dims = append(dims, ast.New(ast.Num, n.Lexeme, n.Line))
		if _, err := p.expect(token.RBracket); err != nil {
			return nil, err
		}
	}
	return dims, nil
}

func (p *Parser) parseBlock() (*ast.Node, error) {
	open, err := p.expect(token.LBrace)
	if err != nil {
		return nil, err
	}
	block := ast.New(ast.Block, "", open.Line)
	for !p.at(token.RBrace) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			block.AppendList(stmt)
		}
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *Parser) parseStatement() (*ast.Node, error) {
	switch p.cur.Kind {
	case token.LBrace:
		return p.parseBlock()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwBreak:
		line := p.cur.Line
		p.advance()
		_, err := p.expect(token.Semi)
		return ast.New(ast.Break, "", line), err
	case token.KwContinue:
		line := p.cur.Line
		p.advance()
		_, err := p.expect(token.Semi)
		return ast.New(ast.Continue, "", line), err
	case token.KwReturn:
		return p.parseReturn()
	case token.KwInt, token.KwVoid:
		typeKind, line, err := p.parseType()
		if err != nil {
			return nil, err
		}
		nameTok, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		return p.parseDeclList(typeKind, nameTok.Lexeme, line)
	case token.Semi:
		p.advance()
		return nil, nil
	case token.KwSwitch:
		return p.parseSwitch()
	default:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semi); err != nil {
			return nil, err
		}
		return expr, nil
	}
}

func (p *Parser) parseIf() (*ast.Node, error) {
	ifTok, err := p.expect(token.KwIf)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	node := ast.New(ast.If, "", ifTok.Line)
	node.SetKid("condition", cond)
	node.SetKid("statement", then)

	if p.at(token.KwElse) {
		p.advance()
		elseStat, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		node.SetKid("elsestat", elseStat)
	}
	return node, nil
}

func (p *Parser) parseWhile() (*ast.Node, error) {
	whileTok, err := p.expect(token.KwWhile)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	node := ast.New(ast.While, "", whileTok.Line)
	node.SetKid("condition", cond)
	node.SetKid("statement", body)
	return node, nil
}

func (p *Parser) parseReturn() (*ast.Node, error) {
	retTok, err := p.expect(token.KwReturn)
	if err != nil {
		return nil, err
	}
	node := ast.New(ast.Return, "", retTok.Line)
	if !p.at(token.Semi) {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		node.SetKid("value", expr)
	}
	if _, err := p.expect(token.Semi); err != nil {
		return nil, err
	}
	return node, nil
}

// parseSwitch accepts the switch/case syntax (reserved in the AST
// enumeration) purely so the parser does not choke on it; the Analyzer
// is the stage that reports it as not-implemented, per spec.md §9.
func (p *Parser) parseSwitch() (*ast.Node, error) {
	swTok, err := p.expect(token.KwSwitch)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	subject, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	node := ast.New(ast.Switch, "", swTok.Line)
	node.SetKid("subject", subject)
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	for !p.at(token.RBrace) {
		caseTok, err := p.expect(token.KwCase)
		if err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		caseNode := ast.New(ast.Case, "", caseTok.Line)
		caseNode.SetKid("value", val)
		for !p.at(token.KwCase) && !p.at(token.RBrace) {
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			if stmt != nil {
				caseNode.AppendList(stmt)
			}
		}
		node.AppendList(caseNode)
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return node, nil
}

// --- Expressions, decreasing precedence / increasing binding strength ---

func (p *Parser) parseExpr() (*ast.Node, error) { return p.parseAssign() }

func (p *Parser) parseAssign() (*ast.Node, error) {
	lhs, err := p.parseLogicOr()
	if err != nil {
		return nil, err
	}
	if p.at(token.Assign) {
		line := p.cur.Line
		p.advance()
		rhs, err := p.parseAssign() // right-associative
		if err != nil {
			return nil, err
		}
		node := ast.New(ast.Assign, "", line)
		node.SetKid("lhs", lhs)
		node.SetKid("rhs", rhs)
		return node, nil
	}
	return lhs, nil
}

// binTail implements the "tail" helper spec.md §4.2 describes: it
// folds left so the result is a strictly left-leaning tree, e.g.
// ((a-b)-c) rather than a-(b-c), for left-associative operators.
func (p *Parser) binTail(left *ast.Node, next func() (*ast.Node, error), ops map[token.Kind]ast.Kind) (*ast.Node, error) {
	for {
		kind, ok := ops[p.cur.Kind]
		if !ok {
			return left, nil
		}
		line := p.cur.Line
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		node := ast.New(kind, "", line)
		node.SetKid("lhs", left)
		node.SetKid("rhs", right)
		left = node
	}
}

func (p *Parser) parseLogicOr() (*ast.Node, error) {
	left, err := p.parseLogicAnd()
	if err != nil {
		return nil, err
	}
	return p.binTail(left, p.parseLogicAnd, map[token.Kind]ast.Kind{token.LogicOr: ast.LogicOr})
}

func (p *Parser) parseLogicAnd() (*ast.Node, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	return p.binTail(left, p.parseRelational, map[token.Kind]ast.Kind{token.LogicAnd: ast.LogicAnd})
}

var relOps = map[token.Kind]ast.Kind{
	token.Eq: ast.Eq, token.Neq: ast.Neq, token.Lt: ast.Lt,
	token.Leq: ast.Leq, token.Gt: ast.Gt, token.Geq: ast.Geq,
}

func (p *Parser) parseRelational() (*ast.Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return p.binTail(left, p.parseAdditive, relOps)
}

var addOps = map[token.Kind]ast.Kind{token.Plus: ast.Plus, token.Minus: ast.Minus}

func (p *Parser) parseAdditive() (*ast.Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	return p.binTail(left, p.parseMultiplicative, addOps)
}

var mulOps = map[token.Kind]ast.Kind{token.Star: ast.Times, token.Slash: ast.Divide, token.Percent: ast.Mod}

func (p *Parser) parseMultiplicative() (*ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return p.binTail(left, p.parseUnary, mulOps)
}

func (p *Parser) parseUnary() (*ast.Node, error) {
	line := p.cur.Line
	switch p.cur.Kind {
	case token.Not:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		node := ast.New(ast.Not, "", line)
		node.SetKid("target", operand)
		return node, nil
	case token.Minus:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		node := ast.New(ast.Negative, "", line)
		node.SetKid("target", operand)
		return node, nil
	case token.PlusPlus, token.MinusMinus:
		op := "++"
		if p.cur.Kind == token.MinusMinus {
			op = "--"
		}
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		node := ast.New(ast.UnaryLeft, op, line)
		node.SetKid("target", operand)
		return node, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (*ast.Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.at(token.PlusPlus) || p.at(token.MinusMinus) {
		op := "++"
		if p.cur.Kind == token.MinusMinus {
			op = "--"
		}
		line := p.cur.Line
		p.advance()
		wrap := ast.New(ast.UnaryRight, op, line)
		wrap.SetKid("target", node)
		node = wrap
	}
	return node, nil
}

func (p *Parser) parsePrimary() (*ast.Node, error) {
	switch p.cur.Kind {
	case token.IntLit:
		tok := p.cur
		p.advance()
		return ast.New(ast.Num, tok.Lexeme, tok.Line), nil
	case token.LParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return inner, nil
	case token.Ident:
		tok := p.cur
		p.advance()
		if p.at(token.LParen) {
			return p.parseCall(tok.Lexeme, tok.Line)
		}
		if p.at(token.LBracket) {
			return p.parseSubscript(tok.Lexeme, tok.Line)
		}
		return ast.New(ast.Ident, tok.Lexeme, tok.Line), nil
	default:
		return nil, &SyntaxError{Line: p.cur.Line, Message: fmt.Sprintf("unexpected token %s in expression", p.cur.Kind)}
	}
}

func (p *Parser) parseCall(name string, line int) (*ast.Node, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	node := ast.New(ast.Func, name, line)
	for !p.at(token.RParen) {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		node.AppendList(arg)
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseSubscript(name string, line int) (*ast.Node, error) {
	node := ast.New(ast.Array, name, line)
	for p.at(token.LBracket) {
		p.advance()
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBracket); err != nil {
			return nil, err
		}
		node.AppendList(idx)
	}
	return node, nil
}
