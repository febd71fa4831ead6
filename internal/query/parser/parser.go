package parser

import (
	"fmt"
	"strconv"

	"github.com/fluree/db-sub010/internal/query/ast"
)

// Parser is a recursive-descent parser over the token stream of Lexer.
type Parser struct {
	lexer   *Lexer
	current Token
	peeked  *Token
}

// NewParser creates a Parser for the given query source.
func NewParser(input string) *Parser {
	return &Parser{lexer: NewLexer(input)}
}

// Parse parses a full query (spec §4.8: SELECT/WHERE plus modifiers).
func Parse(input string) (*ast.Query, error) {
	p := NewParser(input)
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseQuery()
}

func (p *Parser) advance() error {
	if p.peeked != nil {
		p.current = *p.peeked
		p.peeked = nil
		return nil
	}
	tok, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

func (p *Parser) peekNext() (Token, error) {
	if p.peeked == nil {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return Token{}, err
		}
		p.peeked = &tok
	}
	return *p.peeked, nil
}

func (p *Parser) isKeyword(kw string) bool {
	return p.current.Type == TokenKeyword && p.current.Value == kw
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return fmt.Errorf("expected %q at position %d, got %q", kw, p.current.Pos, p.current.Value)
	}
	return p.advance()
}

func (p *Parser) expect(t TokenType, desc string) error {
	if p.current.Type != t {
		return fmt.Errorf("expected %s at position %d, got %q", desc, p.current.Pos, p.current.Value)
	}
	return p.advance()
}

func (p *Parser) parseQuery() (*ast.Query, error) {
	q := &ast.Query{}
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	if p.isKeyword("DISTINCT") {
		q.Distinct = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	items, err := p.parseSelectItems()
	if err != nil {
		return nil, err
	}
	q.Select = items

	if err := p.expectKeyword("WHERE"); err != nil {
		return nil, err
	}
	group, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	q.Where = group

	if err := p.parseModifiers(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (p *Parser) parseSelectItems() ([]ast.SelectItem, error) {
	if p.current.Type == TokenStar {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return nil, nil // nil Select + non-nil Where means "project all bound vars"
	}
	var items []ast.SelectItem
	for p.current.Type == TokenVar || p.current.Type == TokenLParen {
		if p.current.Type == TokenVar {
			items = append(items, ast.SelectItem{Var: ast.Var{Name: p.current.Value}})
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if err := p.advance(); err != nil { // consume '('
			return nil, err
		}
		e, err := p.parseExprOrAgg()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("AS"); err != nil {
			return nil, err
		}
		if p.current.Type != TokenVar {
			return nil, fmt.Errorf("expected alias variable at position %d", p.current.Pos)
		}
		alias := ast.Var{Name: p.current.Value}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen, "')'"); err != nil {
			return nil, err
		}
		items = append(items, ast.SelectItem{Expr: e, Alias: &alias})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("expected select item at position %d", p.current.Pos)
	}
	return items, nil
}

func (p *Parser) parseGroup() ([]ast.GroupElement, error) {
	if err := p.expect(TokenLBrace, "'{'"); err != nil {
		return nil, err
	}
	var elems []ast.GroupElement
	for p.current.Type != TokenRBrace {
		if p.current.Type == TokenEOF {
			return nil, fmt.Errorf("unterminated group: missing '}'")
		}
		el, err := p.parseGroupElement()
		if err != nil {
			return nil, err
		}
		elems = append(elems, el...)
		for p.current.Type == TokenDot {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	return elems, p.advance()
}

func (p *Parser) parseGroupElement() ([]ast.GroupElement, error) {
	switch {
	case p.isKeyword("OPTIONAL"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		return []ast.GroupElement{&ast.Optional{Group: inner}}, nil

	case p.isKeyword("MINUS"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		return []ast.GroupElement{&ast.AntiJoin{Kind: ast.Minus, Group: inner}}, nil

	case p.isKeyword("FILTER"):
		return p.parseFilterOrAntiJoin()

	case p.isKeyword("BIND"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expect(TokenLParen, "'('"); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("AS"); err != nil {
			return nil, err
		}
		if p.current.Type != TokenVar {
			return nil, fmt.Errorf("expected variable at position %d", p.current.Pos)
		}
		v := ast.Var{Name: p.current.Value}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen, "')'"); err != nil {
			return nil, err
		}
		return []ast.GroupElement{&ast.Bind{Expr: e, As: v}}, nil

	case p.isKeyword("VALUES"):
		return p.parseValues()

	case p.isKeyword("SELECT"):
		sub, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		return []ast.GroupElement{&ast.SubSelectPattern{Query: sub}}, nil

	case p.current.Type == TokenLBrace:
		first, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		groups := [][]ast.GroupElement{first}
		for p.isKeyword("UNION") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			g, err := p.parseGroup()
			if err != nil {
				return nil, err
			}
			groups = append(groups, g)
		}
		if len(groups) == 1 {
			return groups[0], nil
		}
		return []ast.GroupElement{&ast.Union{Groups: groups}}, nil

	default:
		return p.parseTripleBlock()
	}
}

func (p *Parser) parseFilterOrAntiJoin() ([]ast.GroupElement, error) {
	if err := p.advance(); err != nil { // consume FILTER
		return nil, err
	}
	if p.isKeyword("EXISTS") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		return []ast.GroupElement{&ast.AntiJoin{Kind: ast.Exists, Group: inner}}, nil
	}
	if p.isKeyword("NOT") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		inner, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		return []ast.GroupElement{&ast.AntiJoin{Kind: ast.NotExists, Group: inner}}, nil
	}
	hasParen := p.current.Type == TokenLParen
	if hasParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if hasParen {
		if err := p.expect(TokenRParen, "')'"); err != nil {
			return nil, err
		}
	}
	return []ast.GroupElement{&ast.Filter{Expr: e}}, nil
}

func (p *Parser) parseValues() ([]ast.GroupElement, error) {
	if err := p.advance(); err != nil { // consume VALUES
		return nil, err
	}
	var vars []ast.Var
	if p.current.Type == TokenLParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		for p.current.Type == TokenVar {
			vars = append(vars, ast.Var{Name: p.current.Value})
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if err := p.expect(TokenRParen, "')'"); err != nil {
			return nil, err
		}
	} else if p.current.Type == TokenVar {
		vars = append(vars, ast.Var{Name: p.current.Value})
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else {
		return nil, fmt.Errorf("expected variable list at position %d", p.current.Pos)
	}

	if err := p.expect(TokenLBrace, "'{'"); err != nil {
		return nil, err
	}
	var rows [][]ast.Term
	for p.current.Type != TokenRBrace {
		var row []ast.Term
		grouped := p.current.Type == TokenLParen
		if grouped {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		for {
			t, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			row = append(row, t)
			if !grouped {
				break
			}
			if p.current.Type == TokenRParen {
				break
			}
		}
		if grouped {
			if err := p.expect(TokenRParen, "')'"); err != nil {
				return nil, err
			}
		}
		rows = append(rows, row)
	}
	if err := p.advance(); err != nil { // consume '}'
		return nil, err
	}
	v := &ast.Values{Rows: rows}
	if len(vars) == 1 {
		v.Vars = vars[0]
	} else {
		v.MultiVars = vars
	}
	return []ast.GroupElement{v}, nil
}

func (p *Parser) parseTripleBlock() ([]ast.GroupElement, error) {
	s, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	var elems []ast.GroupElement
	for {
		pr, err := p.parsePredicateTerm()
		if err != nil {
			return nil, err
		}
		o, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		elems = append(elems, tripleOrClass(s, pr, o))
		if p.current.Type == TokenComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			o2, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			elems = append(elems, tripleOrClass(s, pr, o2))
			continue
		}
		if p.current.Type == TokenSemicolon {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return elems, nil
}

func tripleOrClass(s, pr, o ast.Term) ast.GroupElement {
	if iri, ok := pr.(ast.IRI); ok && iri.Value == "rdf:type" {
		if cls, ok := o.(ast.IRI); ok {
			return &ast.ClassPattern{Subject: s, Class: cls}
		}
	}
	return &ast.TriplePattern{S: s, P: pr, O: o}
}

func (p *Parser) parsePredicateTerm() (ast.Term, error) {
	if p.current.Type == TokenKeyword && p.current.Value == "A" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.IRI{Value: "rdf:type"}, nil
	}
	return p.parseTerm()
}

func (p *Parser) parseTerm() (ast.Term, error) {
	switch p.current.Type {
	case TokenVar:
		v := ast.Var{Name: p.current.Value}
		return v, p.advance()
	case TokenIRI:
		v := ast.IRI{Value: p.current.Value}
		return v, p.advance()
	case TokenPrefixedName:
		v := ast.IRI{Value: p.current.Value}
		return v, p.advance()
	case TokenString:
		val := p.current.Value
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.Literal{Value: val, Datatype: "xsd:string"}, nil
	case TokenNumber:
		val := p.current.Value
		if err := p.advance(); err != nil {
			return nil, err
		}
		return numberLiteral(val), nil
	case TokenBool:
		b := p.current.Value == "TRUE"
		return ast.Literal{Value: b, Datatype: "xsd:boolean"}, p.advance()
	default:
		return nil, fmt.Errorf("expected term at position %d, got %q", p.current.Pos, p.current.Value)
	}
}

func numberLiteral(s string) ast.Literal {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ast.Literal{Value: i, Datatype: "xsd:integer"}
	}
	f, _ := strconv.ParseFloat(s, 64)
	return ast.Literal{Value: f, Datatype: "xsd:double"}
}

func (p *Parser) parseModifiers(q *ast.Query) error {
	if p.isKeyword("GROUP") {
		if err := p.advance(); err != nil {
			return err
		}
		if err := p.expectKeyword("BY"); err != nil {
			return err
		}
		for p.current.Type == TokenVar {
			q.GroupBy = append(q.GroupBy, ast.VarRef{Name: p.current.Value})
			if err := p.advance(); err != nil {
				return err
			}
		}
	}
	if p.isKeyword("HAVING") {
		if err := p.advance(); err != nil {
			return err
		}
		if err := p.expect(TokenLParen, "'('"); err != nil {
			return err
		}
		e, err := p.parseExpr()
		if err != nil {
			return err
		}
		q.Having = e
		if err := p.expect(TokenRParen, "')'"); err != nil {
			return err
		}
	}
	if p.isKeyword("ORDER") {
		if err := p.advance(); err != nil {
			return err
		}
		if err := p.expectKeyword("BY"); err != nil {
			return err
		}
		for {
			desc := false
			if p.isKeyword("DESC") {
				desc = true
				if err := p.advance(); err != nil {
					return err
				}
			} else if p.isKeyword("ASC") {
				if err := p.advance(); err != nil {
					return err
				}
			}
			if p.current.Type != TokenVar && p.current.Type != TokenLParen {
				break
			}
			e, err := p.parseExprOrAgg()
			if err != nil {
				return err
			}
			q.OrderBy = append(q.OrderBy, ast.OrderKey{Expr: e, Desc: desc})
			if p.current.Type != TokenVar && !p.isKeyword("ASC") && !p.isKeyword("DESC") {
				break
			}
		}
	}
	if p.isKeyword("LIMIT") {
		if err := p.advance(); err != nil {
			return err
		}
		n, err := p.parseIntLiteral()
		if err != nil {
			return err
		}
		q.Limit = &n
	}
	if p.isKeyword("OFFSET") {
		if err := p.advance(); err != nil {
			return err
		}
		n, err := p.parseIntLiteral()
		if err != nil {
			return err
		}
		q.Offset = &n
	}
	if p.current.Type != TokenEOF {
		return fmt.Errorf("unexpected trailing input at position %d: %q", p.current.Pos, p.current.Value)
	}
	return nil
}

func (p *Parser) parseIntLiteral() (int64, error) {
	if p.current.Type != TokenNumber {
		return 0, fmt.Errorf("expected integer at position %d", p.current.Pos)
	}
	n, err := strconv.ParseInt(p.current.Value, 10, 64)
	if err != nil {
		return 0, err
	}
	return n, p.advance()
}
