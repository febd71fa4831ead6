package parser

import (
	"fmt"

	"github.com/fluree/db-sub010/internal/query/ast"
)

// parseExprOrAgg allows an aggregate function call (COUNT/SUM/AVG/MIN/
// MAX) wherever a plain expression is otherwise accepted — SELECT
// items, ORDER BY keys — per spec §4.9.
func (p *Parser) parseExprOrAgg() (ast.Expr, error) {
	if p.current.Type == TokenKeyword {
		switch p.current.Value {
		case "COUNT":
			return p.parseAgg(ast.AggCount)
		case "SUM":
			return p.parseAgg(ast.AggSum)
		case "AVG":
			return p.parseAgg(ast.AggAvg)
		case "MIN":
			return p.parseAgg(ast.AggMin)
		case "MAX":
			return p.parseAgg(ast.AggMax)
		}
	}
	return p.parseExpr()
}

func (p *Parser) parseAgg(fn ast.AggFunc) (ast.Expr, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLParen, "'('"); err != nil {
		return nil, err
	}
	distinct := false
	if p.isKeyword("DISTINCT") {
		distinct = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	var arg ast.Expr
	if p.current.Type == TokenStar {
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		arg = e
	}
	if err := p.expect(TokenRParen, "')'"); err != nil {
		return nil, err
	}
	return ast.AggExpr{Func: fn, Arg: arg, Distinct: distinct}, nil
}

// parseExpr parses the scalar expression grammar: OR over AND over
// comparison over additive over multiplicative over unary over
// primary, the tagged-variant shape spec §9 requires.
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseOrExpr()
}

func (p *Parser) parseOrExpr() (ast.Expr, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for p.current.Type == TokenOr || p.isKeyword("OR") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = ast.App{Op: ast.OpOr, Args: []ast.Expr{left, right}}
	}
	return left, nil
}

func (p *Parser) parseAndExpr() (ast.Expr, error) {
	left, err := p.parseCmpExpr()
	if err != nil {
		return nil, err
	}
	for p.current.Type == TokenAnd || p.isKeyword("AND") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseCmpExpr()
		if err != nil {
			return nil, err
		}
		left = ast.App{Op: ast.OpAnd, Args: []ast.Expr{left, right}}
	}
	return left, nil
}

var cmpOps = map[TokenType]ast.Op{
	TokenEquals:    ast.OpEq,
	TokenNotEquals: ast.OpNotEq,
	TokenLess:      ast.OpLt,
	TokenLessEq:    ast.OpLtEq,
	TokenGreater:   ast.OpGt,
	TokenGreaterEq: ast.OpGtEq,
}

func (p *Parser) parseCmpExpr() (ast.Expr, error) {
	left, err := p.parseAddExpr()
	if err != nil {
		return nil, err
	}
	if op, ok := cmpOps[p.current.Type]; ok {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAddExpr()
		if err != nil {
			return nil, err
		}
		return ast.App{Op: op, Args: []ast.Expr{left, right}}, nil
	}
	if p.isKeyword("IN") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expect(TokenLParen, "'('"); err != nil {
			return nil, err
		}
		args := []ast.Expr{left}
		for {
			e, err := p.parseAddExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, e)
			if p.current.Type != TokenComma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if err := p.expect(TokenRParen, "')'"); err != nil {
			return nil, err
		}
		return ast.App{Op: ast.OpIn, Args: args}, nil
	}
	return left, nil
}

func (p *Parser) parseAddExpr() (ast.Expr, error) {
	left, err := p.parseMulExpr()
	if err != nil {
		return nil, err
	}
	for p.current.Type == TokenPlus || p.current.Type == TokenMinus {
		op := ast.OpAdd
		if p.current.Type == TokenMinus {
			op = ast.OpSub
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMulExpr()
		if err != nil {
			return nil, err
		}
		left = ast.App{Op: op, Args: []ast.Expr{left, right}}
	}
	return left, nil
}

func (p *Parser) parseMulExpr() (ast.Expr, error) {
	left, err := p.parseUnaryExpr()
	if err != nil {
		return nil, err
	}
	for p.current.Type == TokenStar || p.current.Type == TokenSlash {
		op := ast.OpMul
		if p.current.Type == TokenSlash {
			op = ast.OpDiv
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		left = ast.App{Op: op, Args: []ast.Expr{left, right}}
	}
	return left, nil
}

func (p *Parser) parseUnaryExpr() (ast.Expr, error) {
	if p.current.Type == TokenNot || p.isKeyword("NOT") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		return ast.App{Op: ast.OpNot, Args: []ast.Expr{e}}, nil
	}
	return p.parsePrimaryExpr()
}

func (p *Parser) parsePrimaryExpr() (ast.Expr, error) {
	switch {
	case p.current.Type == TokenLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil

	case p.current.Type == TokenVar:
		v := p.current.Value
		return ast.VarRef{Name: v}, p.advance()

	case p.current.Type == TokenString:
		v := p.current.Value
		return ast.ExprLiteral{Value: v, Datatype: "xsd:string"}, p.advance()

	case p.current.Type == TokenNumber:
		lit := numberLiteral(p.current.Value)
		return ast.ExprLiteral{Value: lit.Value, Datatype: lit.Datatype}, p.advance()

	case p.current.Type == TokenBool:
		b := p.current.Value == "TRUE"
		return ast.ExprLiteral{Value: b, Datatype: "xsd:boolean"}, p.advance()

	case p.current.Type == TokenKeyword && p.current.Value == "STRCONTAINS":
		return p.parseFuncCall(ast.OpStrContains, 2)
	case p.current.Type == TokenKeyword && p.current.Value == "LANG":
		return p.parseFuncCall(ast.OpLang, 1)
	case p.current.Type == TokenKeyword && p.current.Value == "DATATYPE":
		return p.parseFuncCall(ast.OpDatatype, 1)
	case p.current.Type == TokenKeyword && p.current.Value == "BOUND":
		return p.parseFuncCall(ast.OpBound, 1)

	default:
		return nil, fmt.Errorf("expected expression at position %d, got %q", p.current.Pos, p.current.Value)
	}
}

func (p *Parser) parseFuncCall(op ast.Op, arity int) (ast.Expr, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLParen, "'('"); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for i := 0; i < arity; i++ {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if i < arity-1 {
			if err := p.expect(TokenComma, "','"); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expect(TokenRParen, "')'"); err != nil {
		return nil, err
	}
	return ast.App{Op: op, Args: args}, nil
}
