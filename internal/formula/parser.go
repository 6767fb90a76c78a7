package formula

import "strconv"

// Expr is a parsed formula, reusable across evaluations.
type Expr struct {
	root node
}

type node interface {
	eval(vars map[string]float64) (float64, error)
}

type literalNode struct {
	value float64
}

func (n *literalNode) eval(map[string]float64) (float64, error) {
	return n.value, nil
}

type variableNode struct {
	name string
}

func (n *variableNode) eval(vars map[string]float64) (float64, error) {
	v, ok := vars[n.name]
	if !ok {
		return 0, &UndefinedVariableError{Name: n.name}
	}
	return v, nil
}

type binaryNode struct {
	op          tokenType // tokPlus, tokMinus, tokStar, tokSlash
	left, right node
}

func (n *binaryNode) eval(vars map[string]float64) (float64, error) {
	l, err := n.left.eval(vars)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(vars)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case tokPlus:
		return l + r, nil
	case tokMinus:
		return l - r, nil
	case tokStar:
		return l * r, nil
	default:
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	}
}

type negateNode struct {
	operand node
}

func (n *negateNode) eval(vars map[string]float64) (float64, error) {
	v, err := n.operand.eval(vars)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

// parser is a recursive-descent parser over the token stream.
//
// Grammar:
//
//	expr   = term   { ("+" | "-") term }
//	term   = factor { ("*" | "/") factor }
//	factor = NUMBER | IDENT | "(" expr ")" | "-" factor
type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

// Parse parses a normalized formula string into a reusable expression tree.
func Parse(input string) (*Expr, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	if p.peek().typ == tokEOF {
		return nil, &MalformedFormulaError{Position: 0, Message: "empty formula"}
	}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.typ != tokEOF {
		return nil, &MalformedFormulaError{Position: t.pos, Message: "unexpected token " + strconv.Quote(t.value)}
	}
	return &Expr{root: root}, nil
}

func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.typ != tokPlus && t.typ != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: t.typ, left: left, right: right}
	}
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.typ != tokStar && t.typ != tokSlash {
			return left, nil
		}
		p.next()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: t.typ, left: left, right: right}
	}
}

func (p *parser) parseFactor() (node, error) {
	t := p.next()
	switch t.typ {
	case tokNumber:
		v, err := strconv.ParseFloat(t.value, 64)
		if err != nil {
			return nil, &MalformedFormulaError{Position: t.pos, Message: "invalid number " + strconv.Quote(t.value)}
		}
		return &literalNode{value: v}, nil
	case tokIdent:
		return &variableNode{name: t.value}, nil
	case tokMinus:
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &negateNode{operand: operand}, nil
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		closing := p.next()
		if closing.typ != tokRParen {
			return nil, &MalformedFormulaError{Position: closing.pos, Message: "expected ')'"}
		}
		return inner, nil
	case tokEOF:
		return nil, &MalformedFormulaError{Position: t.pos, Message: "unexpected end of formula"}
	default:
		return nil, &MalformedFormulaError{Position: t.pos, Message: "unexpected token " + strconv.Quote(t.value)}
	}
}
