package fastpath

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// TryMath evaluates a plain arithmetic expression. It only accepts strings
// made of digits, decimal points, spaces, parentheses and the operators
// + - * / %, and requires at least one operator so bare numbers fall
// through to the later stages. Any parse or evaluation error is a miss,
// never an error surfaced to the caller.
func TryMath(input string) (string, bool) {
	expr := strings.TrimSpace(input)
	if expr == "" || !allowedMathChars(expr) || !strings.ContainsAny(expr, "+-*/%") {
		return "", false
	}
	p := &exprParser{input: expr}
	val, err := p.parse()
	if err != nil {
		return "", false
	}
	return formatNumber(val), true
}

func allowedMathChars(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c == '.' || c == ' ' || c == '(' || c == ')':
		case c == '+' || c == '-' || c == '*' || c == '/' || c == '%':
		default:
			return false
		}
	}
	return true
}

// formatNumber renders a result without a superfluous trailing ".0",
// rounding away float noise like 0.30000000000000004.
func formatNumber(v float64) string {
	if math.Abs(v) < 1e15 {
		rounded := math.Round(v*1e9) / 1e9
		return strconv.FormatFloat(rounded, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var errBadExpr = errors.New("bad expression")

// exprParser is a recursive-descent evaluator over the allowed charset.
// Grammar: expr := term (('+'|'-') term)*
//          term := unary (('*'|'/'|'%') unary)*
//          unary := ('+'|'-') unary | number | '(' expr ')'
type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) parse() (float64, error) {
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return 0, errBadExpr
	}
	return v, nil
}

func (p *exprParser) expr() (float64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch p.peek() {
		case '+':
			p.pos++
			rhs, err := p.term()
			if err != nil {
				return 0, err
			}
			v += rhs
		case '-':
			p.pos++
			rhs, err := p.term()
			if err != nil {
				return 0, err
			}
			v -= rhs
		default:
			return v, nil
		}
	}
}

func (p *exprParser) term() (float64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch p.peek() {
		case '*':
			p.pos++
			rhs, err := p.unary()
			if err != nil {
				return 0, err
			}
			v *= rhs
		case '/':
			p.pos++
			rhs, err := p.unary()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, errBadExpr
			}
			v /= rhs
		case '%':
			p.pos++
			rhs, err := p.unary()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, errBadExpr
			}
			v = math.Mod(v, rhs)
		default:
			return v, nil
		}
	}
}

func (p *exprParser) unary() (float64, error) {
	p.skipSpaces()
	switch p.peek() {
	case '+':
		p.pos++
		return p.unary()
	case '-':
		p.pos++
		v, err := p.unary()
		return -v, err
	case '(':
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if p.peek() != ')' {
			return 0, errBadExpr
		}
		p.pos++
		return v, nil
	default:
		return p.number()
	}
}

func (p *exprParser) number() (float64, error) {
	start := p.pos
	seenDot := false
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return 0, errBadExpr
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, errBadExpr
	}
	return v, nil
}

func (p *exprParser) peek() byte {
	if p.pos < len(p.input) {
		return p.input[p.pos]
	}
	return 0
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}
