// Package calc evaluates arithmetic expressions over a restricted grammar:
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = { "+" | "-" } factor
//	factor = number | "(" expr ")"
//	number = digits [ "." digits ] | "." digits
//
// Nothing else is accepted: no identifiers, no function calls, no exponent notation.
package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrEmpty          = errors.New("empty expression")
	ErrDivisionByZero = errors.New("division by zero")
)

// SyntaxError reports the byte offset of the offending input.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

// maxDepth bounds parenthesis and unary nesting.
const maxDepth = 256

type parser struct {
	src   string
	pos   int
	depth int
}

// Eval parses and evaluates expr.
func Eval(expr string) (float64, error) {
	if strings.TrimSpace(expr) == "" {
		return 0, ErrEmpty
	}
	p := &parser{src: expr}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		if p.src[p.pos] == ')' {
			return 0, &SyntaxError{Pos: p.pos, Msg: "unbalanced ')'"}
		}
		return 0, &SyntaxError{Pos: p.pos, Msg: fmt.Sprintf("unexpected %q", p.src[p.pos])}
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errors.New("result is not a finite number")
	}
	return v, nil
}

// Format renders v the way a person would write it: integers without a
// fractional part, everything else in the shortest exact form.
func Format(v float64) string {
	if v == 0 {
		// -0 compares equal to 0; print it as 0.
		v = 0
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			left *= right
			continue
		}
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		left /= right
	}
}

func (p *parser) unary() (float64, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return 0, &SyntaxError{Pos: p.pos, Msg: "expression nested too deeply"}
	}
	switch p.peek() {
	case '+':
		p.pos++
		return p.unary()
	case '-':
		p.pos++
		v, err := p.unary()
		return -v, err
	}
	return p.factor()
}

func (p *parser) factor() (float64, error) {
	c := p.peek()
	switch {
	case c == 0:
		return 0, &SyntaxError{Pos: p.pos, Msg: "unexpected end of expression"}
	case c == '(':
		open := p.pos
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, &SyntaxError{Pos: open, Msg: "unbalanced '('"}
		}
		p.pos++
		return v, nil
	case isDigit(c) || c == '.':
		return p.number()
	}
	return 0, &SyntaxError{Pos: p.pos, Msg: fmt.Sprintf("unexpected %q", c)}
}

func (p *parser) number() (float64, error) {
	start := p.pos
	digits := 0
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
		digits++
	}
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		frac := 0
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
			frac++
		}
		if frac == 0 {
			return 0, &SyntaxError{Pos: start, Msg: "malformed number"}
		}
		digits += frac
	}
	if digits == 0 {
		return 0, &SyntaxError{Pos: start, Msg: "malformed number"}
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, &SyntaxError{Pos: start, Msg: "malformed number"}
	}
	return v, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
