package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"mosaic/internal/llm"
)

// Calculator evaluates arithmetic expressions with +, -, *, /, %
// and parentheses.
type Calculator struct{}

func (c *Calculator) Name() string { return "calculator" }

func (c *Calculator) Description() string {
	return "Evaluate an arithmetic expression"
}

func (c *Calculator) Schema() llm.ParameterSchema {
	return llm.ParameterSchema{
		Type: "object",
		Properties: map[string]llm.Property{
			"expression": {
				Type:        "string",
				Description: "Arithmetic expression, e.g. (2 + 3) * 4.5",
			},
		},
		Required: []string{"expression"},
	}
}

func (c *Calculator) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Expression string `json:"expression"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing calculator input: %w", err)
	}

	p := &exprParser{src: args.Expression}
	result, err := p.parseExpr()
	if err != nil {
		return "", err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return "", fmt.Errorf("unexpected %q at position %d", p.src[p.pos], p.pos)
	}

	return strconv.FormatFloat(result, 'f', -1, 64), nil
}

// exprParser is a small recursive-descent parser: expr handles +/-,
// term handles *, / and %, factor handles numbers, unary minus and
// parentheses.
type exprParser struct {
	src string
	pos int
}

func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return left, nil
		}
		op := p.src[p.pos]
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
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

func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return left, nil
		}
		op := p.src[p.pos]
		if op != '*' && op != '/' && op != '%' {
			return left, nil
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		switch op {
		case '*':
			left *= right
		case '/':
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case '%':
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left = float64(int64(left) % int64(right))
		}
	}
}

func (p *exprParser) parseFactor() (float64, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0, fmt.Errorf("unexpected end of expression")
	}

	if p.src[p.pos] == '-' {
		p.pos++
		v, err := p.parseFactor()
		return -v, err
	}

	if p.src[p.pos] == '(' {
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	}

	start := p.pos
	for p.pos < len(p.src) && (isDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("unexpected %q at position %d", p.src[p.pos], p.pos)
	}
	return strconv.ParseFloat(p.src[start:p.pos], 64)
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && strings.ContainsRune(" \t", rune(p.src[p.pos])) {
		p.pos++
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
