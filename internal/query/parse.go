package query

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// The query language is deliberately tiny: a program is a sequence of
// statements (newline or semicolon separated), each statement a single
// function call. Arguments are bare identifiers (column names), numbers
// or quoted strings. There are no operators, no variables and no nesting.

type argKind int

const (
	argIdent argKind = iota
	argNumber
	argString
)

type arg struct {
	kind  argKind
	ident string
	num   float64
	str   string
}

// text returns the argument as a column-name string, for functions that
// accept either a bare identifier or a quoted name.
func (a arg) text() (string, bool) {
	switch a.kind {
	case argIdent:
		return a.ident, true
	case argString:
		return a.str, true
	default:
		return "", false
	}
}

func (a arg) number() (float64, bool) {
	if a.kind != argNumber {
		return 0, false
	}
	return a.num, true
}

type call struct {
	name string
	args []arg
}

// parseProgram splits the source into statements and parses each one.
// Blank lines and comment lines ('#') are skipped.
func parseProgram(src string) ([]call, error) {
	var calls []call
	for _, line := range strings.FieldsFunc(src, func(r rune) bool { return r == '\n' || r == ';' }) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c, err := parseCall(line)
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, nil
}

type parser struct {
	src []rune
	pos int
}

func parseCall(s string) (call, error) {
	p := &parser{src: []rune(s)}
	name, ok := p.ident()
	if !ok {
		return call{}, fmt.Errorf("expected a function call, got %q", s)
	}
	if !p.consume('(') {
		return call{}, fmt.Errorf("expected '(' after %q", name)
	}

	c := call{name: name}
	p.skipSpace()
	if p.consume(')') {
		if err := p.end(); err != nil {
			return call{}, err
		}
		return c, nil
	}
	for {
		a, err := p.arg()
		if err != nil {
			return call{}, err
		}
		c.args = append(c.args, a)
		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume(')') {
			break
		}
		return call{}, fmt.Errorf("expected ',' or ')' in arguments of %q", name)
	}
	if err := p.end(); err != nil {
		return call{}, err
	}
	return c, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) consume(r rune) bool {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == r {
		p.pos++
		return true
	}
	return false
}

func (p *parser) end() error {
	p.skipSpace()
	if p.pos != len(p.src) {
		return fmt.Errorf("unexpected trailing input %q", string(p.src[p.pos:]))
	}
	return nil
}

func (p *parser) ident() (string, bool) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		if unicode.IsLetter(r) || r == '_' || (p.pos > start && unicode.IsDigit(r)) {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return "", false
	}
	return string(p.src[start:p.pos]), true
}

func (p *parser) arg() (arg, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return arg{}, fmt.Errorf("unexpected end of input")
	}
	r := p.src[p.pos]
	switch {
	case r == '\'' || r == '"':
		return p.stringArg(r)
	case unicode.IsDigit(r) || r == '-' || r == '.':
		return p.numberArg()
	default:
		name, ok := p.ident()
		if !ok {
			return arg{}, fmt.Errorf("unexpected character %q", string(r))
		}
		return arg{kind: argIdent, ident: name}, nil
	}
}

func (p *parser) stringArg(quote rune) (arg, error) {
	p.pos++ // opening quote
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != quote {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return arg{}, fmt.Errorf("unterminated string")
	}
	s := string(p.src[start:p.pos])
	p.pos++ // closing quote
	return arg{kind: argString, str: s}, nil
}

func (p *parser) numberArg() (arg, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && (unicode.IsDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
		p.pos++
	}
	text := string(p.src[start:p.pos])
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return arg{}, fmt.Errorf("invalid number %q", text)
	}
	return arg{kind: argNumber, num: v}, nil
}
