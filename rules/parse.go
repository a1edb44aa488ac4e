// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package rules

import (
	"fmt"
	"io"
	"strconv"
	"text/scanner"
)

// Parse parses every rule in r. If r has a Name
// method (like *os.File), positions in errors and
// in the returned rules carry that file name.
func Parse(r io.Reader) ([]Rule, error) {
	p := &parser{}
	p.src.Init(r)
	if f, ok := r.(interface{ Name() string }); ok {
		p.src.Filename = f.Name()
	}
	p.src.Error = p.report
	var out []Rule
	for p.ok() && p.peek() != scanner.EOF {
		rule, ok := p.rule()
		if !ok {
			break
		}
		out = append(out, rule)
	}
	if p.errors > 1 {
		return nil, fmt.Errorf("%w (and %d more errors)", p.first, p.errors-1)
	}
	if p.errors == 1 {
		return nil, p.first
	}
	return out, nil
}

// parser is an LL(1) parser over a text/scanner
// token stream.
type parser struct {
	src    scanner.Scanner
	tok    rune // lookahead token
	valid  bool // tok holds a token
	first  error
	errors int
}

func (p *parser) report(s *scanner.Scanner, msg string) {
	p.errors++
	if p.first == nil {
		p.first = fmt.Errorf("%s: %s", s.Position, msg)
	}
}

func (p *parser) errorf(f string, args ...any) {
	p.report(&p.src, fmt.Sprintf(f, args...))
}

func (p *parser) ok() bool { return p.errors == 0 }

func (p *parser) peek() rune {
	if !p.valid {
		p.tok = p.src.Scan()
		p.valid = true
	}
	return p.tok
}

func (p *parser) next() rune {
	r := p.peek()
	p.valid = false
	return r
}

// accept consumes the lookahead if it is r
func (p *parser) accept(r rune) bool {
	if p.peek() != r {
		return false
	}
	p.valid = false
	return true
}

// rule = [identifier ':'] value {',' value} '->' term
func (p *parser) rule() (Rule, bool) {
	var r Rule
	if p.peek() == scanner.Ident {
		p.next()
		r.Name = p.src.TokenText()
		if !p.accept(':') {
			p.errorf("expected ':' after rule name %s", r.Name)
			return r, false
		}
	}
	r.Location = p.src.Pos()
	for {
		v := p.value()
		if !p.ok() {
			return r, false
		}
		r.From = append(r.From, v)
		if !p.accept(',') {
			break
		}
	}
	if !p.accept('-') || !p.accept('>') {
		p.errorf("expected '->' after %s", r.From[len(r.From)-1])
		return r, false
	}
	r.To = p.term()
	return r, p.ok()
}

func literal(tok rune, text string) String {
	if tok == scanner.RawString {
		return String(text[1 : len(text)-1])
	}
	// the scanner has already checked the syntax
	s, err := strconv.Unquote(text)
	if err != nil {
		panic(err)
	}
	return String(s)
}

// value = list | string
func (p *parser) value() Value {
	switch tok := p.next(); tok {
	case '(':
		return p.list()
	case scanner.String, scanner.RawString:
		return literal(tok, p.src.TokenText())
	case scanner.EOF:
		p.errorf("unexpected end of input; expected a list or string")
	default:
		p.errorf("unexpected token %s; expected a list or string", p.src.TokenText())
	}
	return nil
}

// list = '(' term {space+ term} ')', after the '('
func (p *parser) list() List {
	var out List
	for p.ok() && !p.accept(')') {
		if p.peek() == scanner.EOF {
			p.errorf("unterminated list %s", out)
			break
		}
		out = append(out, p.term())
	}
	return out
}

// term = (identifier ':' value) | identifier | value
func (p *parser) term() Term {
	tok := p.next()
	pos := p.src.Pos()
	switch tok {
	case '(':
		return Term{Value: p.list(), Location: pos}
	case scanner.String, scanner.RawString:
		return Term{Value: literal(tok, p.src.TokenText()), Location: pos}
	case scanner.Ident:
		t := Term{Name: p.src.TokenText(), Location: pos}
		if p.accept(':') {
			t.Value = p.value()
		}
		return t
	case scanner.EOF:
		p.errorf("unexpected end of input; expected a term")
	default:
		p.errorf("unexpected token %s; expected a term", p.src.TokenText())
	}
	return Term{}
}
