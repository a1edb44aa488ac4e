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

// Package rules parses the s-expression syntax
// used to write instruction-selection rules.
//
//	comment    = < go comment syntax >
//	string     = < go double-quote syntax > | < go backtick syntax >
//	identifier = < go identifier >
//	rule       = [identifier ':'] value {',' value} '->' term
//	term       = (identifier ':' value) | identifier | value
//	value      = list | string
//	list       = '(' term {space+ term} ')'
//
// A matcher rule has one list on the left-hand
// side whose head is an IR op and whose remaining
// terms are the op's operands in order. An operand
// is either a nested list, a bare identifier that
// captures whatever node is there, or '_' for an
// operand that is neither constrained nor captured.
// A nested list may be captured with name:(...).
// The right-hand side names the generator and the
// captures passed to it:
//
//	// fold a single-use load into an add
//	addmem: (Add (Read addr) y) -> (addMem root addr y)
//
// This package only defines the syntax; meaning
// is assigned by the rule compiler.
package rules

import (
	"io"
	"strconv"
	"strings"
	"text/scanner"

	"golang.org/x/exp/slices"
)

// Wildcard is the identifier for an unconstrained
// and uncaptured term.
const Wildcard = "_"

// Rule is one parsed rule.
type Rule struct {
	// Name is the label before ':',
	// or the empty string if there is none.
	Name string
	// From holds the comma-separated values
	// on the left-hand side of '->'.
	From []Value
	// To is the right-hand side.
	To Term
	// Location is where the rule begins.
	Location scanner.Position
}

// String returns the canonical text of r.
func (r *Rule) String() string {
	var out strings.Builder
	if r.Name != "" {
		out.WriteString(r.Name)
		out.WriteString(": ")
	}
	for i := range r.From {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(r.From[i].String())
	}
	out.WriteString(" -> ")
	out.WriteString(r.To.String())
	return out.String()
}

// Equal reports whether r and o have the same
// name and terms. Locations are ignored.
func (r *Rule) Equal(o *Rule) bool {
	return r.Name == o.Name &&
		slices.EqualFunc(r.From, o.From, equal) &&
		r.To.Equal(&o.To)
}

// WriteTo writes lst to dst, one rule per line.
func WriteTo(dst io.Writer, lst []Rule) (int64, error) {
	var out strings.Builder
	for i := range lst {
		out.WriteString(lst[i].String())
		out.WriteByte('\n')
	}
	n, err := io.WriteString(dst, out.String())
	return int64(n), err
}

// Term is one element of a rule: an identifier,
// a value, or a value labeled with an identifier.
type Term struct {
	// Name is the identifier of the term;
	// it is empty for an unlabeled value.
	Name string
	// Value is nil for a bare identifier.
	Value Value
	// Location is where the term begins.
	Location scanner.Position
}

// IsWildcard reports whether t is '_'
// (or an empty term).
func (t *Term) IsWildcard() bool {
	return t.Value == nil && (t.Name == "" || t.Name == Wildcard)
}

// IsCapture reports whether t is a bare
// identifier other than '_'.
func (t *Term) IsCapture() bool {
	return t.Value == nil && !t.IsWildcard()
}

// String returns the canonical text of t.
func (t *Term) String() string {
	switch {
	case t.IsWildcard():
		return Wildcard
	case t.Value == nil:
		return t.Name
	case t.Name == "":
		return t.Value.String()
	}
	return t.Name + ":" + t.Value.String()
}

// Equal reports whether t and o have the same
// name and value. Locations are ignored.
func (t *Term) Equal(o *Term) bool {
	return t.Name == o.Name && equal(t.Value, o.Value)
}

// Value is a List or a String.
type Value interface {
	String() string
}

// List is a parenthesized list of terms.
type List []Term

// Head returns the identifier in the head
// position of l, or the empty string if l
// is empty or starts with a value.
func (l List) Head() string {
	if len(l) == 0 || l[0].Value != nil {
		return ""
	}
	return l[0].Name
}

// Tail returns the terms after the head.
func (l List) Tail() []Term {
	if len(l) == 0 {
		return nil
	}
	return l[1:]
}

func (l List) String() string {
	var out strings.Builder
	out.WriteByte('(')
	for i := range l {
		if i > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(l[i].String())
	}
	out.WriteByte(')')
	return out.String()
}

// String is a string literal. Its String
// method returns the quoted form; convert
// to a plain string for the contents.
type String string

func (s String) String() string { return strconv.Quote(string(s)) }

func equal(x, y Value) bool {
	xl, ok := x.(List)
	if !ok {
		// nil or String
		return x == y
	}
	yl, ok := y.(List)
	return ok && slices.EqualFunc(xl, yl, func(a, b Term) bool {
		return a.Equal(&b)
	})
}
