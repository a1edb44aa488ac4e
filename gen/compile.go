// Copyright (C) 2023 Sneller, Inc.
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

// Package gen compiles matcher rules written in
// the rules syntax into match.Statement tables.
//
// A rule has the form
//
//	name: (Op child...) -> (generator arg...)
//
// where each child is either a nested pattern,
// optionally captured as name:(Op ...), a bare
// identifier that captures any node, or _.
// The arguments name captured nodes or root.
package gen

import (
	"fmt"
	"strings"
	"text/scanner"

	"github.com/dchest/siphash"
	"golang.org/x/exp/slices"

	"github.com/SnellerInc/isel/ir"
	"github.com/SnellerInc/isel/match"
	"github.com/SnellerInc/isel/rules"
)

// Pattern is a compiled pattern tree.
type Pattern struct {
	// Op is the required op, or ir.OpInvalid
	// if the pattern matches any node.
	Op       ir.Op
	Name     string
	Children []*Pattern
}

// String returns p in rule syntax; it
// agrees with match.Pattern.String.
func (p *Pattern) String() string {
	var out strings.Builder
	p.write(&out)
	return out.String()
}

func (p *Pattern) write(out *strings.Builder) {
	if p.Op == ir.OpInvalid {
		if p.Name == "" {
			out.WriteString("_")
		} else {
			out.WriteString(p.Name)
		}
		return
	}
	if p.Name != "" {
		out.WriteString(p.Name)
		out.WriteString(":")
	}
	out.WriteString("(")
	out.WriteString(p.Op.String())
	for _, c := range p.Children {
		out.WriteString(" ")
		c.write(out)
	}
	out.WriteString(")")
}

func (p *Pattern) clone() *Pattern {
	c := &Pattern{Op: p.Op, Name: p.Name}
	if len(p.Children) > 0 {
		c.Children = make([]*Pattern, len(p.Children))
		for i := range p.Children {
			c.Children[i] = p.Children[i].clone()
		}
	}
	return c
}

// kinded returns whether p constrains the op
// of the node it is matched against
func (p *Pattern) kinded() bool { return p.Op != ir.OpInvalid }

func (p *Pattern) names(dst []string) []string {
	if p.Name != "" && !slices.Contains(dst, p.Name) {
		dst = append(dst, p.Name)
	}
	for _, c := range p.Children {
		dst = c.names(dst)
	}
	return dst
}

// Build constructs the equivalent match.Pattern.
func (p *Pattern) Build() *match.Pattern {
	if p.Op == ir.OpInvalid {
		if p.Name == "" {
			return match.Any()
		}
		return match.Capture(p.Name)
	}
	children := make([]*match.Pattern, len(p.Children))
	for i := range p.Children {
		children[i] = p.Children[i].Build()
	}
	return match.NewPattern(p.Op, p.Name, children...)
}

// Statement is a compiled rule.
type Statement struct {
	// Name is the rule name; commutative
	// variants carry a /N suffix.
	Name    string
	Pattern *Pattern
	// Func is the name of the generator function.
	Func string
	// Args are the argument names for Func.
	Args []string
	// Location is the position of the rule
	// in its source file.
	Location scanner.Position
}

func (s *Statement) String() string {
	return fmt.Sprintf("%s: %s", s.Name, s.Pattern)
}

// Build constructs a match.Statement for s
// that invokes g.
func (s *Statement) Build(g match.Generator) *match.Statement {
	return match.NewStatement(s.Name, s.Pattern.Build(), g, s.Args...)
}

// Error is a compilation error
// at a position in a rules file.
type Error struct {
	Pos scanner.Position
	Msg string
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return e.Msg
}

func errorf(pos *scanner.Position, f string, args ...any) error {
	return &Error{Pos: *pos, Msg: fmt.Sprintf(f, args...)}
}

// Compile compiles a list of rules into statements,
// in rule order. Each rule whose root pattern (or any
// nested pattern) is commutative is expanded into every
// distinct operand order in which one of the swapped
// children requires an op.
func Compile(lst []rules.Rule) ([]Statement, error) {
	var out []Statement
	seen := make(map[string]scanner.Position)
	for i := range lst {
		r := &lst[i]
		st, err := compile(r)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[st.Name]; ok {
			return nil, errorf(&r.Location, "rule %s already defined at %s", st.Name, prev)
		}
		seen[st.Name] = r.Location
		out = append(out, variants(st)...)
	}
	return out, nil
}

func compile(r *rules.Rule) (Statement, error) {
	if r.Name == "" {
		return Statement{}, errorf(&r.Location, "rule %s has no name", r)
	}
	if len(r.From) != 1 {
		return Statement{}, errorf(&r.Location, "rule %s: predicates are not supported; decline in the generator instead", r.Name)
	}
	lst, ok := r.From[0].(rules.List)
	if !ok {
		return Statement{}, errorf(&r.Location, "rule %s: expected a list pattern", r.Name)
	}
	root, err := pattern(&rules.Term{Value: lst, Location: r.Location})
	if err != nil {
		return Statement{}, err
	}
	if root.Name != "" {
		return Statement{}, errorf(&r.Location, "rule %s: the root pattern is named %s by the root argument", r.Name, match.Root)
	}
	fn, args, err := generator(r, root)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		Name:     r.Name,
		Pattern:  root,
		Func:     fn,
		Args:     args,
		Location: r.Location,
	}, nil
}

func pattern(t *rules.Term) (*Pattern, error) {
	switch {
	case t.IsWildcard():
		return &Pattern{}, nil
	case t.IsCapture():
		if t.Name == match.Root {
			return nil, errorf(&t.Location, "%s cannot be captured", match.Root)
		}
		return &Pattern{Name: t.Name}, nil
	}
	lst, ok := t.Value.(rules.List)
	if !ok {
		return nil, errorf(&t.Location, "unexpected literal %s in pattern", t.Value)
	}
	if t.Name == rules.Wildcard || t.Name == match.Root {
		return nil, errorf(&t.Location, "%s cannot name a pattern", t.Name)
	}
	head := lst.Head()
	if head == "" {
		return nil, errorf(&t.Location, "pattern %s needs an op in head position", lst)
	}
	op, ok := ir.OpByName(head)
	if !ok {
		return nil, errorf(&lst[0].Location, "op %s doesn't exist", head)
	}
	args := lst.Tail()
	if len(args) > op.Arity() {
		return nil, errorf(&lst[0].Location, "op %s has %d matchable operand(s); got %d", op, op.Arity(), len(args))
	}
	p := &Pattern{Op: op, Name: t.Name}
	for i := range args {
		c, err := pattern(&args[i])
		if err != nil {
			return nil, err
		}
		p.Children = append(p.Children, c)
	}
	return p, nil
}

func generator(r *rules.Rule, root *Pattern) (string, []string, error) {
	lst, ok := r.To.Value.(rules.List)
	if !ok || r.To.Name != "" {
		return "", nil, errorf(&r.To.Location, "rule %s: expected (generator arg...) on the right-hand side", r.Name)
	}
	fn := lst.Head()
	if fn == "" {
		return "", nil, errorf(&r.To.Location, "rule %s: expected a generator function name", r.Name)
	}
	names := root.names(nil)
	var args []string
	tail := lst.Tail()
	for i := range tail {
		a := &tail[i]
		if !a.IsCapture() {
			return "", nil, errorf(&a.Location, "rule %s: generator arguments must be capture names", r.Name)
		}
		if a.Name != match.Root && !slices.Contains(names, a.Name) {
			return "", nil, errorf(&a.Location, "rule %s: %s is not captured by %s", r.Name, a.Name, root)
		}
		args = append(args, a.Name)
	}
	return fn, args, nil
}

// variants returns st followed by its distinct
// commutative variants
func variants(st Statement) []Statement {
	pats := expand(st.Pattern)
	seen := make(map[[16]byte]struct{}, len(pats))
	out := make([]Statement, 0, len(pats))
	for _, p := range pats {
		k := key(p)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		v := st
		v.Pattern = p
		if len(out) > 0 {
			v.Name = fmt.Sprintf("%s/%d", st.Name, len(out))
		}
		v.Args = slices.Clone(st.Args)
		out = append(out, v)
	}
	return out
}

// key returns the dedupe key for a pattern
func key(p *Pattern) [16]byte {
	var k [16]byte
	lo, hi := siphash.Hash128(0, 0, []byte(p.String()))
	for i := 0; i < 8; i++ {
		k[i] = byte(lo >> (8 * i))
		k[8+i] = byte(hi >> (8 * i))
	}
	return k
}

// expand returns every operand ordering of p;
// the first entry is p itself
func expand(p *Pattern) []*Pattern {
	if len(p.Children) == 0 {
		return []*Pattern{p}
	}
	// expand the children first, then
	// take the cross product
	perchild := make([][]*Pattern, len(p.Children))
	for i, c := range p.Children {
		perchild[i] = expand(c)
	}
	var out []*Pattern
	var walk func(i int, cur []*Pattern)
	walk = func(i int, cur []*Pattern) {
		if i == len(perchild) {
			out = append(out, &Pattern{Op: p.Op, Name: p.Name, Children: append([]*Pattern(nil), cur...)})
			return
		}
		for _, c := range perchild[i] {
			walk(i+1, append(cur, c))
		}
	}
	walk(0, nil)
	if !p.Op.Commutative() || !slices.ContainsFunc(p.Children, (*Pattern).kinded) {
		return out
	}
	n := len(out)
	for _, q := range out[:n] {
		sw := q.clone()
		if len(sw.Children) == 1 {
			sw.Children = append(sw.Children, &Pattern{})
		}
		sw.Children[0], sw.Children[1] = sw.Children[1], sw.Children[0]
		out = append(out, sw)
	}
	return out
}
