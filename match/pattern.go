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

package match

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/SnellerInc/isel/ir"
)

// Pattern is an immutable tree pattern.
//
// A Pattern with an op matches only nodes with
// exactly that op; a Pattern without one matches
// any node. Patterns are pure values: all of the
// state of a match attempt lives in a Context,
// so one Pattern can be tried against any number
// of roots concurrently.
type Pattern struct {
	op   ir.Op
	name string

	first, second *Pattern

	// single is set if the matched node
	// must be consumed by the match
	single  bool
	adapter *ir.Adapter
}

// NewPattern returns a pattern matching nodes of op,
// optionally capturing the node under name, and matching
// each of the children against the corresponding matchable
// operand of the node. Fewer children than the arity of op
// leave the trailing operands unconstrained.
//
// Unless op is cloneable, a matched non-root node is
// consumed by the match.
func NewPattern(op ir.Op, name string, children ...*Pattern) *Pattern {
	if !op.Valid() {
		panic(fmt.Sprintf("match.NewPattern: invalid op %s", op))
	}
	if len(children) > op.Arity() {
		panic(fmt.Sprintf("match.NewPattern: %s has %d matchable operand(s); got %d patterns", op, op.Arity(), len(children)))
	}
	for _, c := range children {
		if c == nil {
			panic("match.NewPattern: nil child pattern")
		}
	}
	p := &Pattern{
		op:     op,
		name:   name,
		single: !op.Cloneable(),
	}
	if len(children) > 0 {
		p.adapter = op.Adapter()
		p.first = children[0]
		if len(children) > 1 {
			p.second = children[1]
		}
	}
	return p
}

// Capture returns a pattern that matches
// any node and binds it to name. The node
// is an input of the match, not part of it,
// so it is never consumed.
func Capture(name string) *Pattern {
	if name == "" {
		panic("match.Capture: empty name")
	}
	return &Pattern{name: name}
}

// Any returns a pattern that matches any node.
func Any() *Pattern { return &Pattern{} }

// Op returns the op the pattern requires,
// or ir.OpInvalid if it matches any node.
func (p *Pattern) Op() ir.Op { return p.op }

// Name returns the capture name of p, if any.
func (p *Pattern) Name() string { return p.name }

// Single returns whether a node matched by
// p must be consumed when p is not the root.
func (p *Pattern) Single() bool { return p.single }

// Children returns the child patterns of p.
func (p *Pattern) Children() []*Pattern {
	switch {
	case p.second != nil:
		return []*Pattern{p.first, p.second}
	case p.first != nil:
		return []*Pattern{p.first}
	}
	return nil
}

// Match matches p rooted at n, recording
// captures and consumed nodes in ctx.
// The first failure is returned as-is;
// ctx is not rolled back, so the caller
// must discard ctx if Match fails.
func (p *Pattern) Match(n *ir.Node, ctx *Context) Result {
	return p.match(n, ctx, true)
}

func (p *Pattern) match(n *ir.Node, ctx *Context, root bool) Result {
	if p.op != ir.OpInvalid && n.Op != p.op {
		return fail(WrongKind, n, p)
	}
	if p.single && !root {
		if r := ctx.Consume(n); !r.OK() {
			r.Pattern = p
			return r
		}
	}
	if p.name != "" {
		if r := ctx.Capture(p.name, p.op, n); !r.OK() {
			r.Pattern = p
			return r
		}
	}
	if p.first != nil {
		if r := p.first.match(p.adapter.First(n), ctx, false); !r.OK() {
			return r
		}
		if p.second != nil {
			if r := p.second.match(p.adapter.Second(n), ctx, false); !r.OK() {
				return r
			}
		}
	}
	return Result{}
}

// Shape reports whether the ops of the
// tree rooted at n agree with p, without
// checking captures, consumers, or ordering.
func (p *Pattern) Shape(n *ir.Node) bool {
	if p.op != ir.OpInvalid && n.Op != p.op {
		return false
	}
	if p.first != nil {
		if !p.first.Shape(p.adapter.First(n)) {
			return false
		}
		if p.second != nil && !p.second.Shape(p.adapter.Second(n)) {
			return false
		}
	}
	return true
}

// Names returns the distinct capture names
// used in p, in pre-order.
func (p *Pattern) Names() []string {
	return p.names(nil)
}

func (p *Pattern) names(dst []string) []string {
	if p.name != "" && !slices.Contains(dst, p.name) {
		dst = append(dst, p.name)
	}
	for _, c := range p.Children() {
		dst = c.names(dst)
	}
	return dst
}

// String returns p in rule syntax,
// e.g. (Add r:(Read addr) k:(Const))
func (p *Pattern) String() string {
	var out strings.Builder
	p.write(&out)
	return out.String()
}

func (p *Pattern) write(out *strings.Builder) {
	if p.op == ir.OpInvalid {
		if p.name == "" {
			out.WriteString("_")
		} else {
			out.WriteString(p.name)
		}
		return
	}
	if p.name != "" {
		out.WriteString(p.name)
		out.WriteString(":")
	}
	out.WriteString("(")
	out.WriteString(p.op.String())
	for _, c := range p.Children() {
		out.WriteString(" ")
		c.write(out)
	}
	out.WriteString(")")
}
