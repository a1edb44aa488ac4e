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

package lower

import (
	"fmt"

	"github.com/SnellerInc/isel/ir"
	"github.com/SnellerInc/isel/match"
)

// Gen is the code generator for one function.
//
// During the match phase a Gen is only read;
// matches are recorded by the Matcher of each
// block. During the emission phase the Gen
// assigns operands and appends instructions
// to the block being emitted.
type Gen struct {
	fn       *ir.Func
	results  map[*ir.Node]*match.Complex
	operands map[*ir.Node]Operand
	regs     int
	out      []*Block
	cur      *Block
}

func newGen(fn *ir.Func) *Gen {
	return &Gen{
		fn:       fn,
		results:  make(map[*ir.Node]*match.Complex),
		operands: make(map[*ir.Node]Operand, fn.NumNodes()),
	}
}

// Func returns the function being compiled.
func (g *Gen) Func() *ir.Func { return g.fn }

// NewReg allocates a fresh virtual register.
func (g *Gen) NewReg() Reg {
	r := Reg(g.regs)
	g.regs++
	return r
}

// Emit appends an instruction to the current block.
func (g *Gen) Emit(mnemonic string, args ...Operand) {
	if g.cur == nil {
		panic("lower.Gen: Emit outside of a block")
	}
	g.cur.Insts = append(g.cur.Insts, Inst{Mnemonic: mnemonic, Args: args})
}

// Define sets the operand holding the value of n.
func (g *Gen) Define(n *ir.Node, op Operand) {
	if _, ok := g.operands[n]; ok {
		panic(fmt.Sprintf("lower.Gen: %s defined twice", n))
	}
	g.operands[n] = op
}

// Value returns the operand holding the value of n.
// It panics if n has not been lowered yet.
func (g *Gen) Value(n *ir.Node) Operand {
	op, ok := g.operands[n]
	if !ok {
		panic(fmt.Sprintf("lower.Gen: no operand for %s", n))
	}
	return op
}

// Reg returns a register holding the value of n.
// A value that is not already in a register
// (an immediate or a label) is moved into a
// fresh one at the current position.
func (g *Gen) Reg(n *ir.Node) Reg {
	op := g.Value(n)
	if r, ok := op.(Reg); ok {
		return r
	}
	r := g.NewReg()
	g.Emit("mov", r, op)
	return r
}

var _ match.Target = (*Gen)(nil)

// HasOperand implements match.Target.
// It returns whether n has been lowered
// or has a match result.
func (g *Gen) HasOperand(n *ir.Node) bool {
	if _, ok := g.operands[n]; ok {
		return true
	}
	_, ok := g.results[n]
	return ok
}

// SetMatchResult implements match.Target.
// Matching directly against a Gen is only
// valid outside of Compile.
func (g *Gen) SetMatchResult(n *ir.Node, c *match.Complex) {
	if _, ok := g.results[n]; ok {
		panic(fmt.Sprintf("lower.Gen: %s matched twice", n))
	}
	g.results[n] = c
}

// Result returns the match result recorded for n, if any.
func (g *Gen) Result(n *ir.Node) *match.Complex { return g.results[n] }

// Label returns the label of the named block.
func (g *Gen) Label(block string) Label { return Label(block) }

func (g *Gen) begin(b *ir.Block) {
	g.cur = &Block{Name: b.Name}
	g.out = append(g.out, g.cur)
}

// Matcher is the match.Target for one block
// during the match phase. Matchers of different
// blocks are independent and may run concurrently.
type Matcher struct {
	gen     *Gen
	block   *ir.Block
	results map[*ir.Node]*match.Complex
	stats   Stats
}

var _ match.Target = (*Matcher)(nil)

func newMatcher(g *Gen, b *ir.Block) *Matcher {
	return &Matcher{
		gen:     g,
		block:   b,
		results: make(map[*ir.Node]*match.Complex),
		stats:   Stats{Nodes: len(b.Nodes)},
	}
}

// Gen returns the code generator that will
// emit the block.
func (m *Matcher) Gen() *Gen { return m.gen }

// HasOperand implements match.Target.
func (m *Matcher) HasOperand(n *ir.Node) bool {
	_, ok := m.results[n]
	return ok || m.gen.HasOperand(n)
}

// SetMatchResult implements match.Target.
func (m *Matcher) SetMatchResult(n *ir.Node, c *match.Complex) {
	if _, ok := m.results[n]; ok {
		panic(fmt.Sprintf("lower.Matcher: %s matched twice", n))
	}
	m.results[n] = c
}

// run tries rules at each node of the block, from
// the last to the first, skipping nodes that were
// already folded into a match; the first statement
// that commits wins
func (m *Matcher) run(rules match.Rules) {
	nodes := m.block.Nodes
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if _, ok := m.results[n]; ok {
			continue
		}
		for _, st := range rules[n.Op] {
			m.stats.Attempts++
			r := st.Attempt(m, n, m.block)
			if r.OK() {
				m.stats.Commits++
				break
			}
			m.stats.fail(r.Code)
		}
	}
}

// GenOf returns the code generator behind t.
// Generators use it to capture the Gen in the
// deferred emission of a match.
func GenOf(t match.Target) *Gen {
	switch t := t.(type) {
	case *Matcher:
		return t.gen
	case *Gen:
		return t
	}
	panic(fmt.Sprintf("lower.GenOf: unexpected target %T", t))
}
