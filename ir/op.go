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

// Package ir defines the graph IR consumed by the
// instruction selector.
//
// Nodes are values in a data-dependence DAG; each
// node is also scheduled into exactly one Block,
// whose node list is the linear order in which the
// block's operations take effect.
package ir

import (
	"fmt"
)

// Op is the operation of a Node.
// The set of ops is closed; every op carries a
// fixed entry in the op table that describes its
// matchable operands and reordering properties.
type Op uint8

const (
	OpInvalid Op = iota
	OpParam      // v = Param <index>
	OpConst      // v = Const <int>
	OpVirtual    // v = Virtual (virtual object marker)
	OpAddr       // v = Addr base index <scale>
	OpAdd        // v = Add x y
	OpSub        // v = Sub x y
	OpMul        // v = Mul x y
	OpAnd        // v = And x y
	OpOr         // v = Or x y
	OpXor        // v = Xor x y
	OpShl        // v = Shl x count
	OpNeg        // v = Neg x
	OpNot        // v = Not x
	OpZext       // v = Zext x
	OpSext       // v = Sext x
	OpCmp        // v = Cmp <cond> x y
	OpRead       // v = Read addr
	OpWrite      // Write addr v
	OpCall       // v = Call <sym> args...
	OpIf         // If cond <then> <else>
	OpJump       // Jump <target>
	OpReturn     // Return [v]

	_opmax
)

// immfmt describes the textual form of Node.Imm (and Node.Sym)
type immfmt uint8

const (
	immnone    immfmt = iota
	immint            // trailing integer
	immcond           // leading condition name
	immsym            // leading symbol
	immtargets        // trailing block labels
)

type opinfo struct {
	text string
	// argc is the number of arguments;
	// -1 means variadic
	argc int
	// adapter describes the matchable operands;
	// arity is zero for ops that patterns cannot descend into
	adapter Adapter

	commutative bool
	// cloneable ops may be folded into any number
	// of matches without being consumed
	cloneable bool
	// reorderSafe ops have no ordering constraints
	// relative to other ops in a block
	reorderSafe bool
	// effect is set for ops with observable side-effects
	effect bool
	// novalue is set for ops that do not define a value
	novalue bool

	imm immfmt
}

var unary = Adapter{arity: 1, first: 0}
var binary = Adapter{arity: 2, first: 0, second: 1}

var opinfos = [_opmax]opinfo{
	OpInvalid: {text: "invalid"},
	OpParam:   {text: "Param", reorderSafe: true, imm: immint},
	OpConst:   {text: "Const", cloneable: true, reorderSafe: true, imm: immint},
	OpVirtual: {text: "Virtual", reorderSafe: true},
	OpAddr:    {text: "Addr", argc: 2, adapter: binary, reorderSafe: true, imm: immint},
	OpAdd:     {text: "Add", argc: 2, adapter: binary, commutative: true},
	OpSub:     {text: "Sub", argc: 2, adapter: binary},
	OpMul:     {text: "Mul", argc: 2, adapter: binary, commutative: true},
	OpAnd:     {text: "And", argc: 2, adapter: binary, commutative: true},
	OpOr:      {text: "Or", argc: 2, adapter: binary, commutative: true},
	OpXor:     {text: "Xor", argc: 2, adapter: binary, commutative: true},
	OpShl:     {text: "Shl", argc: 2, adapter: binary},
	OpNeg:     {text: "Neg", argc: 1, adapter: unary},
	OpNot:     {text: "Not", argc: 1, adapter: unary},
	OpZext:    {text: "Zext", argc: 1, adapter: unary},
	OpSext:    {text: "Sext", argc: 1, adapter: unary},
	OpCmp:     {text: "Cmp", argc: 2, adapter: binary, imm: immcond},
	OpRead:    {text: "Read", argc: 1, adapter: unary, effect: true},
	OpWrite:   {text: "Write", argc: 2, adapter: binary, effect: true, novalue: true},
	OpCall:    {text: "Call", argc: -1, effect: true, imm: immsym},
	OpIf:      {text: "If", argc: 1, adapter: unary, effect: true, novalue: true, imm: immtargets},
	OpJump:    {text: "Jump", effect: true, novalue: true, imm: immtargets},
	OpReturn:  {text: "Return", argc: -1, adapter: unary, effect: true, novalue: true},
}

var name2op map[string]Op

func init() {
	name2op = make(map[string]Op, _opmax)
	for i := OpParam; i < _opmax; i++ {
		name2op[opinfos[i].text] = i
		opinfos[i].adapter.op = i
	}
}

// OpByName returns the Op with the given textual name.
func OpByName(name string) (Op, bool) {
	op, ok := name2op[name]
	return op, ok
}

func (o Op) String() string {
	if o >= _opmax {
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
	return opinfos[o].text
}

// Valid returns whether o is a real op.
func (o Op) Valid() bool { return o > OpInvalid && o < _opmax }

// Commutative returns whether the two matchable
// operands of o may be swapped.
func (o Op) Commutative() bool { return opinfos[o].commutative }

// Cloneable returns whether a node with op o can be
// shared by several matches without being consumed.
func (o Op) Cloneable() bool { return opinfos[o].cloneable }

// ReorderSafe returns whether a node with op o may
// sit anywhere inside a matched span of a block.
func (o Op) ReorderSafe() bool { return opinfos[o].reorderSafe }

// HasEffect returns whether o has observable side-effects.
func (o Op) HasEffect() bool { return opinfos[o].effect }

// HasValue returns whether o defines a value.
func (o Op) HasValue() bool { return !opinfos[o].novalue }

// Arity returns the number of matchable operands of o.
func (o Op) Arity() int { return opinfos[o].adapter.arity }

// Adapter returns the operand adapter for o,
// or nil if o has no matchable operands.
func (o Op) Adapter() *Adapter {
	if opinfos[o].adapter.arity == 0 {
		return nil
	}
	return &opinfos[o].adapter
}

// Adapter exposes the matchable operands of nodes of one op.
type Adapter struct {
	op            Op
	arity         int
	first, second int // indices into Node.Args
}

// Arity returns the number of matchable operands.
func (a *Adapter) Arity() int { return a.arity }

// First returns the first matchable operand of n.
func (a *Adapter) First(n *Node) *Node { return a.operand(n, 0, a.first) }

// Second returns the second matchable operand of n.
// It panics if the adapter is unary.
func (a *Adapter) Second(n *Node) *Node { return a.operand(n, 1, a.second) }

// Operand returns matchable operand i of n.
func (a *Adapter) Operand(n *Node, i int) *Node {
	switch i {
	case 0:
		return a.First(n)
	case 1:
		return a.Second(n)
	}
	panic(fmt.Sprintf("ir.Adapter: operand %d requested from %s", i, a.op))
}

func (a *Adapter) operand(n *Node, i, pos int) *Node {
	if i >= a.arity {
		panic(fmt.Sprintf("ir.Adapter: %s has %d matchable operand(s); operand %d requested", a.op, a.arity, i))
	}
	if n.Op != a.op {
		panic(fmt.Sprintf("ir.Adapter: %s adapter applied to %s", a.op, n))
	}
	if pos >= len(n.Args) {
		panic(fmt.Sprintf("ir.Adapter: %s has no operand %d", n, i))
	}
	return n.Args[pos]
}

// Cond is a comparison condition (the Imm of a Cmp node).
type Cond int64

const (
	CondEq Cond = iota
	CondNe
	CondLt
	CondLe
	CondGt
	CondGe
)

var condnames = []string{"eq", "ne", "lt", "le", "gt", "ge"}

func (c Cond) String() string {
	if c >= 0 && int(c) < len(condnames) {
		return condnames[c]
	}
	return fmt.Sprintf("cond(%d)", int64(c))
}

func condByName(s string) (Cond, bool) {
	for i := range condnames {
		if condnames[i] == s {
			return Cond(i), true
		}
	}
	return 0, false
}
