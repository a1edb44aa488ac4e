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

package ir

import (
	"fmt"
	"strings"
)

// Node is one operation in the IR graph.
// Nodes are compared by identity.
type Node struct {
	ID   int
	Op   Op
	Args []*Node

	// Imm is the integer immediate of ops
	// that carry one (constant value, parameter
	// index, address scale, comparison condition)
	Imm int64
	// Sym is the callee of a Call
	Sym string
	// Targets are the successor labels
	// of If and Jump nodes
	Targets []string

	// Block is the block the node is
	// scheduled in, and Index is its position
	// within Block.Nodes
	Block *Block
	Index int

	uses int
}

// Uses returns the number of input edges
// that refer to n. A node that appears twice
// in the arguments of one consumer is counted twice.
func (n *Node) Uses() int { return n.uses }

// Name returns the textual name of n's value.
func (n *Node) Name() string { return fmt.Sprintf("v%d", n.ID) }

// String returns the textual form of n
// in the same syntax accepted by Parse.
func (n *Node) String() string {
	var out strings.Builder
	n.write(&out)
	return out.String()
}

func (n *Node) write(out *strings.Builder) {
	if n.Op.HasValue() {
		out.WriteString(n.Name())
		out.WriteString(" = ")
	}
	out.WriteString(n.Op.String())
	switch opinfos[n.Op].imm {
	case immcond:
		out.WriteString(" ")
		out.WriteString(Cond(n.Imm).String())
	case immsym:
		out.WriteString(" ")
		out.WriteString(n.Sym)
	}
	for _, arg := range n.Args {
		out.WriteString(" ")
		out.WriteString(arg.Name())
	}
	switch opinfos[n.Op].imm {
	case immint:
		fmt.Fprintf(out, " %d", n.Imm)
	case immtargets:
		for _, t := range n.Targets {
			out.WriteString(" ")
			out.WriteString(t)
		}
	}
}

// Block is a basic block. Nodes is the
// linear schedule of the block. A Block
// must not be modified once its function
// has been built.
type Block struct {
	Name  string
	Nodes []*Node
}

// IndexOf returns the position of n in b.Nodes,
// or -1 if n is scheduled in a different block.
func (b *Block) IndexOf(n *Node) int {
	if n.Block != b {
		return -1
	}
	return n.Index
}

// Func is a function: an ordered list of blocks.
// The first block is the entry block.
type Func struct {
	Name   string
	Blocks []*Block

	nodes int
}

// NumNodes returns the number of nodes in f.
func (f *Func) NumNodes() int { return f.nodes }

// Block returns the block with the given name, or nil.
func (f *Func) Block(name string) *Block {
	for _, b := range f.Blocks {
		if b.Name == name {
			return b
		}
	}
	return nil
}

func (f *Func) String() string {
	var out strings.Builder
	out.WriteString("func ")
	out.WriteString(f.Name)
	out.WriteString("\n")
	for _, b := range f.Blocks {
		out.WriteString(b.Name)
		out.WriteString(":\n")
		for _, n := range b.Nodes {
			out.WriteString("  ")
			n.write(&out)
			out.WriteString("\n")
		}
	}
	return out.String()
}

// Builder constructs a Func. Nodes are
// scheduled in the current block in the
// order in which they are created.
type Builder struct {
	fn  *Func
	cur *Block
}

// NewBuilder returns a Builder for a
// new function with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{fn: &Func{Name: name}}
}

// Block starts a new block and makes
// it the current insertion point.
func (b *Builder) Block(name string) *Block {
	blk := &Block{Name: name}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	b.cur = blk
	return blk
}

// Func returns the function being built.
func (b *Builder) Func() *Func { return b.fn }

// Node appends a new node to the current block.
func (b *Builder) Node(op Op, args ...*Node) *Node {
	if b.cur == nil {
		b.Block(fmt.Sprintf("b%d", len(b.fn.Blocks)))
	}
	if !op.Valid() {
		panic(fmt.Sprintf("ir.Builder: invalid op %s", op))
	}
	if argc := opinfos[op].argc; argc >= 0 && len(args) != argc {
		panic(fmt.Sprintf("ir.Builder: op %s takes %d arguments; got %d", op, argc, len(args)))
	}
	n := &Node{
		ID:    b.fn.nodes,
		Op:    op,
		Args:  args,
		Block: b.cur,
		Index: len(b.cur.Nodes),
	}
	b.fn.nodes++
	for _, arg := range args {
		arg.uses++
	}
	b.cur.Nodes = append(b.cur.Nodes, n)
	return n
}

// Imm appends a new node with an immediate.
func (b *Builder) Imm(op Op, imm int64, args ...*Node) *Node {
	n := b.Node(op, args...)
	n.Imm = imm
	return n
}

// Param appends a parameter reference.
func (b *Builder) Param(i int) *Node { return b.Imm(OpParam, int64(i)) }

// Const appends an integer constant.
func (b *Builder) Const(c int64) *Node { return b.Imm(OpConst, c) }

// Cmp appends a comparison.
func (b *Builder) Cmp(c Cond, x, y *Node) *Node { return b.Imm(OpCmp, int64(c), x, y) }

// Call appends a call to sym.
func (b *Builder) Call(sym string, args ...*Node) *Node {
	n := b.Node(OpCall, args...)
	n.Sym = sym
	return n
}

// If appends a conditional branch.
func (b *Builder) If(cond *Node, then, els string) *Node {
	n := b.Node(OpIf, cond)
	n.Targets = []string{then, els}
	return n
}

// Jump appends an unconditional branch.
func (b *Builder) Jump(target string) *Node {
	n := b.Node(OpJump)
	n.Targets = []string{target}
	return n
}
