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

	"golang.org/x/exp/slices"

	"github.com/SnellerInc/isel/ir"
)

// Target is the code generator state
// that a match attempt reads and,
// on commit, updates.
type Target interface {
	// HasOperand returns whether n has already
	// been lowered or already holds a match result.
	HasOperand(n *ir.Node) bool
	// SetMatchResult records the match result for n.
	SetMatchResult(n *ir.Node, c *Complex)
}

type capture struct {
	op   ir.Op
	node *ir.Node
}

// Context is the mutable state of one match attempt.
// A Context must not be reused after the attempt
// fails or commits.
type Context struct {
	target Target
	root   *ir.Node
	block  *ir.Block

	consumed []*ir.Node
	captures map[string]capture

	// start and end are the bounds (inclusive)
	// of the schedule span touched by the match
	start, end int
}

// NewContext returns a Context for an attempt
// rooted at root, which must be scheduled in block.
func NewContext(t Target, root *ir.Node, block *ir.Block) *Context {
	idx := block.IndexOf(root)
	if idx < 0 {
		panic(fmt.Sprintf("match.NewContext: root %s not in block %s", root, block.Name))
	}
	return &Context{
		target: t,
		root:   root,
		block:  block,
		start:  idx,
		end:    idx,
	}
}

// Root returns the root of the attempt.
func (c *Context) Root() *ir.Node { return c.root }

// Consumed returns the nodes consumed so far.
// The returned slice must not be modified.
func (c *Context) Consumed() []*ir.Node { return c.consumed }

// Span returns the schedule indices
// (inclusive) covered by the attempt.
func (c *Context) Span() (start, end int) { return c.start, c.end }

// Named returns the node captured under name.
func (c *Context) Named(name string) (*ir.Node, bool) {
	cp, ok := c.captures[name]
	return cp.node, ok
}

// Capture binds name to n. Binding a name a
// second time succeeds only for the same node
// under the same op.
func (c *Context) Capture(name string, op ir.Op, n *ir.Node) Result {
	if c.captures == nil {
		c.captures = make(map[string]capture, 4)
	}
	if cp, ok := c.captures[name]; ok {
		if cp.node != n || cp.op != op {
			return fail(NamedValueMismatch, n, nil)
		}
		return Result{}
	}
	c.captures[name] = capture{op: op, node: n}
	return Result{}
}

// Consume folds n into the match.
// n must have a single consumer, must not
// have been lowered or claimed already,
// and must be scheduled in the same block
// as the root.
func (c *Context) Consume(n *ir.Node) Result {
	if n.Uses() > 1 {
		return fail(TooManyUsers, n, nil)
	}
	if c.target.HasOperand(n) {
		return fail(AlreadyUsed, n, nil)
	}
	idx := c.block.IndexOf(n)
	if idx < 0 {
		return fail(NotInBlock, n, nil)
	}
	if slices.Contains(c.consumed, n) {
		return Result{}
	}
	c.consumed = append(c.consumed, n)
	if idx < c.start {
		c.start = idx
	}
	return Result{}
}

// Validate checks that every node in the
// span of the match is the root, a consumed
// node, or free to move. Any other node is an
// operation whose position relative to the
// matched nodes would change if they were fused.
func (c *Context) Validate() Result {
	for i := c.start; i <= c.end; i++ {
		n := c.block.Nodes[i]
		if n == c.root || n.Op.ReorderSafe() || slices.Contains(c.consumed, n) {
			continue
		}
		return fail(NotSafe, n, nil)
	}
	return Result{}
}

// SetResult commits the match: every consumed
// node is marked Interior and the root receives x.
func (c *Context) SetResult(x *Complex) {
	if x == nil || x.IsInterior() {
		panic("match.Context.SetResult: root must receive a real result")
	}
	for _, n := range c.consumed {
		c.target.SetMatchResult(n, Interior)
	}
	c.target.SetMatchResult(c.root, x)
}
