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

// Operand is a value produced by the code generator.
type Operand interface {
	String() string
}

// Complex is the deferred result of a
// committed match. It is evaluated by the
// code generator once matching for the
// enclosing block has finished.
type Complex struct {
	rule string
	fn   func() Operand
}

// Interior marks a node that was folded
// into a match rooted elsewhere. Such nodes
// must not be lowered on their own.
var Interior = &Complex{rule: "interior"}

// Defer returns a Complex that evaluates fn.
func Defer(rule string, fn func() Operand) *Complex {
	if fn == nil {
		panic("match.Defer: nil function")
	}
	return &Complex{rule: rule, fn: fn}
}

// IsInterior returns whether c is the Interior marker.
func (c *Complex) IsInterior() bool { return c == Interior }

// Rule returns the name of the rule that produced c.
func (c *Complex) Rule() string { return c.rule }

// Evaluate runs the deferred code generation
// and returns the operand holding the result.
func (c *Complex) Evaluate() Operand {
	if c.fn == nil {
		panic("match.Complex: cannot evaluate interior node")
	}
	return c.fn()
}

func (c *Complex) String() string { return "complex(" + c.rule + ")" }
