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
	"testing"

	"github.com/SnellerInc/isel/ir"
)

// testTarget is a minimal Target
type testTarget struct {
	lowered map[*ir.Node]bool
	results map[*ir.Node]*Complex
}

func newTarget() *testTarget {
	return &testTarget{
		lowered: make(map[*ir.Node]bool),
		results: make(map[*ir.Node]*Complex),
	}
}

func (t *testTarget) HasOperand(n *ir.Node) bool {
	return t.lowered[n] || t.results[n] != nil
}

func (t *testTarget) SetMatchResult(n *ir.Node, c *Complex) {
	if t.results[n] != nil {
		panic("match result set twice for " + n.String())
	}
	t.results[n] = c
}

type testOperand string

func (o testOperand) String() string { return string(o) }

// constgen returns a generator that always produces
// a result and records the arguments it was passed
func constgen(name string, got *[]*ir.Node) Generator {
	return func(t Target, args []*ir.Node) *Complex {
		if got != nil {
			*got = args
		}
		return Defer(name, func() Operand { return testOperand(name) })
	}
}

func decline(t Target, args []*ir.Node) *Complex { return nil }

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected a panic", name)
		}
	}()
	fn()
}

// loadAddPattern is (Add r:(Read obj) k:(Const))
func loadAddPattern() *Pattern {
	return NewPattern(ir.OpAdd, "",
		NewPattern(ir.OpRead, "r", Capture("obj")),
		NewPattern(ir.OpConst, "k"))
}
