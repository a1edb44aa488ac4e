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
	"testing"

	"github.com/SnellerInc/isel/ir"
)

func TestPatternString(t *testing.T) {
	tests := []struct {
		pat  *Pattern
		want string
	}{
		{loadAddPattern(), "(Add r:(Read obj) k:(Const))"},
		{NewPattern(ir.OpConst, ""), "(Const)"},
		{NewPattern(ir.OpAdd, "", Any(), Capture("y")), "(Add _ y)"},
		{NewPattern(ir.OpIf, "", NewPattern(ir.OpCmp, "c", Capture("x"), NewPattern(ir.OpConst, "k"))), "(If c:(Cmp x k:(Const)))"},
	}
	for i := range tests {
		if got := tests[i].pat.String(); got != tests[i].want {
			t.Errorf("case %d: got %s; wanted %s", i, got, tests[i].want)
		}
	}
}

func TestPatternNames(t *testing.T) {
	p := NewPattern(ir.OpAdd, "", Capture("x"), NewPattern(ir.OpMul, "m", Capture("x"), Capture("y")))
	got := p.Names()
	want := []string{"x", "m", "y"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("got names %v; wanted %v", got, want)
	}
}

func TestNewPatternPanics(t *testing.T) {
	mustPanic(t, "invalid op", func() { NewPattern(ir.OpInvalid, "x") })
	mustPanic(t, "too many children", func() { NewPattern(ir.OpNeg, "", Any(), Any()) })
	mustPanic(t, "children of a leaf op", func() { NewPattern(ir.OpConst, "", Any()) })
	mustPanic(t, "nil child", func() { NewPattern(ir.OpAdd, "", nil, Any()) })
	mustPanic(t, "empty capture", func() { Capture("") })
}

func TestPatternSingle(t *testing.T) {
	if NewPattern(ir.OpConst, "k").Single() {
		t.Error("constants should not need to be consumed")
	}
	if !NewPattern(ir.OpRead, "r").Single() {
		t.Error("reads must be consumed")
	}
	if Capture("x").Single() || Any().Single() {
		t.Error("captures should not be consumed")
	}
}

func TestShape(t *testing.T) {
	b := ir.NewBuilder("f")
	obj := b.Param(0)
	rd := b.Node(ir.OpRead, obj)
	k := b.Const(1)
	add := b.Node(ir.OpAdd, rd, k)
	add2 := b.Node(ir.OpAdd, k, rd)

	p := loadAddPattern()
	if !p.Shape(add) {
		t.Error("expected the shape to match")
	}
	if p.Shape(add2) {
		t.Error("operands are not swapped by the matcher")
	}
	if p.Shape(rd) {
		t.Error("Read root should not match an Add pattern")
	}
}

func TestCaptureConsistency(t *testing.T) {
	b := ir.NewBuilder("f")
	blk := b.Block("b0")
	x := b.Param(0)
	y := b.Param(1)
	k1 := b.Const(1)
	k2 := b.Const(1)
	distinct := b.Node(ir.OpAdd, x, y)
	same := b.Node(ir.OpAdd, x, x)
	consts := b.Node(ir.OpAdd, k1, k2)
	mixed := b.Node(ir.OpAdd, k1, k1)

	tests := []struct {
		pat  *Pattern
		root *ir.Node
		want Code
	}{
		{NewPattern(ir.OpAdd, "", Capture("x"), Capture("x")), distinct, NamedValueMismatch},
		{NewPattern(ir.OpAdd, "", Capture("x"), Capture("x")), same, OK},
		{NewPattern(ir.OpAdd, "", NewPattern(ir.OpConst, "x"), NewPattern(ir.OpConst, "x")), consts, NamedValueMismatch},
		{NewPattern(ir.OpAdd, "", NewPattern(ir.OpConst, "x"), NewPattern(ir.OpConst, "x")), mixed, OK},
		// same node, but bound under two different ops
		{NewPattern(ir.OpAdd, "", NewPattern(ir.OpConst, "x"), Capture("x")), mixed, NamedValueMismatch},
	}
	for i := range tests {
		t.Run(fmt.Sprintf("case-%d", i), func(t *testing.T) {
			ctx := NewContext(newTarget(), tests[i].root, blk)
			r := tests[i].pat.Match(tests[i].root, ctx)
			if r.Code != tests[i].want {
				t.Errorf("got %s; wanted %s", r, tests[i].want)
			}
		})
	}
}

func TestMatchWrongKind(t *testing.T) {
	b := ir.NewBuilder("f")
	blk := b.Block("b0")
	x := b.Param(0)
	k := b.Const(2)
	mul := b.Node(ir.OpMul, x, k)
	add := b.Node(ir.OpAdd, mul, k)

	p := loadAddPattern()
	ctx := NewContext(newTarget(), add, blk)
	r := p.Match(add, ctx)
	if r.Code != WrongKind || r.Node != mul {
		t.Fatalf("got %s; wanted wrong kind at %s", r, mul)
	}
	if r.Pattern == nil || r.Pattern.Op() != ir.OpRead {
		t.Errorf("failure should name the Read sub-pattern; got %v", r.Pattern)
	}
}
