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
	"math/rand"
	"testing"

	"github.com/SnellerInc/isel/ir"
)

func TestConsume(t *testing.T) {
	b := ir.NewBuilder("f")
	b0 := b.Block("b0")
	obj := b.Param(0)
	shared := b.Node(ir.OpRead, obj)
	other := b.Node(ir.OpRead, obj)
	b1 := b.Block("b1")
	k := b.Const(4)
	single := b.Node(ir.OpRead, obj)
	lowered := b.Node(ir.OpRead, obj)
	sum := b.Node(ir.OpAdd, shared, shared)
	root := b.Node(ir.OpAdd, single, k)
	_ = b.Node(ir.OpAdd, other, lowered)
	_ = b.Node(ir.OpAdd, k, k)
	_ = sum

	tgt := newTarget()
	tgt.lowered[lowered] = true
	ctx := NewContext(tgt, root, b1)

	tests := []struct {
		node *ir.Node
		want Code
	}{
		{shared, TooManyUsers},
		{lowered, AlreadyUsed},
		{other, NotInBlock},
		{single, OK},
		{single, OK}, // idempotent
	}
	for i := range tests {
		if r := ctx.Consume(tests[i].node); r.Code != tests[i].want {
			t.Errorf("case %d: consume %s: got %s; wanted %s", i, tests[i].node, r, tests[i].want)
		}
	}
	if len(ctx.Consumed()) != 1 || ctx.Consumed()[0] != single {
		t.Errorf("consumed %v", ctx.Consumed())
	}
	start, end := ctx.Span()
	if start != b1.IndexOf(single) || end != b1.IndexOf(root) {
		t.Errorf("span [%d, %d]", start, end)
	}
	_ = b0
}

func TestSingleConsumer(t *testing.T) {
	b := ir.NewBuilder("f")
	blk := b.Block("b0")
	obj := b.Param(0)
	rd := b.Node(ir.OpRead, obj)
	k := b.Const(1)
	add := b.Node(ir.OpAdd, rd, k)
	// k has a second consumer, which is fine
	b.Node(ir.OpAdd, add, k)

	p := loadAddPattern()
	ctx := NewContext(newTarget(), add, blk)
	if r := p.Match(add, ctx); !r.OK() {
		t.Fatalf("single-use read: %s", r)
	}
	if len(ctx.Consumed()) != 1 || ctx.Consumed()[0] != rd {
		t.Fatalf("consumed %v; wanted just the read", ctx.Consumed())
	}

	// a second external use of the read
	// makes it impossible to fold
	b.Node(ir.OpWrite, obj, rd)
	ctx = NewContext(newTarget(), add, blk)
	r := p.Match(add, ctx)
	if r.Code != TooManyUsers || r.Node != rd {
		t.Fatalf("got %s; wanted too many users at %s", r, rd)
	}
	if r := ctx.Consume(k); r.Code != TooManyUsers {
		t.Errorf("consuming a shared constant: %s", r)
	}
}

// build a block with:
//
//	obj = Param 0
//	a = Read obj
//	<fill...>
//	k = Const 1
//	c = Add a k
//
// and return it along with a and c
func spanBlock(fill []ir.Op) (*ir.Block, *ir.Node, *ir.Node) {
	b := ir.NewBuilder("f")
	b.Block("entry")
	obj := b.Param(0)
	blk := b.Block("b0")
	a := b.Node(ir.OpRead, obj)
	for _, op := range fill {
		switch op {
		case ir.OpWrite:
			b.Node(ir.OpWrite, obj, obj)
		case ir.OpCall:
			b.Call("g")
		case ir.OpRead:
			b.Node(ir.OpRead, obj)
		case ir.OpConst:
			b.Const(7)
		case ir.OpParam:
			b.Param(1)
		case ir.OpVirtual:
			b.Node(ir.OpVirtual)
		case ir.OpAddr:
			b.Imm(ir.OpAddr, 8, obj, obj)
		}
	}
	k := b.Const(1)
	c := b.Node(ir.OpAdd, a, k)
	return blk, a, c
}

func TestValidateSpan(t *testing.T) {
	safe := []ir.Op{ir.OpConst, ir.OpParam, ir.OpVirtual, ir.OpAddr}
	unsafe := []ir.Op{ir.OpWrite, ir.OpCall, ir.OpRead}
	rng := rand.New(rand.NewSource(1))
	for iter := 0; iter < 200; iter++ {
		var fill []ir.Op
		n := rng.Intn(5)
		for i := 0; i < n; i++ {
			fill = append(fill, safe[rng.Intn(len(safe))])
		}
		wantSafe := true
		if rng.Intn(2) == 0 {
			pos := rng.Intn(len(fill) + 1)
			op := unsafe[rng.Intn(len(unsafe))]
			fill = append(fill[:pos], append([]ir.Op{op}, fill[pos:]...)...)
			wantSafe = false
		}
		blk, a, c := spanBlock(fill)
		ctx := NewContext(newTarget(), c, blk)
		if r := loadAddPattern().Match(c, ctx); !r.OK() {
			t.Fatalf("%v: structural match failed: %s", fill, r)
		}
		start, end := ctx.Span()
		if start != blk.IndexOf(a) || end != blk.IndexOf(c) {
			t.Fatalf("%v: span [%d, %d]", fill, start, end)
		}
		r := ctx.Validate()
		if wantSafe && !r.OK() {
			t.Errorf("%v: got %s; wanted ok", fill, r)
		}
		if !wantSafe && r.Code != NotSafe {
			t.Errorf("%v: got %s; wanted not safe", fill, r)
		}
	}
}

func TestValidateOutsideSpan(t *testing.T) {
	// unsafe nodes before the first consumed
	// node and after the root do not matter
	b := ir.NewBuilder("f")
	blk := b.Block("b0")
	obj := b.Param(0)
	b.Node(ir.OpWrite, obj, obj)
	a := b.Node(ir.OpRead, obj)
	k := b.Const(1)
	c := b.Node(ir.OpAdd, a, k)
	b.Node(ir.OpWrite, obj, c)

	ctx := NewContext(newTarget(), c, blk)
	if r := loadAddPattern().Match(c, ctx); !r.OK() {
		t.Fatal(r)
	}
	if r := ctx.Validate(); !r.OK() {
		t.Errorf("got %s", r)
	}
}

func TestSetResult(t *testing.T) {
	blk, a, c := spanBlock(nil)
	tgt := newTarget()
	ctx := NewContext(tgt, c, blk)
	if r := loadAddPattern().Match(c, ctx); !r.OK() {
		t.Fatal(r)
	}
	mustPanic(t, "nil result", func() { ctx.SetResult(nil) })
	mustPanic(t, "interior result", func() { ctx.SetResult(Interior) })
	if len(tgt.results) != 0 {
		t.Fatal("results recorded by a rejected SetResult")
	}
	x := Defer("x", func() Operand { return testOperand("x") })
	ctx.SetResult(x)
	if tgt.results[c] != x {
		t.Errorf("root has %v", tgt.results[c])
	}
	if !tgt.results[a].IsInterior() {
		t.Errorf("consumed node has %v", tgt.results[a])
	}
	if len(tgt.results) != 2 {
		t.Errorf("%d results recorded", len(tgt.results))
	}
}

func TestNewContextPanics(t *testing.T) {
	blk, _, _ := spanBlock(nil)
	b := ir.NewBuilder("g")
	other := b.Const(1)
	mustPanic(t, "root outside the block", func() { NewContext(newTarget(), other, blk) })
}

func ExampleContext_Validate() {
	b := ir.NewBuilder("f")
	blk := b.Block("b0")
	obj := b.Param(0)
	a := b.Node(ir.OpRead, obj)
	b.Node(ir.OpWrite, obj, obj)
	k := b.Const(1)
	c := b.Node(ir.OpAdd, a, k)

	ctx := NewContext(newTarget(), c, blk)
	fmt.Println(loadAddPattern().Match(c, ctx).Code)
	fmt.Println(ctx.Validate())
	// Output:
	// ok
	// not safe: Write v0 v0
}
