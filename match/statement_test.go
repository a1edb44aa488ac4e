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
	"bytes"
	"strings"
	"testing"

	"github.com/SnellerInc/isel/ir"
)

// scenario builds
//
//	entry: obj = Param 0
//	b0:    a = Read obj; k = Const 1; [Write obj obj]; c = Add a k
func scenario(write bool) (blk *ir.Block, obj, a, k, c *ir.Node) {
	b := ir.NewBuilder("f")
	b.Block("entry")
	obj = b.Param(0)
	blk = b.Block("b0")
	a = b.Node(ir.OpRead, obj)
	k = b.Const(1)
	if write {
		b.Node(ir.OpWrite, obj, obj)
	}
	c = b.Node(ir.OpAdd, a, k)
	return
}

func TestStatementEndToEnd(t *testing.T) {
	var args []*ir.Node
	s := NewStatement("fused-load-add", loadAddPattern(), constgen("fused-load-add", &args), Root, "r", "k", "obj")
	blk, obj, a, k, c := scenario(false)
	tgt := newTarget()
	r := s.Attempt(tgt, c, blk)
	if !r.OK() {
		t.Fatalf("attempt failed: %s", r)
	}
	if len(args) != 4 || args[0] != c || args[1] != a || args[2] != k || args[3] != obj {
		t.Errorf("generator got args %v", args)
	}
	if x := tgt.results[c]; x == nil || x.IsInterior() || x.Rule() != "fused-load-add" {
		t.Errorf("root result %v", x)
	} else if got := x.Evaluate().String(); got != "fused-load-add" {
		t.Errorf("evaluated to %q", got)
	}
	if !tgt.results[a].IsInterior() {
		t.Errorf("read should be interior; got %v", tgt.results[a])
	}
	if tgt.results[k] != nil || tgt.results[obj] != nil {
		t.Error("constant and captured input must not be marked")
	}

	// an intervening write makes the fusion unsafe
	blk, _, _, _, c = scenario(true)
	tgt = newTarget()
	args = nil
	r = s.Attempt(tgt, c, blk)
	if r.Code != NotSafe {
		t.Fatalf("got %s; wanted not safe", r)
	}
	if r.Node.Op != ir.OpWrite {
		t.Errorf("unsafe node %s", r.Node)
	}
	if args != nil {
		t.Error("generator invoked after a failed validation")
	}
	if len(tgt.results) != 0 {
		t.Errorf("failed attempt left %d results", len(tgt.results))
	}
}

func TestStatementDeclined(t *testing.T) {
	s := NewStatement("never", loadAddPattern(), decline, "r")
	blk, _, _, _, c := scenario(false)
	tgt := newTarget()
	if r := s.Attempt(tgt, c, blk); r.Code != Declined {
		t.Fatalf("got %s; wanted declined", r)
	}
	if len(tgt.results) != 0 {
		t.Error("declined attempt left results")
	}
}

func TestStatementAlreadyUsed(t *testing.T) {
	blk, _, a, _, c := scenario(false)
	tgt := newTarget()
	tgt.results[a] = Interior
	s := NewStatement("fused-load-add", loadAddPattern(), constgen("x", nil))
	if r := s.Attempt(tgt, c, blk); r.Code != AlreadyUsed || r.Node != a {
		t.Fatalf("got %s; wanted already used at %s", r, a)
	}
}

func TestStatementWrongRoot(t *testing.T) {
	blk, _, a, _, _ := scenario(false)
	s := NewStatement("fused-load-add", loadAddPattern(), constgen("x", nil))
	if r := s.Attempt(newTarget(), a, blk); r.Code != WrongKind {
		t.Fatalf("got %s", r)
	}
}

func TestNewStatementPanics(t *testing.T) {
	gen := constgen("x", nil)
	mustPanic(t, "unbound argument", func() { NewStatement("s", loadAddPattern(), gen, "z") })
	mustPanic(t, "any root", func() { NewStatement("s", Capture("x"), gen) })
	mustPanic(t, "nil generator", func() { NewStatement("s", loadAddPattern(), nil) })

	s := NewStatement("s", loadAddPattern(), gen, Root, "obj")
	if s.Op() != ir.OpAdd || s.Name() != "s" {
		t.Errorf("got %s", s)
	}
	args := s.Args()
	args[0] = "mutated"
	if s.Args()[0] != Root {
		t.Error("Args exposes internal state")
	}
}

func TestTraceAttempts(t *testing.T) {
	var buf bytes.Buffer
	Trace(&buf, TraceFailures|TraceCommits)
	defer Trace(nil, 0)

	s := NewStatement("fused-load-add", loadAddPattern(), constgen("x", nil), "r")
	blk, _, _, _, c := scenario(true)
	s.Attempt(newTarget(), c, blk)
	blk, _, _, _, c = scenario(false)
	s.Attempt(newTarget(), c, blk)

	out := buf.String()
	if !strings.Contains(out, "fused-load-add at v4 = Add v1 v2: not safe") {
		t.Errorf("missing failure in trace:\n%s", out)
	}
	if !strings.Contains(out, "Write v0 v0 (side effect)") {
		t.Errorf("unsafe write not flagged in trace:\n%s", out)
	}
	if !strings.Contains(out, "fused-load-add committed at") {
		t.Errorf("missing commit in trace:\n%s", out)
	}
	mustPanic(t, "writer without flags", func() { Trace(&buf, 0) })
}
