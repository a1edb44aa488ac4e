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

package amd64

import (
	"math"

	"github.com/SnellerInc/isel/ir"
	"github.com/SnellerInc/isel/lower"
	"github.com/SnellerInc/isel/match"
)

// Generators for the statements in base.rules and v3.rules.
// Each receives the nodes named by its rule, in order.

func imm32(n *ir.Node) bool {
	return n.Imm >= math.MinInt32 && n.Imm <= math.MaxInt32
}

// scale is the scale of an Addr node if
// it can be encoded in a SIB byte
func scale(a *ir.Node) (int64, bool) {
	switch a.Imm {
	case 1, 2, 4, 8:
		return a.Imm, true
	}
	return 0, false
}

func addMem(t match.Target, args []*ir.Node) *match.Complex {
	g := lower.GenOf(t)
	addr, y := args[1], args[2]
	return match.Defer("addmem", func() lower.Operand {
		r := g.NewReg()
		g.Emit("mov", r, g.Value(y))
		g.Emit("add", r, lower.Mem{Base: g.Reg(addr)})
		return r
	})
}

func addImm(t match.Target, args []*ir.Node) *match.Complex {
	x, k := args[1], args[2]
	if !imm32(k) {
		return nil
	}
	g := lower.GenOf(t)
	return match.Defer("addimm", func() lower.Operand {
		r := g.NewReg()
		g.Emit("mov", r, g.Value(x))
		g.Emit("add", r, lower.Imm(k.Imm))
		return r
	})
}

func loadIdx(t match.Target, args []*ir.Node) *match.Complex {
	a, base, index := args[1], args[2], args[3]
	s, ok := scale(a)
	if !ok {
		return nil
	}
	g := lower.GenOf(t)
	return match.Defer("loadidx", func() lower.Operand {
		r := g.NewReg()
		g.Emit("mov", r, lower.Mem{Base: g.Reg(base), Index: g.Reg(index), Scale: s})
		return r
	})
}

func storeIdx(t match.Target, args []*ir.Node) *match.Complex {
	a, base, index, v := args[1], args[2], args[3], args[4]
	s, ok := scale(a)
	if !ok {
		return nil
	}
	g := lower.GenOf(t)
	return match.Defer("storeidx", func() lower.Operand {
		g.Emit("mov", lower.Mem{Base: g.Reg(base), Index: g.Reg(index), Scale: s}, g.Value(v))
		return nil
	})
}

func cmpBranch(t match.Target, args []*ir.Node) *match.Complex {
	br, c, x, y := args[0], args[1], args[2], args[3]
	g := lower.GenOf(t)
	return match.Defer("cmpbr", func() lower.Operand {
		g.Emit("cmp", g.Value(x), g.Value(y))
		g.Emit("j"+suffix(ir.Cond(c.Imm)), g.Label(br.Targets[0]))
		g.Emit("jmp", g.Label(br.Targets[1]))
		return nil
	})
}

func zextLoad(t match.Target, args []*ir.Node) *match.Complex {
	addr := args[1]
	g := lower.GenOf(t)
	return match.Defer("zextload", func() lower.Operand {
		r := g.NewReg()
		g.Emit("movzx", r, lower.Mem{Base: g.Reg(addr)})
		return r
	})
}

func fma(t match.Target, args []*ir.Node) *match.Complex {
	x, y, z := args[1], args[2], args[3]
	g := lower.GenOf(t)
	return match.Defer("fma", func() lower.Operand {
		r := g.NewReg()
		g.Emit("mov", r, g.Value(z))
		g.Emit("vfmadd231", r, g.Value(x), g.Value(y))
		return r
	})
}

func andn(t match.Target, args []*ir.Node) *match.Complex {
	x, k, y := args[1], args[2], args[3]
	if k.Imm != -1 {
		return nil
	}
	g := lower.GenOf(t)
	return match.Defer("andn", func() lower.Operand {
		r := g.NewReg()
		g.Emit("andn", r, g.Value(x), g.Value(y))
		return r
	})
}

func shlx(t match.Target, args []*ir.Node) *match.Complex {
	x, count := args[1], args[2]
	g := lower.GenOf(t)
	return match.Defer("shlx", func() lower.Operand {
		r := g.NewReg()
		g.Emit("shlx", r, g.Value(x), g.Value(count))
		return r
	})
}
