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

// Package arm64 implements the arm64
// instruction selection backend.
package arm64

import (
	"fmt"

	"github.com/SnellerInc/isel/backend"
	"github.com/SnellerInc/isel/ir"
	"github.com/SnellerInc/isel/lower"
	"github.com/SnellerInc/isel/match"
)

//go:generate go run ../../cmd/matchgen -var armRules -o zrules.go arm64.rules

// Type is the arm64 backend type.
var Type = match.NewBackendType("arm64", nil)

// Backend is the arm64 lower.Backend.
type Backend struct{}

func init() {
	match.Register(match.NewSet(Type, armRules...))
	backend.Register(Backend{})
}

// Type implements lower.Backend.
func (Backend) Type() *match.BackendType { return Type }

var binops = map[ir.Op]string{
	ir.OpAdd: "add",
	ir.OpSub: "sub",
	ir.OpMul: "mul",
	ir.OpAnd: "and",
	ir.OpOr:  "orr",
	ir.OpXor: "eor",
	ir.OpShl: "lsl",
}

var unops = map[ir.Op]string{
	ir.OpNeg:  "neg",
	ir.OpNot:  "mvn",
	ir.OpZext: "uxtw",
	ir.OpSext: "sxtw",
}

// cond is a condition operand of cset
type cond ir.Cond

func (c cond) String() string { return ir.Cond(c).String() }

// Lower implements lower.Backend.
func (Backend) Lower(g *lower.Gen, n *ir.Node) error {
	if mn, ok := binops[n.Op]; ok {
		r := g.NewReg()
		g.Emit(mn, r, g.Value(n.Args[0]), g.Value(n.Args[1]))
		g.Define(n, r)
		return nil
	}
	if mn, ok := unops[n.Op]; ok {
		r := g.NewReg()
		g.Emit(mn, r, g.Value(n.Args[0]))
		g.Define(n, r)
		return nil
	}
	switch n.Op {
	case ir.OpParam:
		r := g.NewReg()
		g.Emit("arg", r, lower.Imm(n.Imm))
		g.Define(n, r)
	case ir.OpConst:
		r := g.NewReg()
		g.Emit("mov", r, lower.Imm(n.Imm))
		g.Define(n, r)
	case ir.OpVirtual:
		g.Define(n, lower.Imm(0))
	case ir.OpAddr:
		// base + index*scale
		base, index := g.Reg(n.Args[0]), g.Reg(n.Args[1])
		t := g.NewReg()
		g.Emit("mov", t, lower.Imm(n.Imm))
		r := g.NewReg()
		g.Emit("madd", r, index, t, base)
		g.Define(n, r)
	case ir.OpCmp:
		r := g.NewReg()
		g.Emit("cmp", g.Value(n.Args[0]), g.Value(n.Args[1]))
		g.Emit("cset", r, cond(ir.Cond(n.Imm)))
		g.Define(n, r)
	case ir.OpRead:
		base := g.Reg(n.Args[0])
		r := g.NewReg()
		g.Emit("ldr", r, lower.Mem{Base: base})
		g.Define(n, r)
	case ir.OpWrite:
		g.Emit("str", g.Value(n.Args[1]), lower.Mem{Base: g.Reg(n.Args[0])})
	case ir.OpCall:
		r := g.NewReg()
		args := []lower.Operand{r, lower.Label(n.Sym)}
		for _, a := range n.Args {
			args = append(args, g.Value(a))
		}
		g.Emit("bl", args...)
		g.Define(n, r)
	case ir.OpIf:
		g.Emit("cbnz", g.Value(n.Args[0]), g.Label(n.Targets[0]))
		g.Emit("b", g.Label(n.Targets[1]))
	case ir.OpJump:
		g.Emit("b", g.Label(n.Targets[0]))
	case ir.OpReturn:
		if len(n.Args) > 0 {
			g.Emit("ret", g.Value(n.Args[0]))
		} else {
			g.Emit("ret")
		}
	default:
		return fmt.Errorf("arm64: %w: %s", lower.ErrUnsupported, n)
	}
	return nil
}

func madd(t match.Target, args []*ir.Node) *match.Complex {
	x, y, z := args[1], args[2], args[3]
	g := lower.GenOf(t)
	return match.Defer("madd", func() lower.Operand {
		r := g.NewReg()
		g.Emit("madd", r, g.Value(x), g.Value(y), g.Value(z))
		return r
	})
}

func cbz(t match.Target, args []*ir.Node) *match.Complex {
	br, c, x, k := args[0], args[1], args[2], args[3]
	if k.Imm != 0 {
		return nil
	}
	var mn string
	switch ir.Cond(c.Imm) {
	case ir.CondEq:
		mn = "cbz"
	case ir.CondNe:
		mn = "cbnz"
	default:
		return nil
	}
	g := lower.GenOf(t)
	return match.Defer("cbz", func() lower.Operand {
		g.Emit(mn, g.Value(x), g.Label(br.Targets[0]))
		g.Emit("b", g.Label(br.Targets[1]))
		return nil
	})
}

func ldrIdx(t match.Target, args []*ir.Node) *match.Complex {
	a, base, index := args[1], args[2], args[3]
	// the register offset can only be
	// shifted by the access size
	if a.Imm != 1 && a.Imm != 8 {
		return nil
	}
	g := lower.GenOf(t)
	return match.Defer("ldridx", func() lower.Operand {
		b, x := g.Reg(base), g.Reg(index)
		r := g.NewReg()
		g.Emit("ldr", r, lower.Mem{Base: b, Index: x, Scale: a.Imm})
		return r
	})
}
