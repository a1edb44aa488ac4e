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

// Package amd64 implements the amd64 and
// amd64v3 instruction selection backends.
//
// The output is pseudo-assembly over virtual
// registers in Intel operand order (destination
// first). Importing the package registers both
// backends and their statements.
package amd64

import (
	"fmt"

	"github.com/SnellerInc/isel/backend"
	"github.com/SnellerInc/isel/ir"
	"github.com/SnellerInc/isel/lower"
	"github.com/SnellerInc/isel/match"
)

//go:generate go run ../../cmd/matchgen -var baseRules -o zrules_base.go base.rules
//go:generate go run ../../cmd/matchgen -var v3Rules -o zrules_v3.go v3.rules

var (
	// BaseType is the backend type of
	// baseline amd64 (x86-64).
	BaseType = match.NewBackendType("amd64", nil)
	// V3Type is the backend type of amd64 with
	// the x86-64-v3 extensions. It inherits
	// every BaseType statement.
	V3Type = match.NewBackendType("amd64v3", BaseType)
)

// Backend is an amd64 lower.Backend.
type Backend struct {
	typ *match.BackendType
}

var (
	Base = &Backend{typ: BaseType}
	V3   = &Backend{typ: V3Type}
)

func init() {
	match.Register(
		match.NewSet(BaseType, baseRules...),
		match.NewSet(V3Type, v3Rules...),
	)
	backend.Register(Base)
	backend.Register(V3)
}

// Type implements lower.Backend.
func (b *Backend) Type() *match.BackendType { return b.typ }

var binops = map[ir.Op]string{
	ir.OpAdd: "add",
	ir.OpSub: "sub",
	ir.OpMul: "imul",
	ir.OpAnd: "and",
	ir.OpOr:  "or",
	ir.OpXor: "xor",
	ir.OpShl: "shl",
}

var unops = map[ir.Op]string{
	ir.OpNeg: "neg",
	ir.OpNot: "not",
}

// condition code suffixes
var cc = [...]string{
	ir.CondEq: "e",
	ir.CondNe: "ne",
	ir.CondLt: "l",
	ir.CondLe: "le",
	ir.CondGt: "g",
	ir.CondGe: "ge",
}

func suffix(c ir.Cond) string {
	if c < 0 || int(c) >= len(cc) {
		panic(fmt.Sprintf("amd64: bad condition %d", c))
	}
	return cc[c]
}

// Lower implements lower.Backend. It emits
// the one-node lowering of n.
func (b *Backend) Lower(g *lower.Gen, n *ir.Node) error {
	if mn, ok := binops[n.Op]; ok {
		r := g.NewReg()
		g.Emit("mov", r, g.Value(n.Args[0]))
		g.Emit(mn, r, g.Value(n.Args[1]))
		g.Define(n, r)
		return nil
	}
	if mn, ok := unops[n.Op]; ok {
		r := g.NewReg()
		g.Emit("mov", r, g.Value(n.Args[0]))
		g.Emit(mn, r)
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
		base, index := g.Reg(n.Args[0]), g.Reg(n.Args[1])
		r := g.NewReg()
		if s, ok := scale(n); ok {
			g.Emit("lea", r, lower.Mem{Base: base, Index: index, Scale: s})
		} else {
			g.Emit("mov", r, index)
			g.Emit("imul", r, lower.Imm(n.Imm))
			g.Emit("add", r, base)
		}
		g.Define(n, r)
	case ir.OpZext, ir.OpSext:
		mn := "movzx"
		if n.Op == ir.OpSext {
			mn = "movsx"
		}
		r := g.NewReg()
		g.Emit(mn, r, g.Value(n.Args[0]))
		g.Define(n, r)
	case ir.OpCmp:
		r := g.NewReg()
		g.Emit("cmp", g.Value(n.Args[0]), g.Value(n.Args[1]))
		g.Emit("set"+suffix(ir.Cond(n.Imm)), r)
		g.Define(n, r)
	case ir.OpRead:
		base := g.Reg(n.Args[0])
		r := g.NewReg()
		g.Emit("mov", r, lower.Mem{Base: base})
		g.Define(n, r)
	case ir.OpWrite:
		g.Emit("mov", lower.Mem{Base: g.Reg(n.Args[0])}, g.Value(n.Args[1]))
	case ir.OpCall:
		// call r, sym, args...
		r := g.NewReg()
		args := []lower.Operand{r, lower.Label(n.Sym)}
		for _, a := range n.Args {
			args = append(args, g.Value(a))
		}
		g.Emit("call", args...)
		g.Define(n, r)
	case ir.OpIf:
		c := g.Value(n.Args[0])
		g.Emit("test", c, c)
		g.Emit("jne", g.Label(n.Targets[0]))
		g.Emit("jmp", g.Label(n.Targets[1]))
	case ir.OpJump:
		g.Emit("jmp", g.Label(n.Targets[0]))
	case ir.OpReturn:
		if len(n.Args) > 0 {
			g.Emit("ret", g.Value(n.Args[0]))
		} else {
			g.Emit("ret")
		}
	default:
		return fmt.Errorf("%s: %w: %s", b.typ, lower.ErrUnsupported, n)
	}
	return nil
}
