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

package lower

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/SnellerInc/isel/match"
)

// Operand is an operand of an emitted instruction.
type Operand = match.Operand

// Reg is a virtual register.
type Reg int

func (r Reg) String() string { return "%r" + strconv.Itoa(int(r)) }

// Imm is an immediate integer.
type Imm int64

func (i Imm) String() string { return "$" + strconv.FormatInt(int64(i), 10) }

// Mem is a memory operand addressing
// Base + Index*Scale + Disp.
// Index is ignored if Scale is zero.
type Mem struct {
	Base  Reg
	Index Reg
	Scale int64
	Disp  int64
}

func (m Mem) String() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(m.Base.String())
	if m.Scale != 0 {
		fmt.Fprintf(&b, "+%s*%d", m.Index, m.Scale)
	}
	if m.Disp != 0 {
		fmt.Fprintf(&b, "%+d", m.Disp)
	}
	b.WriteByte(']')
	return b.String()
}

// Label is a branch target.
type Label string

func (l Label) String() string { return "." + string(l) }

// Inst is one emitted instruction.
type Inst struct {
	Mnemonic string
	Args     []Operand
}

func (i *Inst) String() string {
	if len(i.Args) == 0 {
		return i.Mnemonic
	}
	var b strings.Builder
	b.WriteString(i.Mnemonic)
	for j, a := range i.Args {
		if j == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	return b.String()
}

// Block is the emitted code for one ir.Block.
type Block struct {
	Name  string
	Insts []Inst
}

// Program is the result of Compile.
type Program struct {
	// ID identifies the compilation
	// in logs and traces.
	ID      uuid.UUID
	Func    string
	Backend string
	Blocks  []*Block
	Stats   Stats
}

// WriteTo writes the textual form of p to w.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, p.String())
	return int64(n), err
}

func (p *Program) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "func %s\n", p.Func)
	for _, blk := range p.Blocks {
		fmt.Fprintf(&b, "%s:\n", blk.Name)
		for i := range blk.Insts {
			b.WriteByte('\t')
			b.WriteString(blk.Insts[i].String())
			b.WriteByte('\n')
		}
	}
	return b.String()
}
