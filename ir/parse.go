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

package ir

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse parses a function in the textual
// form produced by Func.String:
//
//	func name
//	b0:
//	  v0 = Param 0
//	  v1 = Read v0
//	  v2 = Const 1
//	  v3 = Add v1 v2
//	  Return v3
//
// Values must be defined before they are used.
// Blank lines and text following '#' are ignored.
func Parse(r io.Reader) (*Func, error) {
	p := &parser{
		values: make(map[string]*Node),
	}
	s := bufio.NewScanner(r)
	for s.Scan() {
		p.line++
		text := s.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if err := p.parseLine(fields); err != nil {
			return nil, fmt.Errorf("line %d: %w", p.line, err)
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if p.b == nil {
		return nil, fmt.Errorf("missing func header")
	}
	fn := p.b.Func()
	for _, b := range fn.Blocks {
		for _, n := range b.Nodes {
			for _, t := range n.Targets {
				if fn.Block(t) == nil {
					return nil, fmt.Errorf("%s: %s: unknown block %s", b.Name, n, t)
				}
			}
		}
	}
	return fn, nil
}

type parser struct {
	b      *Builder
	line   int
	values map[string]*Node
}

func (p *parser) parseLine(fields []string) error {
	if fields[0] == "func" {
		if p.b != nil {
			return fmt.Errorf("duplicate func header")
		}
		if len(fields) != 2 {
			return fmt.Errorf("expected 'func <name>'")
		}
		p.b = NewBuilder(fields[1])
		return nil
	}
	if p.b == nil {
		return fmt.Errorf("expected func header")
	}
	if len(fields) == 1 && strings.HasSuffix(fields[0], ":") {
		label := strings.TrimSuffix(fields[0], ":")
		if p.b.Func().Block(label) != nil {
			return fmt.Errorf("duplicate block %s", label)
		}
		p.b.Block(label)
		return nil
	}
	if p.b.cur == nil {
		return fmt.Errorf("node outside of a block")
	}
	def := ""
	if len(fields) > 2 && fields[1] == "=" {
		def = fields[0]
		fields = fields[2:]
	}
	op, ok := OpByName(fields[0])
	if !ok {
		return fmt.Errorf("unknown op %q", fields[0])
	}
	info := &opinfos[op]
	if (def != "") != op.HasValue() {
		if def == "" {
			return fmt.Errorf("%s defines a value", op)
		}
		return fmt.Errorf("%s does not define a value", op)
	}
	rest := fields[1:]
	var (
		imm     int64
		sym     string
		targets []string
	)
	switch info.imm {
	case immcond:
		if len(rest) == 0 {
			return fmt.Errorf("%s: missing condition", op)
		}
		c, ok := condByName(rest[0])
		if !ok {
			return fmt.Errorf("%s: unknown condition %q", op, rest[0])
		}
		imm = int64(c)
		rest = rest[1:]
	case immsym:
		if len(rest) == 0 {
			return fmt.Errorf("%s: missing symbol", op)
		}
		sym = rest[0]
		rest = rest[1:]
	case immint:
		if len(rest) == 0 {
			return fmt.Errorf("%s: missing immediate", op)
		}
		v, err := strconv.ParseInt(rest[len(rest)-1], 0, 64)
		if err != nil {
			return fmt.Errorf("%s: bad immediate: %w", op, err)
		}
		imm = v
		rest = rest[:len(rest)-1]
	case immtargets:
		ntarget := 1
		if op == OpIf {
			ntarget = 2
		}
		if len(rest) < ntarget {
			return fmt.Errorf("%s: expected %d target(s)", op, ntarget)
		}
		targets = rest[len(rest)-ntarget:]
		rest = rest[:len(rest)-ntarget]
	}
	args := make([]*Node, len(rest))
	for i := range rest {
		v, ok := p.values[rest[i]]
		if !ok {
			return fmt.Errorf("%s: undefined value %s", op, rest[i])
		}
		args[i] = v
	}
	if info.argc >= 0 && len(args) != info.argc {
		return fmt.Errorf("%s: expected %d argument(s); got %d", op, info.argc, len(args))
	}
	n := p.b.Node(op, args...)
	n.Imm = imm
	n.Sym = sym
	n.Targets = targets
	if def != "" {
		if _, ok := p.values[def]; ok {
			return fmt.Errorf("%s redefined", def)
		}
		p.values[def] = n
		if id, err := strconv.Atoi(strings.TrimPrefix(def, "v")); err == nil && strings.HasPrefix(def, "v") {
			n.ID = id
		}
	}
	return nil
}
