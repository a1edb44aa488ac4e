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

package gen

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"go/format"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/SnellerInc/isel/ir"
	"github.com/SnellerInc/isel/match"
	"github.com/SnellerInc/isel/rules"
)

// Source is one rules file.
type Source struct {
	Name string
	Data []byte
}

type named struct {
	*bytes.Reader
	name string
}

func (n *named) Name() string { return n.name }

// Parse parses and compiles every source, in order.
func Parse(srcs []Source) ([]Statement, error) {
	var all []rules.Rule
	for i := range srcs {
		lst, err := rules.Parse(&named{Reader: bytes.NewReader(srcs[i].Data), name: srcs[i].Name})
		if err != nil {
			return nil, err
		}
		all = append(all, lst...)
	}
	return Compile(all)
}

const sumPrefix = "// rulesum: "

// Sum returns the fingerprint of a set of
// sources as it appears in generated files.
func Sum(srcs []Source) string {
	h, _ := blake2b.New256(nil)
	for i := range srcs {
		io.WriteString(h, filepath.Base(srcs[i].Name))
		h.Write([]byte{0})
		h.Write(srcs[i].Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Write compiles srcs and writes a Go file to dst that
// declares the package-level variable varname in package
// pkg as the list of compiled statements. Every generator
// named by the rules must be a match.Generator declared
// in pkg.
func Write(dst io.Writer, pkg, varname string, srcs []Source) error {
	lst, err := Parse(srcs)
	if err != nil {
		return err
	}
	if len(lst) == 0 {
		return fmt.Errorf("gen: no rules in %d source(s)", len(srcs))
	}
	var b bytes.Buffer
	names := make([]string, len(srcs))
	for i := range srcs {
		names[i] = filepath.Base(srcs[i].Name)
	}
	fmt.Fprintf(&b, "// Code generated by matchgen from %s; DO NOT EDIT.\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "%s%s\n\n", sumPrefix, Sum(srcs))
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	fmt.Fprintf(&b, "import (\n\t\"github.com/SnellerInc/isel/ir\"\n\t\"github.com/SnellerInc/isel/match\"\n)\n\n")
	fmt.Fprintf(&b, "var %s = []*match.Statement{\n", varname)
	for i := range lst {
		s := &lst[i]
		fmt.Fprintf(&b, "\t// %s\n", s.Pattern)
		fmt.Fprintf(&b, "\tmatch.NewStatement(%q, %s, %s", s.Name, expr(s.Pattern), s.Func)
		for _, a := range s.Args {
			if a == match.Root {
				b.WriteString(", match.Root")
			} else {
				fmt.Fprintf(&b, ", %q", a)
			}
		}
		b.WriteString("),\n")
	}
	b.WriteString("}\n")
	out, err := format.Source(b.Bytes())
	if err != nil {
		return fmt.Errorf("gen: formatting output: %w", err)
	}
	_, err = dst.Write(out)
	return err
}

// opexpr is the Go name of an ir.Op constant
func opexpr(op ir.Op) string { return "ir.Op" + op.String() }

func expr(p *Pattern) string {
	if p.Op == ir.OpInvalid {
		if p.Name == "" {
			return "match.Any()"
		}
		return "match.Capture(" + strconv.Quote(p.Name) + ")"
	}
	var b strings.Builder
	b.WriteString("match.NewPattern(")
	b.WriteString(opexpr(p.Op))
	b.WriteString(", ")
	b.WriteString(strconv.Quote(p.Name))
	for _, c := range p.Children {
		b.WriteString(", ")
		b.WriteString(expr(c))
	}
	b.WriteString(")")
	return b.String()
}

// ErrStale is returned by Check when a generated
// file does not match its sources.
var ErrStale = errors.New("generated file is stale")

// Check reads a generated file from r and
// verifies that its fingerprint matches srcs.
func Check(r io.Reader, srcs []Source) error {
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		if !strings.HasPrefix(line, "//") {
			break
		}
		if got, ok := strings.CutPrefix(line, sumPrefix); ok {
			if want := Sum(srcs); got != want {
				return fmt.Errorf("%w: rulesum %s; sources have %s", ErrStale, got, want)
			}
			return nil
		}
	}
	if err := s.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: no rulesum line", ErrStale)
}
