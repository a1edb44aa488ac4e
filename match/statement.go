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
	"io"

	"golang.org/x/exp/slices"

	"github.com/SnellerInc/isel/ir"
)

// Root is the argument name that
// refers to the root of a match.
const Root = "root"

// Generator produces the deferred result for a
// successful match. The args are the nodes named
// by the statement's argument list, in order.
// A Generator may return nil to decline the match,
// in which case nothing is committed.
type Generator func(t Target, args []*ir.Node) *Complex

// Statement is one matching rule: a pattern
// and a generator for the idiom it describes.
type Statement struct {
	name    string
	pattern *Pattern
	gen     Generator
	args    []string
}

// NewStatement returns a Statement. Each of args
// must be Root or a name captured by pattern.
// The root of pattern must require an op.
func NewStatement(name string, pattern *Pattern, gen Generator, args ...string) *Statement {
	if pattern.op == ir.OpInvalid {
		panic(fmt.Sprintf("match.NewStatement: %s: root pattern %s has no op", name, pattern))
	}
	if gen == nil {
		panic(fmt.Sprintf("match.NewStatement: %s: nil generator", name))
	}
	names := pattern.Names()
	for _, arg := range args {
		if arg != Root && !slices.Contains(names, arg) {
			panic(fmt.Sprintf("match.NewStatement: %s: argument %q is not captured by %s", name, arg, pattern))
		}
	}
	return &Statement{
		name:    name,
		pattern: pattern,
		gen:     gen,
		args:    slices.Clone(args),
	}
}

// Name returns the name of the statement.
func (s *Statement) Name() string { return s.name }

// Pattern returns the statement's pattern.
func (s *Statement) Pattern() *Pattern { return s.pattern }

// Op returns the op of the root of the pattern.
func (s *Statement) Op() ir.Op { return s.pattern.op }

// Args returns the argument names passed to the generator.
func (s *Statement) Args() []string { return slices.Clone(s.args) }

func (s *Statement) String() string {
	return fmt.Sprintf("%s: %s", s.name, s.pattern)
}

// Attempt tries to apply s at root, which
// is scheduled in block. On success the match
// is committed to t and the returned Result is OK;
// otherwise t is left untouched.
func (s *Statement) Attempt(t Target, root *ir.Node, block *ir.Block) Result {
	r := s.attempt(t, root, block)
	if r.OK() {
		if enabled(TraceCommits) {
			trace(func(w io.Writer) {
				fmt.Fprintf(w, "match: %s committed at %s\n", s.name, root)
			})
		}
	} else if enabled(TraceFailures) {
		trace(func(w io.Writer) {
			fmt.Fprintf(w, "match: %s at %s: %s\n", s.name, root, r)
		})
	}
	return r
}

func (s *Statement) attempt(t Target, root *ir.Node, block *ir.Block) Result {
	if !s.pattern.Shape(root) {
		return fail(WrongKind, root, s.pattern)
	}
	ctx := NewContext(t, root, block)
	if r := s.pattern.Match(root, ctx); !r.OK() {
		return r
	}
	if r := ctx.Validate(); !r.OK() {
		r.Pattern = s.pattern
		return r
	}
	x := s.gen(t, s.resolve(ctx))
	if x == nil {
		return fail(Declined, root, s.pattern)
	}
	ctx.SetResult(x)
	return Result{Node: root, Pattern: s.pattern}
}

func (s *Statement) resolve(ctx *Context) []*ir.Node {
	args := make([]*ir.Node, len(s.args))
	for i, name := range s.args {
		if name == Root {
			args[i] = ctx.Root()
			continue
		}
		n, ok := ctx.Named(name)
		if !ok {
			panic(fmt.Sprintf("match: statement %s: argument %q not bound after a successful match", s.name, name))
		}
		args[i] = n
	}
	return args
}
