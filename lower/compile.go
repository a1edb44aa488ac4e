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

// Package lower drives instruction selection
// for a function: it runs the matcher over every
// block and then emits code, evaluating committed
// matches and lowering every other node through
// the backend.
package lower

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/SnellerInc/isel/ir"
	"github.com/SnellerInc/isel/match"
)

// ErrUnsupported is returned (wrapped) by
// backends that cannot lower a node.
var ErrUnsupported = errors.New("unsupported node")

// Backend lowers nodes that were not
// covered by a committed match.
type Backend interface {
	// Type is the backend type used to
	// look up statements in the registry.
	Type() *match.BackendType
	// Lower emits code for n and defines its
	// operand if n has a value.
	Lower(g *Gen, n *ir.Node) error
}

// Stats counts what happened during a compilation.
type Stats struct {
	Nodes    int
	Attempts int
	Commits  int
	// Interior is the number of nodes
	// folded into a match.
	Interior int
	Failures map[match.Code]int
}

func (s *Stats) fail(c match.Code) {
	if s.Failures == nil {
		s.Failures = make(map[match.Code]int)
	}
	s.Failures[c]++
}

func (s *Stats) add(o *Stats) {
	s.Nodes += o.Nodes
	s.Attempts += o.Attempts
	s.Commits += o.Commits
	s.Interior += o.Interior
	for c, n := range o.Failures {
		if s.Failures == nil {
			s.Failures = make(map[match.Code]int)
		}
		s.Failures[c] += n
	}
}

func (s *Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d nodes, %d attempts, %d commits, %d interior", s.Nodes, s.Attempts, s.Commits, s.Interior)
	codes := maps.Keys(s.Failures)
	slices.Sort(codes)
	for _, c := range codes {
		fmt.Fprintf(&b, ", %d %s", s.Failures[c], c)
	}
	return b.String()
}

// Option is an option for Compile.
type Option func(*compiler)

// WithLogger sets the logger used to
// report a summary of each compilation.
func WithLogger(l *log.Logger) Option {
	return func(c *compiler) { c.logger = l }
}

// WithParallel sets the number of blocks
// that can be matched concurrently.
func WithParallel(n int) Option {
	return func(c *compiler) {
		if n < 1 {
			n = 1
		}
		c.parallel = n
	}
}

// WithRegistry sets the registry that provides
// statements. The default is match.Default.
func WithRegistry(r *match.Registry) Option {
	return func(c *compiler) { c.registry = r }
}

type compiler struct {
	logger   *log.Logger
	parallel int
	registry *match.Registry
}

func (c *compiler) logf(f string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(f, args...)
	}
}

// Compile selects instructions for fn using be.
//
// Blocks are matched independently, up to the
// WithParallel limit at a time; ctx is checked
// before each block is matched. Code is then
// emitted sequentially in block order.
func Compile(ctx context.Context, fn *ir.Func, be Backend, opts ...Option) (*Program, error) {
	c := &compiler{parallel: 1, registry: match.Default}
	for _, o := range opts {
		o(c)
	}
	id := uuid.New()
	typ := be.Type()
	match.Tracef(match.TraceFailures|match.TraceCommits, "lower: compilation %s: %s for %s\n", id, fn.Name, typ)

	rules := c.registry.Lookup(typ)
	g := newGen(fn)
	matchers := make([]*Matcher, len(fn.Blocks))
	for i, b := range fn.Blocks {
		matchers[i] = newMatcher(g, b)
	}
	if err := c.matchAll(ctx, matchers, rules); err != nil {
		return nil, fmt.Errorf("lower: %s: %w", fn.Name, err)
	}
	p := &Program{ID: id, Func: fn.Name, Backend: typ.Name()}
	for _, m := range matchers {
		for n, x := range m.results {
			g.results[n] = x
			if x.IsInterior() {
				m.stats.Interior++
			}
		}
		p.Stats.add(&m.stats)
	}
	if err := emit(g, be); err != nil {
		return nil, fmt.Errorf("lower: %s: %w", fn.Name, err)
	}
	p.Blocks = g.out
	c.logf("lower: %s: %s for %s: %s", id, fn.Name, typ, &p.Stats)
	return p, nil
}

func (c *compiler) matchAll(ctx context.Context, matchers []*Matcher, rules match.Rules) error {
	workers := c.parallel
	if workers > len(matchers) {
		workers = len(matchers)
	}
	if workers <= 1 {
		for _, m := range matchers {
			if err := ctx.Err(); err != nil {
				return err
			}
			m.run(rules)
		}
		return nil
	}
	var wg sync.WaitGroup
	errlist := make([]error, workers)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			for j := i; j < len(matchers); j += workers {
				if err := ctx.Err(); err != nil {
					errlist[i] = err
					return
				}
				matchers[j].run(rules)
			}
		}(i)
	}
	wg.Wait()
	return errors.Join(errlist...)
}

func emit(g *Gen, be Backend) error {
	for _, b := range g.fn.Blocks {
		g.begin(b)
		for _, n := range b.Nodes {
			x := g.results[n]
			switch {
			case x == nil:
				if err := be.Lower(g, n); err != nil {
					return fmt.Errorf("block %s: %w", b.Name, err)
				}
			case x.IsInterior():
				// emitted by the root of its match
			default:
				op := x.Evaluate()
				if n.Op.HasValue() {
					if op == nil {
						return fmt.Errorf("block %s: %s produced no operand for %s", b.Name, x, n)
					}
					g.Define(n, op)
				}
			}
		}
	}
	g.cur = nil
	return nil
}
