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
	"log"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/SnellerInc/isel/ir"
)

// Rules maps the op of a root node to the
// statements that may match at that root,
// in the order in which they should be tried.
// A Rules returned by a Registry must not
// be modified.
type Rules map[ir.Op][]*Statement

// Len returns the total number of statements in r.
func (r Rules) Len() int {
	n := 0
	for _, lst := range r {
		n += len(lst)
	}
	return n
}

// StatementSet is the set of statements
// a backend type declares itself.
type StatementSet struct {
	Backend    *BackendType
	Statements []*Statement
}

// NewSet returns a StatementSet.
func NewSet(b *BackendType, stmts ...*Statement) *StatementSet {
	if b == nil || b == RootBackend {
		panic("match.NewSet: statements need a concrete backend type")
	}
	return &StatementSet{Backend: b, Statements: stmts}
}

// Registry resolves the statements that apply
// to a backend type. The zero value is not usable;
// create one with NewRegistry.
//
// Lookups are safe for concurrent use.
type Registry struct {
	lock sync.Mutex // guards sets
	sets []*StatementSet

	// cache holds the Rules built for
	// each *BackendType; it is replaced
	// whenever a set is registered
	cache atomic.Pointer[sync.Map]

	// logger, if non-nil, receives a line
	// for each rule table that is built
	logger *log.Logger
}

// Option is an optional argument to NewRegistry.
type Option func(r *Registry)

// WithLogger is an option that can be
// passed to NewRegistry to have it log
// diagnostic information. If no logger is
// set, the registry does not log.
func WithLogger(l *log.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry returns an empty Registry.
func NewRegistry(opt ...Option) *Registry {
	r := &Registry{}
	r.cache.Store(new(sync.Map))
	for _, o := range opt {
		o(r)
	}
	return r
}

// Register adds statement sets to r.
// Rules built by earlier lookups are discarded.
func (r *Registry) Register(sets ...*StatementSet) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.sets = append(r.sets, sets...)
	r.cache.Store(new(sync.Map))
}

// Lookup returns the rules for backend type b:
// the statements of every set registered for b or
// one of its ancestors, grouped by root op. Within
// each group, statements of more specific backend
// types come first, and statements of the same
// backend type keep their registration order.
//
// The result is built once per backend type
// and shared by all subsequent lookups.
func (r *Registry) Lookup(b *BackendType) Rules {
	cache := r.cache.Load()
	if v, ok := cache.Load(b); ok {
		return v.(Rules)
	}
	// concurrent lookups may race to build
	// the same table; only the first one stored
	// is ever returned
	v, loaded := cache.LoadOrStore(b, r.build(b))
	if !loaded {
		r.report(b, v.(Rules))
	}
	return v.(Rules)
}

func (r *Registry) build(b *BackendType) Rules {
	r.lock.Lock()
	sets := slices.Clone(r.sets)
	r.lock.Unlock()

	out := make(Rules)
	for _, t := range b.Ancestors() {
		for _, set := range sets {
			if set.Backend != t {
				continue
			}
			for _, s := range set.Statements {
				out[s.Op()] = append(out[s.Op()], s)
			}
		}
	}
	return out
}

func (r *Registry) report(b *BackendType, rules Rules) {
	if r.logger != nil {
		r.logger.Printf("match: built %d statements over %d root ops for backend %s", rules.Len(), len(rules), b)
	}
	if !enabled(TraceRules) {
		return
	}
	trace(func(w io.Writer) {
		fmt.Fprintf(w, "match: rules for %s\n", b)
		ops := maps.Keys(rules)
		slices.Sort(ops)
		for _, op := range ops {
			for _, s := range rules[op] {
				fmt.Fprintf(w, "  %s: %s\n", op, s)
			}
		}
	})
}

// Default is the registry that backends
// register their statements with from init.
var Default = NewRegistry()

// Register adds statement sets to the Default registry.
func Register(sets ...*StatementSet) { Default.Register(sets...) }

// Lookup returns the rules for b from the Default registry.
func Lookup(b *BackendType) Rules { return Default.Lookup(b) }
