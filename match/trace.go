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
	"sync"
	"sync/atomic"
)

var (
	tracing   atomic.Uint32
	tracelock sync.Mutex
	traceout  io.Writer
)

// TraceFlags is set of tracing options
// that can be passed to Trace.
type TraceFlags uint

const (
	// TraceFailures causes every failed or
	// declined match attempt to be reported
	// along with the reason it failed.
	TraceFailures TraceFlags = 1 << iota
	// TraceCommits causes every committed
	// match to be reported.
	TraceCommits
	// TraceRules causes each rule table to be
	// dumped when a Registry builds it.
	TraceRules
)

// Trace enables or disables tracing of
// match attempts.
//
// To enable tracing, Trace should be called with
// a non-nil io.Writer and non-zero flags.
// To disable tracing, Trace should be called
// with a nil io.Writer and flags equal to zero.
func Trace(w io.Writer, flags TraceFlags) {
	if (w == nil) != (flags == 0) {
		panic("invalid arguments for match.Trace")
	}
	tracelock.Lock()
	defer tracelock.Unlock()
	traceout = w
	tracing.Store(uint32(flags))
}

func enabled(flags TraceFlags) bool {
	return TraceFlags(tracing.Load())&flags != 0
}

func trace(body func(io.Writer)) {
	tracelock.Lock()
	defer tracelock.Unlock()
	if traceout == nil {
		return // could have raced if we inspected flags before locking
	}
	body(traceout)
}

// Tracef writes a trace line if any of flags are enabled.
// It lets drivers add their own context to the trace.
func Tracef(flags TraceFlags, f string, args ...any) {
	if !enabled(flags) {
		return
	}
	trace(func(w io.Writer) {
		fmt.Fprintf(w, f, args...)
	})
}
