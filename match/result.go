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

// Package match implements complex instruction
// selection: recognizing multi-node idioms inside
// one basic block and replacing them with a single
// deferred, target-specific operation.
//
// A Statement pairs a Pattern with a Generator.
// Each attempt to apply a Statement at a root node
// gets a fresh Context that records captured and
// consumed nodes; the attempt commits only if the
// pattern matches structurally, every consumed node
// has a single consumer, the schedule span covered
// by the match contains no unrelated operation,
// and the generator produces a result.
package match

import (
	"fmt"

	"github.com/SnellerInc/isel/ir"
)

// Code is the outcome of one match attempt.
type Code uint8

const (
	// OK means the attempt (or the step) succeeded.
	OK Code = iota
	// WrongKind means a node did not have
	// the op the pattern requires.
	WrongKind
	// NamedValueMismatch means a capture name
	// was bound to two different nodes.
	NamedValueMismatch
	// TooManyUsers means a node that would be
	// folded into the match has other consumers.
	TooManyUsers
	// NotInBlock means a node that would be
	// folded into the match lives in another block.
	NotInBlock
	// NotSafe means an unrelated operation sits
	// inside the span of the match.
	NotSafe
	// AlreadyUsed means a node that would be
	// folded into the match has already been
	// lowered or claimed by another match.
	AlreadyUsed
	// Declined means the generator refused
	// to produce a result.
	Declined
)

var codenames = [...]string{
	OK:                 "ok",
	WrongKind:          "wrong kind",
	NamedValueMismatch: "named value mismatch",
	TooManyUsers:       "too many users",
	NotInBlock:         "not in block",
	NotSafe:            "not safe",
	AlreadyUsed:        "already used",
	Declined:           "declined",
}

func (c Code) String() string {
	if int(c) < len(codenames) {
		return codenames[c]
	}
	return fmt.Sprintf("Code(%d)", uint8(c))
}

// Result is the diagnostic outcome of a
// match attempt. Node and Pattern identify
// where the attempt failed (or the root
// and root pattern of a successful attempt).
type Result struct {
	Code    Code
	Node    *ir.Node
	Pattern *Pattern
}

// OK returns whether r represents success.
func (r Result) OK() bool { return r.Code == OK }

func (r Result) String() string {
	if r.Node == nil {
		return r.Code.String()
	}
	if r.Pattern == nil {
		if r.Code == NotSafe && r.Node.Op.HasEffect() {
			return fmt.Sprintf("%s: %s (side effect)", r.Code, r.Node)
		}
		return fmt.Sprintf("%s: %s", r.Code, r.Node)
	}
	return fmt.Sprintf("%s: %s against %s", r.Code, r.Node, r.Pattern)
}

func fail(c Code, n *ir.Node, p *Pattern) Result {
	return Result{Code: c, Node: n, Pattern: p}
}
