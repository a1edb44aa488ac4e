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

// Package isel is a complex instruction selector.
//
// The matcher (package match) recognizes multi-node
// idioms in the IR (package ir) within one basic
// block and replaces each with a single deferred,
// target-specific operation. Statements are written
// as rules (packages rules and gen, command matchgen)
// and grouped per backend (packages backend/amd64 and
// backend/arm64). Package lower drives matching and
// code emission for a function, and command isel
// runs it over IR files.
package isel
