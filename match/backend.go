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

// BackendType identifies a code generator
// variant. Backend types form a tree rooted at
// RootBackend; a backend inherits the statements
// of each of its ancestors, with its own taking
// precedence.
type BackendType struct {
	name   string
	parent *BackendType
}

// RootBackend is the common ancestor of
// all backend types. Statements are never
// registered for it.
var RootBackend = &BackendType{name: "root"}

// NewBackendType returns a new backend type.
// A nil parent means RootBackend.
func NewBackendType(name string, parent *BackendType) *BackendType {
	if parent == nil {
		parent = RootBackend
	}
	return &BackendType{name: name, parent: parent}
}

// Name returns the name of b.
func (b *BackendType) Name() string { return b.name }

// Parent returns the parent of b,
// or nil if b is RootBackend.
func (b *BackendType) Parent() *BackendType { return b.parent }

func (b *BackendType) String() string { return b.name }

// Ancestors returns b followed by each of its
// ancestors, most specific first, excluding RootBackend.
func (b *BackendType) Ancestors() []*BackendType {
	var out []*BackendType
	for t := b; t != nil && t != RootBackend; t = t.parent {
		out = append(out, t)
	}
	return out
}
