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

// Package backend is the catalogue of
// instruction selection backends.
//
// Backends register themselves when their
// package is imported:
//
//	import _ "github.com/SnellerInc/isel/backend/amd64"
package backend

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sys/cpu"

	"github.com/SnellerInc/isel/lower"
)

// EnvVar is the environment variable that,
// when set, overrides the detected backend.
const EnvVar = "ISEL_BACKEND"

// ErrUnknown is returned (wrapped) for
// backend names that are not registered.
var ErrUnknown = errors.New("unknown backend")

var (
	lock     sync.RWMutex
	backends = make(map[string]lower.Backend)
)

// Register makes b available under the
// name of its backend type. Registering
// the same name twice panics.
func Register(b lower.Backend) {
	name := b.Type().Name()
	lock.Lock()
	defer lock.Unlock()
	if _, ok := backends[name]; ok {
		panic("backend.Register: duplicate backend " + name)
	}
	backends[name] = b
}

// Get returns the backend registered under name.
func Get(name string) (lower.Backend, error) {
	lock.RLock()
	b, ok := backends[name]
	lock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknown, name, strings.Join(Names(), ", "))
	}
	return b, nil
}

// Names returns the sorted list of registered backends.
func Names() []string {
	lock.RLock()
	defer lock.RUnlock()
	out := maps.Keys(backends)
	slices.Sort(out)
	return out
}

// hasV3 reports whether the CPU implements
// the x86-64-v3 features the amd64v3 backend uses
var hasV3 = func() bool {
	return cpu.X86.HasFMA &&
		cpu.X86.HasBMI1 &&
		cpu.X86.HasBMI2 &&
		cpu.X86.HasAVX2
}

// DetectName returns the name of the backend
// for goarch, based on the ISEL_BACKEND
// environment variable and, for amd64,
// the features of the running CPU.
func DetectName(goarch string) (string, error) {
	if val, ok := os.LookupEnv(EnvVar); ok && val != "" {
		return strings.ToLower(val), nil
	}
	switch goarch {
	case "amd64":
		if hasV3() {
			return "amd64v3", nil
		}
		return "amd64", nil
	case "arm64":
		return "arm64", nil
	}
	return "", fmt.Errorf("backend: no backend for GOARCH %q", goarch)
}

// Detect returns the backend for goarch (see DetectName).
func Detect(goarch string) (lower.Backend, error) {
	name, err := DetectName(goarch)
	if err != nil {
		return nil, err
	}
	return Get(name)
}
