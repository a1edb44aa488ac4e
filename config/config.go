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

// Package config loads the configuration
// of the isel command.
//
// A configuration file is YAML:
//
//	backend: amd64v3
//	parallel: 4
//	trace: [failures, commits]
//	traceFile: /tmp/isel.trace.zst
//
// Environment variables override the file;
// see FromEnv.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"sigs.k8s.io/yaml"

	"github.com/SnellerInc/isel/match"
)

// Config is the configuration of one run.
type Config struct {
	// Backend is the backend name; empty
	// means detect it from the host.
	Backend string `json:"backend,omitempty"`
	// Parallel is the number of blocks
	// matched concurrently.
	Parallel int `json:"parallel,omitempty"`
	// Trace lists the trace categories:
	// failures, commits, rules.
	Trace []string `json:"trace,omitempty"`
	// TraceFile is where traces are written;
	// empty means stderr. A .zst suffix
	// compresses the trace with zstd.
	TraceFile string `json:"traceFile,omitempty"`
}

// ErrInvalid is wrapped by validation errors.
var ErrInvalid = errors.New("invalid configuration")

var traceNames = map[string]match.TraceFlags{
	"failures": match.TraceFailures,
	"commits":  match.TraceCommits,
	"rules":    match.TraceRules,
}

// Parse parses YAML configuration text.
// Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Environment variables read by FromEnv.
const (
	EnvBackend  = "ISEL_BACKEND"
	EnvParallel = "ISEL_PARALLEL"
	EnvTrace    = "ISEL_TRACE"
)

// FromEnv overrides fields of c from the environment.
// ISEL_TRACE is a comma-separated list of categories.
func FromEnv(c *Config) error {
	if v := os.Getenv(EnvBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvParallel); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvParallel, err)
		}
		c.Parallel = n
	}
	if v := os.Getenv(EnvTrace); v != "" {
		c.Trace = strings.Split(v, ",")
	}
	return c.Validate()
}

// Validate checks the values of c.
func (c *Config) Validate() error {
	if c.Parallel < 0 {
		return fmt.Errorf("config: %w: parallel %d", ErrInvalid, c.Parallel)
	}
	if _, err := c.TraceFlags(); err != nil {
		return err
	}
	return nil
}

// TraceFlags returns the trace flags named by c.Trace.
func (c *Config) TraceFlags() (match.TraceFlags, error) {
	var flags match.TraceFlags
	for _, name := range c.Trace {
		f, ok := traceNames[strings.TrimSpace(name)]
		if !ok {
			return 0, fmt.Errorf("config: %w: unknown trace category %q", ErrInvalid, name)
		}
		flags |= f
	}
	return flags, nil
}

type zstdFile struct {
	*zstd.Encoder
	f *os.File
}

func (z *zstdFile) Close() error {
	err := z.Encoder.Close()
	if err2 := z.f.Close(); err == nil {
		err = err2
	}
	return err
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// OpenTrace opens the trace output. The
// caller must close it to flush the trace.
func (c *Config) OpenTrace() (io.WriteCloser, error) {
	if c.TraceFile == "" {
		return nopCloser{os.Stderr}, nil
	}
	f, err := os.Create(c.TraceFile)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(c.TraceFile, ".zst") {
		return f, nil
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderConcurrency(1))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &zstdFile{Encoder: enc, f: f}, nil
}
