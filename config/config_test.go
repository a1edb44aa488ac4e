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

package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/SnellerInc/isel/match"
)

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
backend: amd64v3
parallel: 4
trace: [failures, rules]
traceFile: out.trace
`))
	if err != nil {
		t.Fatal(err)
	}
	if c.Backend != "amd64v3" || c.Parallel != 4 || c.TraceFile != "out.trace" {
		t.Errorf("got %+v", c)
	}
	flags, err := c.TraceFlags()
	if err != nil {
		t.Fatal(err)
	}
	if flags != match.TraceFailures|match.TraceRules {
		t.Errorf("got flags %d", flags)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		text    string
		invalid bool
	}{
		{"backend: amd64\nfrobs: 3\n", false},
		{"parallel: many\n", false},
		{"parallel: -1\n", true},
		{"trace: [everything]\n", true},
	}
	for _, tc := range tests {
		_, err := Parse([]byte(tc.text))
		if err == nil {
			t.Errorf("%q: expected an error", tc.text)
			continue
		}
		if errors.Is(err, ErrInvalid) != tc.invalid {
			t.Errorf("%q: got %v", tc.text, err)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "isel.yaml")
	if err := os.WriteFile(path, []byte("backend: arm64\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Backend != "arm64" {
		t.Errorf("got backend %q", c.Backend)
	}
	_, err = Load(filepath.Join(dir, "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v; wanted ErrNotExist", err)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvBackend, "arm64")
	t.Setenv(EnvParallel, "3")
	t.Setenv(EnvTrace, "commits, failures")
	c := &Config{Backend: "amd64", Parallel: 1}
	if err := FromEnv(c); err != nil {
		t.Fatal(err)
	}
	if c.Backend != "arm64" || c.Parallel != 3 {
		t.Errorf("got %+v", c)
	}
	flags, _ := c.TraceFlags()
	if flags != match.TraceCommits|match.TraceFailures {
		t.Errorf("got flags %d", flags)
	}

	t.Setenv(EnvParallel, "x")
	if err := FromEnv(c); err == nil {
		t.Error("expected an error for a bad ISEL_PARALLEL")
	}
}

func TestOpenTrace(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"trace.txt", "trace.zst"} {
		c := &Config{TraceFile: filepath.Join(dir, name)}
		w, err := c.OpenTrace()
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(w, "match: hello\n")
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		f, err := os.Open(c.TraceFile)
		if err != nil {
			t.Fatal(err)
		}
		var r io.Reader = f
		if strings.HasSuffix(name, ".zst") {
			dec, err := zstd.NewReader(f)
			if err != nil {
				t.Fatal(err)
			}
			defer dec.Close()
			r = dec
		}
		buf, err := io.ReadAll(r)
		f.Close()
		if err != nil {
			t.Fatal(err)
		}
		if string(buf) != "match: hello\n" {
			t.Errorf("%s: got %q", name, buf)
		}
	}
}
