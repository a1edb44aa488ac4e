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

package isel

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/exp/slices"
)

const module = "github.com/SnellerInc/isel"

// layers lists, for the core packages,
// the packages of this module they may import
var layers = map[string][]string{
	module + "/ir":    nil,
	module + "/rules": nil,
	module + "/match": {module + "/ir"},
	module + "/gen":   {module + "/ir", module + "/match", module + "/rules"},
	module + "/lower": {module + "/ir", module + "/match"},
}

func TestImports(t *testing.T) {
	lines, err := exec.Command("go", "list", "./...").CombinedOutput()
	if err != nil {
		t.Fatal(err)
	}
	type goPackage struct {
		ImportPath string   `json:"ImportPath"`
		Imports    []string `json:"Imports"`
	}
	failed := make(chan string, 1)
	var wg sync.WaitGroup
	s := bufio.NewScanner(bytes.NewReader(lines))
	for s.Scan() {
		wg.Add(1)
		go func(pkgname string) {
			defer wg.Done()
			desc, err := exec.Command("go", "list", "-json", pkgname).CombinedOutput()
			if err != nil {
				panic(err)
			}
			var pkg goPackage
			err = json.Unmarshal(desc, &pkg)
			if err != nil {
				panic(err)
			}
			if slices.Contains(pkg.Imports, "testing") {
				failed <- "package " + pkgname + " imports \"testing\""
			}
			allowed, ok := layers[pkg.ImportPath]
			if !ok {
				return
			}
			for _, imp := range pkg.Imports {
				if strings.HasPrefix(imp, module+"/") && !slices.Contains(allowed, imp) {
					failed <- "package " + pkgname + " imports " + imp
				}
			}
		}(s.Text())
	}
	go func() {
		wg.Wait()
		close(failed)
	}()
	for msg := range failed {
		t.Error(msg)
	}
}

func TestGofmt(t *testing.T) {
	out, err := exec.Command("go", "list", "-json", "./...").Output()
	if err != nil {
		t.Fatal(err)
	}
	type goPackage struct {
		Dir          string   `json:"Dir"`
		GoFiles      []string `json:"GoFiles"`
		TestGoFiles  []string `json:"TestGoFiles"`
		XTestGoFiles []string `json:"XTestGoFiles"`
	}
	var files []string
	dec := json.NewDecoder(bytes.NewReader(out))
	for dec.More() {
		var pkg goPackage
		if err := dec.Decode(&pkg); err != nil {
			t.Fatal(err)
		}
		for _, lst := range [][]string{pkg.GoFiles, pkg.TestGoFiles, pkg.XTestGoFiles} {
			for _, f := range lst {
				files = append(files, filepath.Join(pkg.Dir, f))
			}
		}
	}
	if len(files) == 0 {
		t.Fatal("no source files")
	}
	goroot, err := exec.Command("go", "env", "GOROOT").Output()
	if err != nil {
		t.Fatal(err)
	}
	gofmt := filepath.Join(strings.TrimSpace(string(goroot)), "bin", "gofmt")
	unformatted, err := exec.Command(gofmt, append([]string{"-l"}, files...)...).CombinedOutput()
	if err != nil {
		t.Fatalf("gofmt: %s: %s", err, unformatted)
	}
	if len(bytes.TrimSpace(unformatted)) != 0 {
		t.Errorf("files need gofmt:\n%s", unformatted)
	}
}
