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

// Command matchgen compiles matcher rules files
// into a Go table of match.Statement values.
//
// Usage:
//
//	matchgen -pkg amd64 -var baseRules -o zrules_base.go base.rules
//	matchgen -check -o zrules_base.go base.rules
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/SnellerInc/isel/gen"
)

var (
	dashpkg   string
	dashvar   string
	dasho     string
	dashcheck bool
)

func init() {
	flag.StringVar(&dashpkg, "pkg", "", "package name of the output file (default: $GOPACKAGE)")
	flag.StringVar(&dashvar, "var", "rules", "name of the generated variable")
	flag.StringVar(&dasho, "o", "-", "output file (- means stdout)")
	flag.BoolVar(&dashcheck, "check", false, "verify the output file is up to date instead of writing it")
}

func exitf(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

func sources(names []string) []gen.Source {
	if len(names) == 0 {
		exitf("usage: matchgen [-pkg name] [-var name] [-o file] file.rules...\n")
	}
	srcs := make([]gen.Source, len(names))
	for i, name := range names {
		buf, err := os.ReadFile(name)
		if err != nil {
			log.Fatal(err)
		}
		srcs[i] = gen.Source{Name: name, Data: buf}
	}
	return srcs
}

func main() {
	flag.Parse()
	srcs := sources(flag.Args())
	if dashcheck {
		if dasho == "-" {
			exitf("matchgen: -check needs -o\n")
		}
		f, err := os.Open(dasho)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		if err := gen.Check(f, srcs); err != nil {
			exitf("%s: %s (re-run go generate)\n", dasho, err)
		}
		return
	}
	if dashpkg == "" {
		dashpkg = os.Getenv("GOPACKAGE")
		if dashpkg == "" {
			exitf("matchgen: -pkg not set and $GOPACKAGE is empty\n")
		}
	}
	var buf bytes.Buffer
	if err := gen.Write(&buf, dashpkg, dashvar, srcs); err != nil {
		log.Fatal(err)
	}
	if dasho == "-" {
		os.Stdout.Write(buf.Bytes())
		return
	}
	// the output is read-only so that it
	// does not get edited by hand
	const rdonly = 0444
	if err := os.Remove(dasho); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal(err)
	}
	if err := os.WriteFile(dasho, buf.Bytes(), rdonly); err != nil {
		log.Fatal(err)
	}
}
