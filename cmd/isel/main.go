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

// Command isel runs instruction selection over
// functions in the textual IR format and prints
// the selected pseudo-assembly.
//
// Usage:
//
//	isel [-c config.yaml] [-backend name] [-j n] [-trace list] [-tracefile file] file.ir...
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/SnellerInc/isel/backend"
	_ "github.com/SnellerInc/isel/backend/amd64"
	_ "github.com/SnellerInc/isel/backend/arm64"
	"github.com/SnellerInc/isel/config"
	"github.com/SnellerInc/isel/ir"
	"github.com/SnellerInc/isel/lower"
	"github.com/SnellerInc/isel/match"
)

var (
	dashc       string
	dashbackend string
	dashj       int
	dashtrace   string
	dashtracef  string
	dashv       bool
	dashstats   bool
	dashlist    bool
)

func init() {
	flag.StringVar(&dashc, "c", "", "configuration file (YAML)")
	flag.StringVar(&dashbackend, "backend", "", "backend to use (default: detect from the host, or $ISEL_BACKEND)")
	flag.IntVar(&dashj, "j", 0, "number of blocks to match in parallel (default: GOMAXPROCS)")
	flag.StringVar(&dashtrace, "trace", "", "comma-separated trace categories (failures, commits, rules)")
	flag.StringVar(&dashtracef, "tracefile", "", "trace output file (default: stderr; .zst compresses)")
	flag.BoolVar(&dashv, "v", false, "log a summary of each compilation")
	flag.BoolVar(&dashstats, "stats", false, "print match statistics after each function")
	flag.BoolVar(&dashlist, "list", false, "list the available backends and exit")
}

func exitf(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

func loadConfig() *config.Config {
	cfg := &config.Config{}
	if dashc != "" {
		var err error
		cfg, err = config.Load(dashc)
		if err != nil {
			exitf("%s\n", err)
		}
	}
	if err := config.FromEnv(cfg); err != nil {
		exitf("%s\n", err)
	}
	if dashbackend != "" {
		cfg.Backend = dashbackend
	}
	if dashj > 0 {
		cfg.Parallel = dashj
	}
	if dashtrace != "" {
		cfg.Trace = strings.Split(dashtrace, ",")
	}
	if dashtracef != "" {
		cfg.TraceFile = dashtracef
	}
	if cfg.Parallel == 0 {
		cfg.Parallel = runtime.GOMAXPROCS(0)
	}
	if err := cfg.Validate(); err != nil {
		exitf("%s\n", err)
	}
	return cfg
}

func pick(cfg *config.Config) lower.Backend {
	var be lower.Backend
	var err error
	if cfg.Backend != "" {
		be, err = backend.Get(cfg.Backend)
	} else {
		be, err = backend.Detect(runtime.GOARCH)
	}
	if err != nil {
		exitf("%s\n", err)
	}
	return be
}

func main() {
	flag.Parse()
	if dashlist {
		for _, name := range backend.Names() {
			be, _ := backend.Get(name)
			if p := be.Type().Parent(); p != match.RootBackend {
				fmt.Printf("%s (extends %s)\n", name, p.Name())
			} else {
				fmt.Println(name)
			}
		}
		return
	}
	cfg := loadConfig()
	be := pick(cfg)

	flags, _ := cfg.TraceFlags()
	var tw io.WriteCloser
	if flags != 0 {
		var err error
		tw, err = cfg.OpenTrace()
		if err != nil {
			exitf("opening trace: %s\n", err)
		}
		match.Trace(tw, flags)
	}

	opts := []lower.Option{lower.WithParallel(cfg.Parallel)}
	if dashv {
		opts = append(opts, lower.WithLogger(log.New(os.Stderr, "", log.LstdFlags)))
	}

	args := flag.Args()
	if len(args) == 0 {
		args = []string{"-"}
	}
	o := bufio.NewWriter(os.Stdout)
	status := 0
	for _, arg := range args {
		if err := run(o, arg, be, opts); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", arg, err)
			status = 1
		}
	}
	if err := o.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		status = 1
	}
	if tw != nil {
		match.Trace(nil, 0)
		if err := tw.Close(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			status = 1
		}
	}
	os.Exit(status)
}

func run(o io.Writer, arg string, be lower.Backend, opts []lower.Option) error {
	in := os.Stdin
	if arg != "-" {
		f, err := os.Open(arg)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	fn, err := ir.Parse(in)
	if err != nil {
		return err
	}
	p, err := lower.Compile(context.Background(), fn, be, opts...)
	if err != nil {
		return err
	}
	if _, err := p.WriteTo(o); err != nil {
		return err
	}
	if dashstats {
		fmt.Fprintf(o, "; %s: %s\n", p.Backend, &p.Stats)
	}
	return nil
}
