/*
Copyright 2011 Google Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command mediarepo is the CLI front end for a personal media
// repository: importing files, editing their records, searching, and
// dumping/loading the index. Subcommands follow the same registry
// style as Perkeep's camput/camget/camtool tools, trimmed to a
// single flat map instead of pulling in Perkeep's pkg/cmdmain.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
)

// CommandRunner is one subcommand: it parses its own flags from args
// and executes against the shared app state.
type CommandRunner interface {
	Usage()
	RunCommand(a *app, args []string) error
}

var commands = make(map[string]CommandRunner)

func registerCommand(name string, c CommandRunner) {
	if _, dup := commands[name]; dup {
		panic("mediarepo: duplicate command " + name)
	}
	commands[name] = c
}

var (
	flagConfig = flag.String("config", "", "path to the repository JSON config file")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: mediarepo [globalopts] <command> [commandopts] [commandargs]\n\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(os.Stderr, "Commands:\n")
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\n", name)
	}
	fmt.Fprintf(os.Stderr, "\nRun \"mediarepo <command> -help\" for command-specific flags.\n")
}

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "mediarepo: unknown command %q\n\n", name)
		usage()
		os.Exit(2)
	}

	a, err := newApp(*flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mediarepo: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := cmd.RunCommand(a, args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "mediarepo %s: %v\n", name, err)
		os.Exit(1)
	}
}
