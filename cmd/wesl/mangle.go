package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/wgsl-tooling-wg/wesl-go"
	"github.com/wgsl-tooling-wg/wesl-go/cmd/internal/cliutil"
)

const mangleUsage = `wesl mangle - Show the output name of a declaration path

Usage:
  wesl mangle PATH...

Each PATH names a declaration, such as package::util::helper. A bare
name is taken to be declared in the project's root module.

Examples:
  wesl mangle package::lights::point::attenuate
  wesl mangle bevy::ui::quad::corner_radius
`

const unmangleUsage = `wesl unmangle - Show the declaration path behind a mangled name

Usage:
  wesl unmangle NAME...

Examples:
  wesl unmangle package_lights_point_attenuate
  wesl unmangle bevy_ui_quad_corner__radius
`

func (c *cli) cmdMangle(args []string) int {
	paths, code, done := parseNames("mangle", mangleUsage, c.HelpFlag, args)
	if done {
		return code
	}
	for _, p := range paths {
		segs := strings.Split(p, "::")
		if len(segs) == 1 {
			segs = []string{"package", segs[0]}
		}
		fmt.Println(wesl.Mangle(segs...))
	}
	return exitOK
}

func (c *cli) cmdUnmangle(args []string) int {
	names, code, done := parseNames("unmangle", unmangleUsage, c.HelpFlag, args)
	if done {
		return code
	}
	for _, n := range names {
		fmt.Println(strings.Join(wesl.Unmangle(n), "::"))
	}
	return exitOK
}

// parseNames handles the flags shared by mangle and unmangle. When done is
// true the command should exit with code.
func parseNames(name, usage string, helpFlag bool, args []string) (names []string, code int, done bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	help := fs.Bool("h", false, "show help")
	fs.BoolVar(help, "help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return nil, exitError, true
	}
	if *help || helpFlag {
		_, _ = fmt.Fprint(os.Stdout, usage)
		return nil, exitOK, true
	}
	if fs.NArg() == 0 {
		cliutil.PrintError("no names specified")
		fmt.Fprint(os.Stderr, usage)
		return nil, exitError, true
	}
	return fs.Args(), exitOK, false
}
