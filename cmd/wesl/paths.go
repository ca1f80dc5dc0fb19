package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/wgsl-tooling-wg/wesl-go"
)

const pathsUsage = `wesl paths - Show packages found on the search path

Usage:
  wesl paths [options]

Shows the external packages that link --search-path would use: the
entries of WESL_PATH and the subdirectories of ~/.wesl/packages. When a
wesl.toml is found, its dependencies are listed first.

Options:
  -h, --help   Show help

Examples:
  wesl paths
  WESL_PATH=bevy=/opt/wesl/bevy wesl paths
`

func (c *cli) cmdPaths(args []string) int {
	fs := flag.NewFlagSet("paths", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, pathsUsage) }

	help := fs.Bool("h", false, "show help")
	fs.BoolVar(help, "help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return exitError
	}

	if *help || c.HelpFlag {
		_, _ = fmt.Fprint(os.Stdout, pathsUsage)
		return exitOK
	}

	var pkgs []wesl.PackageDir
	file := c.Config
	if file == "" {
		file, _ = wesl.FindConfig(".")
	}
	if file != "" {
		if cfg, err := wesl.LoadConfig(file); err == nil {
			for _, name := range cfg.Packages() {
				pkgs = append(pkgs, wesl.PackageDir{Name: name, Dir: cfg.Dependencies[name]})
			}
		}
	}
	pkgs = append(pkgs, wesl.DiscoverSearchPath()...)

	if len(pkgs) == 0 {
		fmt.Fprintln(os.Stderr, "no packages found")
		return exitOK
	}

	for _, p := range pkgs {
		fmt.Printf("%s\t%s\n", p.Name, p.Dir)
	}
	return exitOK
}
