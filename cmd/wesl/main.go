// Command wesl links WESL shader modules into a single WGSL file.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"

	"github.com/pterm/pterm"

	"github.com/wgsl-tooling-wg/wesl-go"
	"github.com/wgsl-tooling-wg/wesl-go/cmd/internal/cliutil"
)

// Exit codes.
const (
	exitOK    = 0 // success
	exitError = 1 // user error or link failure
)

const usage = `wesl - WESL module linker

Usage:
  wesl <command> [options] [arguments]

Commands:
  link      Link a root module and its imports into one WGSL file
  mangle    Show the output name of a declaration path
  unmangle  Show the declaration path behind a mangled name
  paths     Show packages found on the search path
  version   Show version

Common options:
  -p, --path DIR        Add a module directory; NAME=DIR adds an external package (repeatable)
  -c, --config FILE     Use this wesl.toml instead of searching for one
  -v, --verbose         Enable debug logging
  -vv                   Enable trace logging (implies -v)
  --no-color            Disable colored output
  -h, --help            Show help

Examples:
  wesl link main
  wesl link -o out.wgsl -p shaders -p bevy=vendor/bevy main
  wesl mangle package::lights::point::attenuate
  wesl unmangle package_lights_point_attenuate
`

type cli struct {
	cliutil.Flags
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags, cmd, cmdArgs := cliutil.ParseArgs(args)
	c := &cli{Flags: flags}
	if c.NoColor {
		pterm.DisableColor()
	}

	if c.HelpFlag && cmd == "" {
		_, _ = fmt.Fprint(os.Stdout, usage)
		return exitOK
	}

	if cmd == "" {
		_, _ = fmt.Fprint(os.Stderr, usage)
		return exitError
	}

	switch cmd {
	case "link":
		return c.cmdLink(cmdArgs)
	case "mangle":
		return c.cmdMangle(cmdArgs)
	case "unmangle":
		return c.cmdUnmangle(cmdArgs)
	case "paths":
		return c.cmdPaths(cmdArgs)
	case "version":
		printVersion()
		return exitOK
	case "help":
		_, _ = fmt.Fprint(os.Stdout, usage)
		return exitOK
	default:
		cliutil.PrintError("unknown command: %s", cmd)
		_, _ = fmt.Fprint(os.Stderr, usage)
		return exitError
	}
}

func (c *cli) setupLogger() *slog.Logger {
	if c.Verbose == 0 {
		return nil
	}
	level := slog.LevelDebug
	if c.Verbose >= 2 {
		level = wesl.LevelTrace
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// sourceOptions returns the link options for the -p paths, or for the
// project file when no path was given. The second result is the project's
// default root module, if a project file was used.
func (c *cli) sourceOptions() ([]wesl.LinkOption, string, error) {
	if len(c.Paths) > 0 {
		var opts []wesl.LinkOption
		for _, p := range c.Paths {
			var (
				src wesl.Source
				err error
			)
			if name, dir, ok := strings.Cut(p, "="); ok {
				src, err = wesl.Dir(dir, wesl.AsPackage(name))
			} else {
				src, err = wesl.Dir(p)
			}
			if err != nil {
				cliutil.PrintWarning("cannot access path %s: %v", p, err)
				continue
			}
			opts = append(opts, wesl.WithSource(src))
		}
		if len(opts) == 0 {
			return nil, "", wesl.ErrNoSources
		}
		return opts, "", nil
	}

	file := c.Config
	if file == "" {
		found, err := wesl.FindConfig(".")
		if err != nil {
			return nil, "", fmt.Errorf("no %s found and no -p path given", wesl.ConfigFileName)
		}
		file = found
	}
	cfg, err := wesl.LoadConfig(file)
	if err != nil {
		return nil, "", err
	}
	return []wesl.LinkOption{wesl.WithConfig(cfg)}, cfg.Root, nil
}

func printVersion() {
	version := "(devel)"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		version = info.Main.Version
	}
	fmt.Printf("wesl %s\n", version)
}
