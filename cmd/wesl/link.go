package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/wgsl-tooling-wg/wesl-go"
	"github.com/wgsl-tooling-wg/wesl-go/cmd/internal/cliutil"
)

const linkUsage = `wesl link - Link a root module into one WGSL file

Usage:
  wesl link [options] [ROOT]

ROOT is a module path such as main or package::util::main. Without it the
root named in wesl.toml is linked.

Options:
  -o, --output FILE     Write WGSL to FILE instead of stdout
  --source-map FILE     Write a YAML source map to FILE
  --keep-root           Keep every root declaration, not only entry points
  --allow-cycles        Emit cyclic declarations instead of failing
  --search-path         Look up packages on WESL_PATH and ~/.wesl/packages
  --max-depth N         Limit module nesting and re-export chains
  --stats               Print the contributing modules to stderr
  -h, --help            Show help

Examples:
  wesl link main
  wesl link -o out.wgsl --source-map out.map.yaml main
  wesl link -p shaders -p shapes=vendor/shapes --keep-root package
`

func (c *cli) cmdLink(args []string) int {
	fs := flag.NewFlagSet("link", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, linkUsage) }

	output := fs.String("o", "", "output file")
	fs.StringVar(output, "output", "", "output file")
	sourceMap := fs.String("source-map", "", "source map file")
	keepRoot := fs.Bool("keep-root", false, "keep every root declaration")
	allowCycles := fs.Bool("allow-cycles", false, "emit cyclic declarations")
	searchPath := fs.Bool("search-path", false, "use WESL_PATH packages")
	maxDepth := fs.Int("max-depth", 0, "module nesting limit")
	stats := fs.Bool("stats", false, "print contributing modules")
	help := fs.Bool("h", false, "show help")
	fs.BoolVar(help, "help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return exitError
	}

	if *help || c.HelpFlag {
		_, _ = fmt.Fprint(os.Stdout, linkUsage)
		return exitOK
	}

	if fs.NArg() > 1 {
		cliutil.PrintError("expected one root module, got %s", strings.Join(fs.Args(), " "))
		fmt.Fprint(os.Stderr, linkUsage)
		return exitError
	}

	opts, defaultRoot, err := c.sourceOptions()
	if err != nil {
		cliutil.PrintError("%v", err)
		return exitError
	}
	root := fs.Arg(0)
	if root == "" {
		root = defaultRoot
	}
	if root == "" {
		root = wesl.DefaultRoot
	}

	if logger := c.setupLogger(); logger != nil {
		opts = append(opts, wesl.WithLogger(logger))
	}
	if *keepRoot {
		opts = append(opts, wesl.WithKeepRoot())
	}
	if *allowCycles {
		opts = append(opts, wesl.WithCycleCheck(wesl.CycleIgnore))
	}
	if *searchPath {
		opts = append(opts, wesl.WithSearchPath())
	}
	if *maxDepth > 0 {
		opts = append(opts, wesl.WithMaxDepth(*maxDepth))
	}
	if *sourceMap != "" {
		opts = append(opts, wesl.WithSourceMap())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := wesl.Link(ctx, root, opts...)
	if err != nil {
		cliutil.PrintLinkError(err)
		return exitError
	}

	out, cleanup, err := cliutil.GetOutput(*output)
	if err != nil {
		cliutil.PrintError("failed to open output: %v", err)
		return exitError
	}
	defer cleanup()
	if _, err := out.WriteString(res.Code); err != nil {
		cliutil.PrintError("failed to write output: %v", err)
		return exitError
	}

	if *sourceMap != "" {
		if err := writeSourceMap(*sourceMap, res.SourceMap); err != nil {
			cliutil.PrintError("failed to write source map: %v", err)
			return exitError
		}
	}

	if *stats {
		cliutil.PrintInfo("linked %s from %d modules", root, len(res.Modules))
		for _, m := range res.Modules {
			fmt.Fprintln(os.Stderr, "  "+m)
		}
	}
	return exitOK
}

func writeSourceMap(path string, sm *wesl.SourceMap) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sm.WriteYAML(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
