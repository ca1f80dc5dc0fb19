// Package cliutil provides shared CLI utilities for the wesl command-line tools.
package cliutil

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"

	"github.com/wgsl-tooling-wg/wesl-go"
)

var (
	ErrorColorFG = pterm.FgRed
	ErrorStyleBG = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	WarnColorFG  = pterm.FgYellow
	WarnStyleBG  = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	InfoColorFG  = pterm.FgLightGreen
	InfoStyleBG  = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
)

// Flags holds the global flags shared by every subcommand.
type Flags struct {
	Verbose  int
	Paths    []string
	Config   string
	NoColor  bool
	HelpFlag bool
}

// ParseArgs parses global flags and extracts the subcommand from args.
// Flags handled: -v/--verbose, -vv, -p/--path, -c/--config, --no-color,
// -h/--help. Unrecognized flags are passed through to the subcommand.
func ParseArgs(args []string) (flags Flags, cmd string, cmdArgs []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help":
			flags.HelpFlag = true
		case arg == "-v" || arg == "--verbose":
			if flags.Verbose < 1 {
				flags.Verbose = 1
			}
		case arg == "-vv":
			flags.Verbose = 2
		case arg == "--no-color":
			flags.NoColor = true
		case arg == "-p" || arg == "--path":
			if i+1 < len(args) {
				i++
				flags.Paths = append(flags.Paths, args[i])
			}
		case strings.HasPrefix(arg, "--path="):
			flags.Paths = append(flags.Paths, arg[7:])
		case arg == "-c" || arg == "--config":
			if i+1 < len(args) {
				i++
				flags.Config = args[i]
			}
		case strings.HasPrefix(arg, "--config="):
			flags.Config = arg[9:]
		case len(arg) > 0 && arg[0] == '-':
			cmdArgs = append(cmdArgs, arg)
		default:
			if cmd == "" {
				cmd = arg
			} else {
				cmdArgs = append(cmdArgs, arg)
			}
		}
	}
	return
}

// GetOutput opens the output file or returns stdout.
func GetOutput(outputFile string) (*os.File, func(), error) {
	if outputFile == "" || outputFile == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// PrintError writes a formatted error message to stderr behind a red tag.
func PrintError(format string, args ...any) {
	pterm.Fprintln(os.Stderr, ErrorStyleBG.Sprint("error")+" "+ErrorColorFG.Sprintf(format, args...))
}

// PrintWarning writes a formatted warning to stderr behind a yellow tag.
func PrintWarning(format string, args ...any) {
	pterm.Fprintln(os.Stderr, WarnStyleBG.Sprint("warning")+" "+WarnColorFG.Sprintf(format, args...))
}

// PrintInfo writes a formatted note to stderr behind a green tag.
func PrintInfo(format string, args ...any) {
	pterm.Fprintln(os.Stderr, InfoStyleBG.Sprint("info")+" "+InfoColorFG.Sprintf(format, args...))
}

// PrintLinkError reports a link failure. Errors with a source position are
// shown with the offending line when the file can be read.
func PrintLinkError(err error) {
	var linkErr *wesl.Error
	if !errors.As(err, &linkErr) {
		PrintError("%v", err)
		return
	}
	pterm.Fprintln(os.Stderr, ErrorStyleBG.Sprint(linkErr.Kind.String()+" error"))
	if linkErr.File != "" && linkErr.Line > 0 {
		if src, readErr := os.ReadFile(linkErr.File); readErr == nil {
			pterm.Fprint(os.Stderr, ErrorColorFG.Sprint(linkErr.FormatWithContext(string(src))))
			return
		}
	}
	pterm.Fprintln(os.Stderr, ErrorColorFG.Sprint(linkErr.Error()))
	for _, c := range linkErr.Chain {
		fmt.Fprintln(os.Stderr, "  -> "+c)
	}
}
