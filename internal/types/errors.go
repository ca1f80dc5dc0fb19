package types

import (
	"fmt"
	"strings"

	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// Kind groups error codes into the linker's error taxonomy.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindPathResolution
	KindImportBinding
	KindReachability
	KindMangleCollision
	KindDirectiveConflict
	KindParse
	KindSourceNotFound
)

var kindNames = [...]string{
	KindUnknown:           "unknown",
	KindPathResolution:    "path resolution",
	KindImportBinding:     "import binding",
	KindReachability:      "reachability",
	KindMangleCollision:   "mangle collision",
	KindDirectiveConflict: "directive conflict",
	KindParse:             "parse",
	KindSourceNotFound:    "source not found",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Error is the structured error returned by every linker phase.
type Error struct {
	Kind Kind
	Code string
	// Module is the key of the module where the problem was found.
	Module string
	// Ident is the offending identifier or path segment.
	Ident string
	// File, Line and Column locate the problem when known.
	File   string
	Line   int
	Column int
	// Chain lists the participants of a cycle or collision, in order.
	Chain   []string
	Message string
	Err     error
}

// Errorf returns an Error with the kind derived from code.
func Errorf(code, module, ident, format string, args ...any) *Error {
	return &Error{
		Kind:    KindOf(code),
		Code:    code,
		Module:  module,
		Ident:   ident,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
// Format: "module:line:col: message [code]" with location parts omitted when unset.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Module != "" {
		b.WriteString(e.Module)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
			if e.Column > 0 {
				fmt.Fprintf(&b, ":%d", e.Column)
			}
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		if e.Message != "" {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	if e.Code != "" {
		b.WriteString(" [")
		b.WriteString(e.Code)
		b.WriteByte(']')
	}
	return b.String()
}

// FormatWithContext returns the error with the offending line of source
// and a caret under the reported column. Without a position it returns
// Error().
func (e *Error) FormatWithContext(source string) string {
	if source == "" || e.Line == 0 {
		return e.Error()
	}
	lines := strings.Split(source, "\n")
	if e.Line > len(lines) {
		return e.Error()
	}
	line := lines[e.Line-1]
	col := min(max(e.Column, 1), len(line)+1)

	var sb strings.Builder
	fmt.Fprintf(&sb, "error: %s\n", e.Error())
	where := e.File
	if where == "" {
		where = e.Module
	}
	fmt.Fprintf(&sb, "  --> %s:%d:%d\n", where, e.Line, col)
	sb.WriteString("   |\n")
	fmt.Fprintf(&sb, "%3d| %s\n", e.Line, line)
	fmt.Fprintf(&sb, "   | %s^\n", strings.Repeat(" ", col-1))
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code, so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// At fills in the source location of span within mod and returns e.
func (e *Error) At(mod *syntax.Module, span syntax.Span) *Error {
	if mod == nil {
		return e
	}
	e.File = mod.File
	if mod.Lines != nil {
		e.Line, e.Column = mod.Lines.Position(span.Start)
	}
	return e
}

// Sentinel errors for use with errors.Is.
var (
	ErrInvalidPath           = &Error{Kind: KindPathResolution, Code: CodeInvalidPath}
	ErrRelativeEscapesRoot   = &Error{Kind: KindPathResolution, Code: CodeRelativeEscapesRoot}
	ErrPathSegmentNotFound   = &Error{Kind: KindPathResolution, Code: CodePathSegmentNotFound}
	ErrNotAModule            = &Error{Kind: KindPathResolution, Code: CodeNotAModule}
	ErrDepthLimitExceeded    = &Error{Kind: KindPathResolution, Code: CodeDepthLimitExceeded}
	ErrSourceNotFound        = &Error{Kind: KindSourceNotFound, Code: CodeSourceNotFound}
	ErrParse                 = &Error{Kind: KindParse, Code: CodeParseError}
	ErrAmbiguousImport       = &Error{Kind: KindImportBinding, Code: CodeAmbiguousImport}
	ErrItemNotFound          = &Error{Kind: KindImportBinding, Code: CodeItemNotFound}
	ErrNotImportable         = &Error{Kind: KindImportBinding, Code: CodeNotImportable}
	ErrImportResolution      = &Error{Kind: KindImportBinding, Code: CodeImportResolution}
	ErrNamespaceNotValue     = &Error{Kind: KindImportBinding, Code: CodeNamespaceNotValue}
	ErrCyclicValueDependency = &Error{Kind: KindReachability, Code: CodeCyclicValueDependency}
	ErrNameCollision         = &Error{Kind: KindMangleCollision, Code: CodeNameCollision}
	ErrDirectiveConflict     = &Error{Kind: KindDirectiveConflict, Code: CodeDirectiveConflict}
)
