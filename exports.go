package wesl

import (
	"github.com/wgsl-tooling-wg/wesl-go/internal/mangle"
	"github.com/wgsl-tooling-wg/wesl-go/internal/types"
	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// Type aliases for the public API.

// Error is a link failure: its Kind names the phase, its Code the problem.
type Error = types.Error

// ErrorKind identifies the phase an error came from.
type ErrorKind = types.Kind

// Error kinds.
const (
	KindPathResolution    = types.KindPathResolution
	KindImportBinding     = types.KindImportBinding
	KindReachability      = types.KindReachability
	KindMangleCollision   = types.KindMangleCollision
	KindDirectiveConflict = types.KindDirectiveConflict
	KindParse             = types.KindParse
	KindSourceNotFound    = types.KindSourceNotFound
)

// ModulePath identifies a module, such as package::util::math.
type ModulePath = syntax.ModulePath

// Sentinel errors for use with errors.Is.
var (
	ErrInvalidPath           = types.ErrInvalidPath
	ErrRelativeEscapesRoot   = types.ErrRelativeEscapesRoot
	ErrPathSegmentNotFound   = types.ErrPathSegmentNotFound
	ErrNotAModule            = types.ErrNotAModule
	ErrDepthLimitExceeded    = types.ErrDepthLimitExceeded
	ErrSourceNotFound        = types.ErrSourceNotFound
	ErrParse                 = types.ErrParse
	ErrAmbiguousImport       = types.ErrAmbiguousImport
	ErrItemNotFound          = types.ErrItemNotFound
	ErrNotImportable         = types.ErrNotImportable
	ErrImportResolution      = types.ErrImportResolution
	ErrNamespaceNotValue     = types.ErrNamespaceNotValue
	ErrCyclicValueDependency = types.ErrCyclicValueDependency
	ErrNameCollision         = types.ErrNameCollision
	ErrDirectiveConflict     = types.ErrDirectiveConflict
)

// Mangle returns the output name for a declaration at the given full path,
// for example ["package", "util", "draw_now"] becomes
// "package_util_draw__now".
func Mangle(segments ...string) string {
	return mangle.Mangle(segments)
}

// Unmangle reverses Mangle.
func Unmangle(name string) []string {
	return mangle.Unmangle(name)
}
