package types

// Error codes emitted by the linker phases.
// Centralizing these prevents silent breakage from typos in string literals.

// Module table and path resolution codes.
const (
	CodeInvalidPath          = "invalid-path"
	CodeRelativeEscapesRoot  = "relative-escapes-root"
	CodePathSegmentNotFound  = "path-segment-not-found"
	CodeNotAModule           = "not-a-module"
	CodeDepthLimitExceeded   = "depth-limit-exceeded"
	CodeSourceNotFound       = "source-not-found"
	CodeSourceUnreadable     = "source-unreadable"
	CodeParseError           = "parse-error"
	CodeDuplicateDeclaration = "duplicate-declaration"
)

// Import binding codes.
const (
	CodeAmbiguousImport   = "ambiguous-import"
	CodeItemNotFound      = "item-not-found"
	CodeNotImportable     = "not-importable"
	CodeImportResolution  = "import-resolution"
	CodeNamespaceNotValue = "namespace-not-value"
)

// Reachability, mangling and directive codes.
const (
	CodeCyclicValueDependency = "cyclic-value-dependency"
	CodeNameCollision         = "name-collision"
	CodeDirectiveConflict     = "directive-conflict"
)

// AllCodes returns all known error codes grouped by kind.
func AllCodes() []CodeInfo {
	return []CodeInfo{
		// Path resolution
		{Code: CodeInvalidPath, Kind: KindPathResolution},
		{Code: CodeRelativeEscapesRoot, Kind: KindPathResolution},
		{Code: CodePathSegmentNotFound, Kind: KindPathResolution},
		{Code: CodeNotAModule, Kind: KindPathResolution},
		{Code: CodeDepthLimitExceeded, Kind: KindPathResolution},
		// Sources and parsing
		{Code: CodeSourceNotFound, Kind: KindSourceNotFound},
		{Code: CodeSourceUnreadable, Kind: KindSourceNotFound},
		{Code: CodeParseError, Kind: KindParse},
		{Code: CodeDuplicateDeclaration, Kind: KindParse},
		// Import binding
		{Code: CodeAmbiguousImport, Kind: KindImportBinding},
		{Code: CodeItemNotFound, Kind: KindImportBinding},
		{Code: CodeNotImportable, Kind: KindImportBinding},
		{Code: CodeImportResolution, Kind: KindImportBinding},
		{Code: CodeNamespaceNotValue, Kind: KindImportBinding},
		// Later phases
		{Code: CodeCyclicValueDependency, Kind: KindReachability},
		{Code: CodeNameCollision, Kind: KindMangleCollision},
		{Code: CodeDirectiveConflict, Kind: KindDirectiveConflict},
	}
}

// CodeInfo describes an error code and the kind it belongs to.
type CodeInfo struct {
	Code string
	Kind Kind
}

// KindOf returns the kind a code belongs to, or KindUnknown.
func KindOf(code string) Kind {
	for _, info := range AllCodes() {
		if info.Code == code {
			return info.Kind
		}
	}
	return KindUnknown
}
