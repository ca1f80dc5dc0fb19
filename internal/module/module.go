// Package module owns the set of loaded source modules for one link.
//
// A Table maps canonical module paths to parsed modules. Loading is lazy,
// memoized by path key and coalesced so that concurrent requests for the
// same path share one fetch and parse. A path with no source yields an
// empty module flagged Missing rather than an error; the resolver decides
// whether an empty module is acceptable where it is used.
//
// The table is created per link and discarded afterwards. It is written
// only while loading and is read-only once resolution starts.
package module

import (
	"io"

	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// Source fetches module text by canonical path.
type Source interface {
	// Find returns the module's content and a location for diagnostics,
	// or an error wrapping fs.ErrNotExist when the module has no source.
	Find(path syntax.ModulePath) (io.ReadCloser, string, error)
}

// Parser turns module text into a syntax model.
type Parser interface {
	Parse(path syntax.ModulePath, file string, source []byte) (*syntax.Module, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(path syntax.ModulePath, file string, source []byte) (*syntax.Module, error)

// Parse calls f.
func (f ParserFunc) Parse(path syntax.ModulePath, file string, source []byte) (*syntax.Module, error) {
	return f(path, file, source)
}

// Module is a loaded module.
type Module struct {
	*syntax.Module
	// Missing is set when no source exists for the path. Missing modules
	// have no declarations.
	Missing bool

	fromSource bool
}

// Key returns the module's canonical path key.
func (m *Module) Key() string {
	return m.Path.Key()
}

// HasSource reports whether the module was parsed from source text.
// Package roots without a file and missing modules have none.
func (m *Module) HasSource() bool {
	return m.fromSource
}

func emptyModule(path syntax.ModulePath, missing bool) *Module {
	mod := &syntax.Module{Path: path}
	mod.BuildIndex()
	return &Module{Module: mod, Missing: missing}
}
