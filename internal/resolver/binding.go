package resolver

import (
	"github.com/wgsl-tooling-wg/wesl-go/internal/module"
	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// BindingKind distinguishes the two things an import can bind.
type BindingKind uint8

const (
	// BindItem binds one declaration of a module.
	BindItem BindingKind = iota
	// BindNamespace binds a whole module; members are looked up on use.
	BindNamespace
)

func (k BindingKind) String() string {
	if k == BindNamespace {
		return "namespace"
	}
	return "item"
}

// Binding is what a local import name refers to.
type Binding struct {
	Kind   BindingKind
	Module syntax.ModulePath
	// Name is the declaration name for BindItem and empty for BindNamespace.
	Name string
}

// Item returns a binding to the declaration name in module path.
func Item(path syntax.ModulePath, name string) Binding {
	return Binding{Kind: BindItem, Module: path, Name: name}
}

// Namespace returns a binding to the module at path.
func Namespace(path syntax.ModulePath) Binding {
	return Binding{Kind: BindNamespace, Module: path}
}

// Equal reports whether two bindings have the same target.
func (b Binding) Equal(other Binding) bool {
	return b.Kind == other.Kind && b.Name == other.Name && b.Module.Equal(other.Module)
}

// String returns the fully qualified target.
func (b Binding) String() string {
	if b.Kind == BindNamespace {
		return b.Module.Key()
	}
	return b.Module.Key() + "::" + b.Name
}

// Alias is one named entry of a module's import scope.
type Alias struct {
	Name    string
	Binding Binding
}

// Target is a resolved declaration together with the module that owns it.
type Target struct {
	Module *module.Module
	Decl   *syntax.Decl
}

// Key returns "module::name", the declaration's fully qualified path.
func (t Target) Key() string {
	return t.Module.Key() + "::" + t.Decl.Name
}

// SegmentKind is the outcome of looking up one path segment.
type SegmentKind uint8

const (
	SegNotFound SegmentKind = iota
	SegDecl
	SegModule
)

func (k SegmentKind) String() string {
	switch k {
	case SegDecl:
		return "declaration"
	case SegModule:
		return "module"
	default:
		return "not found"
	}
}

// Segment is the tagged result of a single lookup step.
//
// For SegNotFound, Module may still hold the empty child module at that
// path so that a longer path can keep descending into directories that
// have no module file of their own.
type Segment struct {
	Kind   SegmentKind
	Decl   Target
	Module *module.Module
}

// Resolved is the outcome of resolving an identifier reference.
type Resolved struct {
	Target Target
	// Consumed is how many leading segments of the reference the target
	// accounts for; the rest are member accesses.
	Consumed int
	// Found is false for identifiers that name nothing in the module graph,
	// such as built-in types and functions.
	Found bool
}
