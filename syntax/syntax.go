// Package syntax defines the declaration-level model of one WESL module.
//
// The model is what the linker consumes: module-scope declarations with the
// identifier references found inside them, import statements, and
// behavior-changing directives. Expression trees are not represented; the
// linker only needs to know where each free identifier sits in the source so
// that it can be rewritten during emission.
//
// Values of this package are produced by a parser (see wesl.WithParser) and
// are treated as immutable by the linker.
package syntax

// DeclKind identifies the kind of a module-scope declaration.
type DeclKind uint8

const (
	DeclStruct DeclKind = iota
	DeclFunction
	DeclAlias
	DeclConst
	DeclOverride
	DeclVar
	DeclConstAssert
)

var declKindNames = [...]string{
	DeclStruct:      "struct",
	DeclFunction:    "fn",
	DeclAlias:       "alias",
	DeclConst:       "const",
	DeclOverride:    "override",
	DeclVar:         "var",
	DeclConstAssert: "const_assert",
}

func (k DeclKind) String() string {
	if int(k) < len(declKindNames) {
		return declKindNames[k]
	}
	return "unknown"
}

// Attribute is an `@name(args)` annotation preceding a declaration.
type Attribute struct {
	Name string
	Span Span
}

// Entry point stage attributes.
const (
	StageVertex   = "vertex"
	StageFragment = "fragment"
	StageCompute  = "compute"
)

// Decl is a module-scope declaration.
type Decl struct {
	Kind DeclKind
	// Name is empty for const_assert.
	Name string
	// NameSpan locates the declared name; empty for const_assert.
	NameSpan Span
	// Span covers the full declaration including leading attributes.
	Span       Span
	Attributes []Attribute
	// Refs lists free identifier references in source order.
	Refs []Ref
	// Locals lists the parameter and local names declared inside, each once.
	Locals []string
}

// Stage returns the shader stage for entry point functions, or "".
func (d *Decl) Stage() string {
	if d.Kind != DeclFunction {
		return ""
	}
	for _, a := range d.Attributes {
		switch a.Name {
		case StageVertex, StageFragment, StageCompute:
			return a.Name
		}
	}
	return ""
}

// IsEntryPoint reports whether d is a shader entry point.
func (d *Decl) IsEntryPoint() bool {
	return d.Stage() != ""
}

// IsImportable reports whether other modules may bind d by name.
// Entry points and const_asserts are not importable.
func (d *Decl) IsImportable() bool {
	return d.Kind != DeclConstAssert && !d.IsEntryPoint()
}

// Ref is a reference to a module-scope name. Segments holds the chain as
// written: a single identifier, a member access chain `a.b` (Qualified false)
// or an inline module path `a::b::c` (Qualified true). Spans has one entry per
// segment.
type Ref struct {
	Segments  []string
	Spans     []Span
	Qualified bool
}

// Name returns the first segment.
func (r Ref) Name() string {
	return r.Segments[0]
}

// SpanOf returns the span covering the first n segments.
func (r Ref) SpanOf(n int) Span {
	n = min(max(n, 1), len(r.Spans))
	return r.Spans[0].Cover(r.Spans[n-1])
}

// ImportKind distinguishes the three import statement forms.
type ImportKind uint8

const (
	// ImportItem binds the item (declaration or module) at the end of Path.
	ImportItem ImportKind = iota
	// ImportCollection binds every child relative to Path.
	ImportCollection
	// ImportWildcard binds the module at Path as a namespace.
	ImportWildcard
)

// Import is one import statement or one entry in a collection.
type Import struct {
	Kind ImportKind
	// Path holds the segments as written, including leading relative markers.
	// For ImportItem the last segment is the imported name.
	Path     []string
	Alias    string
	Children []Import
	Span     Span
}

// FlatImport is one leaf of a possibly nested import statement.
type FlatImport struct {
	Segments []string
	Alias    string
	Wildcard bool
	Span     Span
}

// LocalName returns the name the import introduces into module scope.
func (f FlatImport) LocalName() string {
	if f.Alias != "" {
		return f.Alias
	}
	if len(f.Segments) == 0 {
		return ""
	}
	return f.Segments[len(f.Segments)-1]
}

// Flatten expands collections so that `a/{b, c/{d, e as f}}` yields
// `a/b`, `a/c/d` and `a/c/e as f`.
func (imp Import) Flatten() []FlatImport {
	return imp.flatten(nil, nil)
}

func (imp Import) flatten(prefix []string, out []FlatImport) []FlatImport {
	segs := make([]string, 0, len(prefix)+len(imp.Path))
	segs = append(segs, prefix...)
	segs = append(segs, imp.Path...)
	switch imp.Kind {
	case ImportCollection:
		for _, child := range imp.Children {
			out = child.flatten(segs, out)
		}
	default:
		out = append(out, FlatImport{
			Segments: segs,
			Alias:    imp.Alias,
			Wildcard: imp.Kind == ImportWildcard,
			Span:     imp.Span,
		})
	}
	return out
}

// DirectiveKind identifies a global directive.
type DirectiveKind uint8

const (
	DirectiveEnable DirectiveKind = iota
	DirectiveRequires
	DirectiveDiagnostic
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveEnable:
		return "enable"
	case DirectiveRequires:
		return "requires"
	case DirectiveDiagnostic:
		return "diagnostic"
	default:
		return "unknown"
	}
}

// Directive is an `enable`, `requires` or `diagnostic` directive.
type Directive struct {
	Kind DirectiveKind
	// Args holds extension names for enable/requires, or
	// [severity, rule] for diagnostic.
	Args []string
	Span Span
}

// Keys returns one normalized key per requirement the directive expresses.
func (d Directive) Keys() []string {
	if d.Kind == DirectiveDiagnostic {
		if len(d.Args) != 2 {
			return nil
		}
		return []string{"diagnostic(" + d.Args[0] + "," + d.Args[1] + ")"}
	}
	keys := make([]string, 0, len(d.Args))
	for _, a := range d.Args {
		keys = append(keys, d.Kind.String()+" "+a)
	}
	return keys
}

// Module is one parsed source file.
type Module struct {
	Path ModulePath
	// File is the location reported by the source, for diagnostics.
	File       string
	Source     string
	Lines      LineTable
	Directives []Directive
	Imports    []Import
	Decls      []*Decl

	index map[string]*Decl
}

// BuildIndex records declaration names for Lookup. Parsers call it once
// after all declarations are appended.
func (m *Module) BuildIndex() {
	m.index = make(map[string]*Decl, len(m.Decls))
	for _, d := range m.Decls {
		if d.Name == "" {
			continue
		}
		if _, dup := m.index[d.Name]; !dup {
			m.index[d.Name] = d
		}
	}
}

// Lookup returns the declaration named name, or nil.
func (m *Module) Lookup(name string) *Decl {
	if m == nil || name == "" {
		return nil
	}
	if m.index != nil {
		return m.index[name]
	}
	for _, d := range m.Decls {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// ConstAsserts returns the module's const_assert declarations in order.
func (m *Module) ConstAsserts() []*Decl {
	var out []*Decl
	for _, d := range m.Decls {
		if d.Kind == DeclConstAssert {
			out = append(out, d)
		}
	}
	return out
}

// FlatImports returns every import leaf in source order.
func (m *Module) FlatImports() []FlatImport {
	var out []FlatImport
	for _, imp := range m.Imports {
		out = imp.flatten(nil, out)
	}
	return out
}
