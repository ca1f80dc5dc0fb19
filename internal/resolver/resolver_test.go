package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/wgsl-tooling-wg/wesl-go/internal/module"
	"github.com/wgsl-tooling-wg/wesl-go/internal/parser"
	"github.com/wgsl-tooling-wg/wesl-go/internal/testutil"
	"github.com/wgsl-tooling-wg/wesl-go/internal/types"
	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

type fixture struct {
	table *module.Table
	r     *Resolver
}

func newFixture(t *testing.T, files map[string]string, packages ...string) *fixture {
	t.Helper()
	return newFixtureDepth(t, files, 0, packages...)
}

func newFixtureDepth(t *testing.T, files map[string]string, maxDepth int, packages ...string) *fixture {
	t.Helper()
	table := module.New(module.Config{
		Source: module.MemSource(files),
		Parser: module.ParserFunc(func(path syntax.ModulePath, file string, src []byte) (*syntax.Module, error) {
			return parser.Parse(path, file, src, nil)
		}),
		Packages: packages,
		MaxDepth: maxDepth,
	}, nil)
	return &fixture{table: table, r: New(table, nil)}
}

func (f *fixture) load(t *testing.T, key string) *module.Module {
	t.Helper()
	mod, err := f.table.Load(context.Background(), syntax.ParseModulePath(key))
	testutil.NoError(t, err, "load %s", key)
	return mod
}

func (f *fixture) binding(t *testing.T, key, alias string) Binding {
	t.Helper()
	b, ok, err := f.r.Binding(context.Background(), f.load(t, key), alias)
	testutil.NoError(t, err, "binding %s in %s", alias, key)
	testutil.True(t, ok, "%s imports %s", key, alias)
	return b
}

func codeOf(t *testing.T, err error) *types.Error {
	t.Helper()
	var linkErr *types.Error
	if !errors.As(err, &linkErr) {
		t.Fatalf("error %v is not a *types.Error", err)
	}
	return linkErr
}

func TestCollectionImportFlattens(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main": "import a/{b, c/{d, e as f}};\nfn main() {}",
		"package::a":    "fn b() {}",
		"package::a::c": "fn d() {}\nfn e() {}",
	})
	ctx := context.Background()
	aliases, err := f.r.Scope(ctx, f.load(t, "main"))
	testutil.NoError(t, err, "scope")
	testutil.Len(t, aliases, 3, "bindings")

	want := map[string]string{
		"b": "package::a::b",
		"d": "package::a::c::d",
		"f": "package::a::c::e",
	}
	for _, a := range aliases {
		testutil.Equal(t, BindItem, a.Binding.Kind, "%s kind", a.Name)
		testutil.Equal(t, want[a.Name], a.Binding.String(), "%s target", a.Name)
	}
}

func TestBindingIsIdempotent(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main": "import util::helper;",
		"package::util": "fn helper() {}",
	})
	first := f.binding(t, "main", "helper")
	second := f.binding(t, "main", "helper")
	testutil.True(t, first.Equal(second), "same binding twice")
	testutil.Equal(t, "package::util::helper", first.String(), "target")
}

func TestWildcardBindsNamespace(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main":    "import bevy_ui/*;\nfn main() { bevy_ui.quad(1.0); }",
		"package::bevy_ui": "fn quad(x: f32) {}\nfn unused() {}",
	})
	b := f.binding(t, "main", "bevy_ui")
	testutil.Equal(t, BindNamespace, b.Kind, "namespace binding")
	testutil.Equal(t, "package::bevy_ui", b.Module.Key(), "module")

	main := f.load(t, "main")
	res, err := f.r.ResolveRef(context.Background(), main, main.Lookup("main").Refs[0])
	testutil.NoError(t, err, "resolve member")
	testutil.True(t, res.Found, "found")
	testutil.Equal(t, "package::bevy_ui::quad", res.Target.Key(), "target")
	testutil.Equal(t, 2, res.Consumed, "namespace and member consumed")
}

func TestWildcardOfDeclarationFails(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main": "import util::helper/*;",
		"package::util": "fn helper() {}",
	})
	_, _, err := f.r.Binding(context.Background(), f.load(t, "main"), "helper")
	testutil.ErrorIs(t, err, types.ErrImportResolution, "wildcard of a function")
}

func TestModuleImportBindsNamespace(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main":         "import geom::sphere;\nfn main() { sphere::draw_now(); }",
		"package::geom::sphere": "fn draw_now() {}",
	})
	b := f.binding(t, "main", "sphere")
	testutil.Equal(t, BindNamespace, b.Kind, "kind")

	main := f.load(t, "main")
	res, err := f.r.ResolveRef(context.Background(), main, main.Lookup("main").Refs[0])
	testutil.NoError(t, err, "qualified ref through alias")
	testutil.Equal(t, "package::geom::sphere::draw_now", res.Target.Key(), "target")
	testutil.Equal(t, 2, res.Consumed, "consumed")
}

func TestReExportChain(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main": "import foo::bar;",
		"package::foo":  "import zig::zag as bar;",
		"package::zig":  "fn zag() {}",
	})
	b := f.binding(t, "main", "bar")
	testutil.Equal(t, "package::zig::zag", b.String(), "followed to the defining module")
}

func TestReExportedModule(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main":        "import prelude::shapes::circle;",
		"package::prelude":     "import lib::shapes;",
		"package::lib::shapes": "fn circle() {}",
	})
	b := f.binding(t, "main", "circle")
	testutil.Equal(t, "package::lib::shapes::circle", b.String(), "through re-exported namespace")
}

func TestSelfNamedImport(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main": "import util::util;",
		"package::util": "fn util() {}",
	})
	b := f.binding(t, "main", "util")
	testutil.Equal(t, "package::util::util", b.String(), "sibling module, not the alias itself")
}

func TestReExportCycle(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main": "import a::x;",
		"package::a":    "import b::x;",
		"package::b":    "import a::x;",
	})
	_, _, err := f.r.Binding(context.Background(), f.load(t, "main"), "x")
	testutil.ErrorIs(t, err, types.ErrImportResolution, "cycle")
	linkErr := codeOf(t, err)
	testutil.SliceEqual(t, []string{"package::a::x", "package::b::x", "package::a::x"}, linkErr.Chain, "chain")
	testutil.Contains(t, linkErr.Error(), "import cycle", "message")
}

func TestReExportDepthLimit(t *testing.T) {
	files := map[string]string{"package::main": "import m0::x;"}
	for i := 0; i < 5; i++ {
		files[fmt.Sprintf("package::m%d", i)] = fmt.Sprintf("import m%d::x;", i+1)
	}
	files["package::m5"] = "fn x() {}"

	f := newFixtureDepth(t, files, 3)
	_, _, err := f.r.Binding(context.Background(), f.load(t, "main"), "x")
	testutil.ErrorIs(t, err, types.ErrDepthLimitExceeded, "chain longer than the limit")

	f = newFixture(t, files)
	testutil.Equal(t, "package::m5::x", f.binding(t, "main", "x").String(), "default limit is enough")
}

func TestAmbiguousImport(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main": "import a::x;\nimport b::x;",
		"package::a":    "fn x() {}",
		"package::b":    "fn x() {}",
	})
	_, _, err := f.r.Binding(context.Background(), f.load(t, "main"), "x")
	testutil.ErrorIs(t, err, types.ErrAmbiguousImport, "two targets under one name")
	testutil.Equal(t, 2, codeOf(t, err).Line, "reported at the second import")

	f = newFixture(t, map[string]string{
		"package::main": "import a::x;\nimport a::{x};",
		"package::a":    "fn x() {}",
	})
	f.binding(t, "main", "x")
}

func TestNotImportable(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main": "import util::cs;",
		"package::util": "@compute @workgroup_size(1) fn cs() {}",
	})
	_, _, err := f.r.Binding(context.Background(), f.load(t, "main"), "cs")
	testutil.ErrorIs(t, err, types.ErrNotImportable, "entry point")
	testutil.Contains(t, err.Error(), "@compute entry point", "message")
}

func TestItemNotFoundVersusSegmentNotFound(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main": "import util::nope;\nimport nodir::sub::x;",
		"package::util": "fn helper() {}",
	})
	main := f.load(t, "main")
	ctx := context.Background()

	_, _, err := f.r.Binding(ctx, main, "nope")
	testutil.ErrorIs(t, err, types.ErrItemNotFound, "existing module without the item")
	testutil.Equal(t, 1, codeOf(t, err).Line, "line")

	_, _, err = f.r.Binding(ctx, main, "x")
	testutil.ErrorIs(t, err, types.ErrPathSegmentNotFound, "missing directory")
	testutil.Equal(t, "nodir", codeOf(t, err).Ident, "first missing segment")
	testutil.Equal(t, 2, codeOf(t, err).Line, "line")
}

func TestMissingIntermediateDirectories(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main":                  "import shapes::round::circle::area;",
		"package::shapes::round::circle": "fn area() {}",
	})
	testutil.Equal(t, "package::shapes::round::circle::area", f.binding(t, "main", "area").String(), "binding")
}

func TestDeclarationAsPathPrefix(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main": "import util::helper::x;",
		"package::util": "fn helper() {}",
	})
	_, _, err := f.r.Binding(context.Background(), f.load(t, "main"), "x")
	testutil.ErrorIs(t, err, types.ErrNotAModule, "declaration used as a module")
}

func TestRelativeEscapesRoot(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::foo": "import super::super::x;",
	})
	_, err := f.r.Scope(context.Background(), f.load(t, "foo"))
	testutil.ErrorIs(t, err, types.ErrRelativeEscapesRoot, "depth 1 module climbs twice")
}

func TestRelativeImports(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::util::math":        "import super::color::mix;\nimport self::inner::f;\nimport package::top::t;",
		"package::util::color":       "fn mix() {}",
		"package::util::math::inner": "fn f() {}",
		"package::top":               "const t = 1;",
	})
	testutil.Equal(t, "package::util::color::mix", f.binding(t, "util::math", "mix").String(), "super")
	testutil.Equal(t, "package::util::math::inner::f", f.binding(t, "util::math", "f").String(), "self")
	testutil.Equal(t, "package::top::t", f.binding(t, "util::math", "t").String(), "package")
}

func TestExternalPackage(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main": "import bevy::ui::quad;",
		"bevy::ui":      "fn quad() {}",
		"package::bevy": "fn decoy() {}",
	}, "bevy")
	testutil.Equal(t, "bevy::ui::quad", f.binding(t, "main", "quad").String(), "package name wins over a sibling")
}

func TestResolveRefs(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main": `import util::{helper, Light};
import util;
fn main() {
    let l: Light = Light();
    helper();
    util::helper();
    let v = vec3f(1.0);
}`,
		"package::util": "struct Light { pos: vec3f }\nfn helper() {}",
	})
	main := f.load(t, "main")
	ctx := context.Background()

	var got []string
	for _, ref := range main.Lookup("main").Refs {
		res, err := f.r.ResolveRef(ctx, main, ref)
		testutil.NoError(t, err, "resolve %v", ref.Segments)
		if !res.Found {
			got = append(got, "builtin:"+ref.Name())
			continue
		}
		got = append(got, res.Target.Key())
	}
	testutil.SliceEqual(t, []string{
		"package::util::Light",
		"package::util::Light",
		"package::util::helper",
		"package::util::helper",
		"builtin:vec3f",
	}, got, "resolved refs")
}

func TestResolveRefErrors(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main": `import util;
fn a() { let x = util; }
fn b() { util.nope(); }
fn c() { util::nope(); }
fn d() { util::cs(); }`,
		"package::util": "@compute @workgroup_size(1) fn cs() {}",
	})
	main := f.load(t, "main")
	ctx := context.Background()
	tests := []struct {
		decl string
		want error
		line int
	}{
		{"a", types.ErrNamespaceNotValue, 2},
		{"b", types.ErrItemNotFound, 3},
		{"c", types.ErrItemNotFound, 4},
		{"d", types.ErrNotImportable, 5},
	}
	for _, tt := range tests {
		_, err := f.r.ResolveRef(ctx, main, main.Lookup(tt.decl).Refs[0])
		testutil.ErrorIs(t, err, tt.want, "decl %s", tt.decl)
		testutil.Equal(t, tt.line, codeOf(t, err).Line, "decl %s line", tt.decl)
	}
}

func TestLinkWalksBindingTargets(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main":   "import foo::bar;\nfn main() { bar(); }",
		"package::foo":    "import zig::zag;\nfn bar() {}\nfn miz() { zag(); }",
		"package::zig":    "fn zag() {}",
		"package::unused": "fn u() {}",
	})
	mods, err := f.r.Link(context.Background(), f.load(t, "main"))
	testutil.NoError(t, err, "link")
	var keys []string
	for _, m := range mods {
		keys = append(keys, m.Key())
	}
	testutil.SliceEqual(t, []string{"package::main", "package::foo", "package::zig"}, keys, "linked modules")
}

func TestLinkFailsOnBrokenImport(t *testing.T) {
	f := newFixture(t, map[string]string{
		"package::main": "import foo::bar;\nfn main() {}",
		"package::foo":  "import zig::missing;\nfn bar() {}",
		"package::zig":  "fn zag() {}",
	})
	_, err := f.r.Link(context.Background(), f.load(t, "main"))
	testutil.ErrorIs(t, err, types.ErrItemNotFound, "unused broken import still fails")
	testutil.Equal(t, "package::foo", codeOf(t, err).Module, "reported in the importing module")
}
