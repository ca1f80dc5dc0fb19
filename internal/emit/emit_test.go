package emit

import (
	"context"
	"errors"
	"testing"

	"github.com/wgsl-tooling-wg/wesl-go/internal/mangle"
	"github.com/wgsl-tooling-wg/wesl-go/internal/module"
	"github.com/wgsl-tooling-wg/wesl-go/internal/parser"
	"github.com/wgsl-tooling-wg/wesl-go/internal/reach"
	"github.com/wgsl-tooling-wg/wesl-go/internal/resolver"
	"github.com/wgsl-tooling-wg/wesl-go/internal/testutil"
	"github.com/wgsl-tooling-wg/wesl-go/internal/types"
	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

func emit(t *testing.T, files map[string]string) *Output {
	t.Helper()
	res, names := analyze(t, files)
	return Emit(res, names, nil)
}

func analyze(t *testing.T, files map[string]string) (*reach.Result, *mangle.Names) {
	t.Helper()
	ctx := context.Background()
	table := module.New(module.Config{
		Source: module.MemSource(files),
		Parser: module.ParserFunc(func(path syntax.ModulePath, file string, src []byte) (*syntax.Module, error) {
			return parser.Parse(path, file, src, nil)
		}),
	}, nil)
	root, err := table.Load(ctx, syntax.NewModulePath("package", "main"))
	testutil.NoError(t, err, "load root")

	r := resolver.New(table, nil)
	res, err := reach.Analyze(ctx, r, root, reach.Config{}, nil)
	testutil.NoError(t, err, "analyze")
	scope, err := r.Scope(ctx, root)
	testutil.NoError(t, err, "root scope")
	names, err := mangle.Assign(root, scope, res.Decls, nil)
	testutil.NoError(t, err, "assign")
	return res, names
}

func TestEmitPrunedModule(t *testing.T) {
	out := emit(t, map[string]string{
		"package::main": "import foo::bar;\n\n@compute @workgroup_size(1)\nfn main() { bar(); }\n",
		"package::foo":  "import zig::zag;\n\nconst_assert 1 < 2;\n\nfn bar() {}\n\nfn miz() { zig::zag(); }\n",
		"package::zig":  "const_assert 2 > 1;\nfn zag() {}\n",
	})
	want := `const_assert 1 < 2;

fn bar() {}

@compute @workgroup_size(1)
fn main() { bar(); }
`
	testutil.LinesEqual(t, want, out.Code, "output")
}

func TestEmitRewritesReferences(t *testing.T) {
	out := emit(t, map[string]string{
		"package::main": "enable f16;\nimport util;\n@compute @workgroup_size(1) fn main() { let x = util::helper(); }\n",
		"package::util": "enable f16;\nfn helper() -> f32 { return SCALE; }\nconst SCALE = 2.0;\n",
	})
	want := `enable f16;

fn package_util_helper() -> f32 { return package_util_SCALE; }

const package_util_SCALE = 2.0;

@compute @workgroup_size(1) fn main() { let x = package_util_helper(); }
`
	testutil.LinesEqual(t, want, out.Code, "output")
}

func TestEmitNamespaceMemberAndAlias(t *testing.T) {
	out := emit(t, map[string]string{
		"package::main": `import bevy_ui/*;
import shapes::circle_area as area;
@fragment fn fs() -> @location(0) vec4f {
    let a = area(bevy_ui.quad_size);
    return vec4f(a);
}
`,
		"package::bevy_ui": "const quad_size = 4.0;\n",
		"package::shapes":  "fn circle_area(r: f32) -> f32 { return r * r; }\n",
	})
	want := `fn area(r: f32) -> f32 { return r * r; }

const package_bevy__ui_quad__size = 4.0;

@fragment fn fs() -> @location(0) vec4f {
    let a = area(package_bevy__ui_quad__size);
    return vec4f(a);
}
`
	testutil.LinesEqual(t, want, out.Code, "output")
}

func TestEmitSourceMap(t *testing.T) {
	out := emit(t, map[string]string{
		"package::main": "import util::f;\n\n@compute @workgroup_size(1) fn main() { f(); }\n",
		"package::util": "// helpers\nfn f() {}\n",
	})
	testutil.Len(t, out.Mappings, 2, "one mapping per declaration")

	f := out.Mappings[0]
	testutil.Equal(t, "package::util", f.Module, "module")
	testutil.Equal(t, "f", f.Name, "output name")
	testutil.Equal(t, "f", f.Declaration, "declared name")
	testutil.Equal(t, 2, f.Source.Line, "source line")
	testutil.Equal(t, 1, f.Output.Line, "output line")
	testutil.Equal(t, "fn f() {}", out.Code[f.Output.Start:f.Output.End], "output range")

	main := out.Mappings[1]
	testutil.Equal(t, 3, main.Output.Line, "blank line between declarations")
	testutil.Equal(t, 3, main.Source.Line, "source line")
	testutil.Equal(t, "package::main", main.File, "file from the source")
}

func TestEmitEmptyWhenNothingReachable(t *testing.T) {
	out := emit(t, map[string]string{"package::main": "fn helper() {}\n"})
	testutil.Equal(t, "", out.Code, "no output")
	testutil.Len(t, out.Mappings, 0, "no mappings")
}

func TestCheckShadowing(t *testing.T) {
	res, names := analyze(t, map[string]string{
		"package::main": "import util/*;\n@compute @workgroup_size(1) fn main() { let package_util_f = 1; util.f(); }\n",
		"package::util": "fn f() {}\n",
	})
	err := CheckShadowing(res, names)
	testutil.ErrorIs(t, err, types.ErrNameCollision, "local hides the mangled name")
	var linkErr *types.Error
	testutil.True(t, errors.As(err, &linkErr), "structured error")
	testutil.Equal(t, "package_util_f", linkErr.Ident, "ident")
	testutil.Equal(t, 2, linkErr.Line, "line of the rewritten reference")

	res, names = analyze(t, map[string]string{
		"package::main": "import util::f;\n@compute @workgroup_size(1) fn main() { f(); { let f = 2; } let g = 1; }\n",
		"package::util": "fn f() {}\n",
	})
	testutil.NoError(t, CheckShadowing(res, names), "unchanged names never clash")
}
