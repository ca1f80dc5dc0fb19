package wesl

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/wgsl-tooling-wg/wesl-go/internal/testutil"
	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

const projectOutput = `const shapes_PI = 3.14159;

fn area(r: f32) -> f32 {
    return shapes_PI * r * r;
}

const package_lights_common_FALLOFF = 0.5;

fn attenuate(d: f32) -> f32 {
    return 1.0 / (1.0 + package_lights_common_FALLOFF * d * d);
}

@fragment
fn fs_main() -> @location(0) vec4f {
    let a = area(2.0);
    return vec4f(attenuate(a));
}
`

func TestLinkProject(t *testing.T) {
	cfg, err := LoadConfig("testdata/project/wesl.toml")
	testutil.NoError(t, err, "LoadConfig")

	res, err := Link(context.Background(), cfg.Root, WithConfig(cfg))
	testutil.NoError(t, err, "Link")
	testutil.LinesEqual(t, projectOutput, res.Code, "linked output")
	testutil.SliceEqual(t, []string{
		"shapes",
		"shapes::circle",
		"package::lights::common",
		"package::lights::point",
		"package::main",
	}, res.Modules, "emission order")
	testutil.NotContains(t, res.Code, "unused", "unreachable function dropped")
	testutil.Nil(t, res.SourceMap, "no source map unless requested")
}

func TestLinkIsDeterministic(t *testing.T) {
	cfg, err := LoadConfig("testdata/project/wesl.toml")
	testutil.NoError(t, err, "LoadConfig")

	first, err := Link(context.Background(), "main", WithConfig(cfg))
	testutil.NoError(t, err, "first link")
	for i := 0; i < 5; i++ {
		again, err := Link(context.Background(), "main", WithConfig(cfg), WithConcurrency(i+1))
		testutil.NoError(t, err, "link %d", i)
		testutil.Equal(t, first.Code, again.Code, "link %d output", i)
	}
}

func TestLinkNoSources(t *testing.T) {
	_, err := Link(context.Background(), "main")
	testutil.ErrorIs(t, err, ErrNoSources, "no sources")
}

func TestLinkRootMissing(t *testing.T) {
	_, err := Link(context.Background(), "main", WithSource(Map(map[string]string{
		"other.wesl": "fn f() {}",
	})))
	testutil.ErrorIs(t, err, ErrSourceNotFound, "missing root module")
}

func TestLinkPrefersWESLOverWGSL(t *testing.T) {
	res, err := Link(context.Background(), "main", WithSource(Map(map[string]string{
		"main.wesl": "import util::f;\n@compute @workgroup_size(1) fn main() { f(); }\n",
		"util.wesl": "fn f() { }\n",
		"util.wgsl": "fn f() { discard; }\n",
	})))
	testutil.NoError(t, err, "Link")
	testutil.Contains(t, res.Code, "fn f() { }", ".wesl chosen")
	testutil.NotContains(t, res.Code, "discard", ".wgsl ignored")
}

func TestLinkKeepRoot(t *testing.T) {
	files := map[string]string{
		"lib.wesl": "import helpers::twice;\nfn apply(x: f32) -> f32 { return twice(x); }\n",
		"helpers.wesl": "fn twice(x: f32) -> f32 { return 2.0 * x; }\n",
	}
	res, err := Link(context.Background(), "package", WithSource(Map(files)))
	testutil.NoError(t, err, "default link")
	testutil.Equal(t, "", res.Code, "no entry points, nothing reachable")

	res, err = Link(context.Background(), "package", WithSource(Map(files)), WithKeepRoot())
	testutil.NoError(t, err, "keep root")
	testutil.Contains(t, res.Code, "fn twice(x: f32)", "imported helper kept under its alias")
	testutil.Contains(t, res.Code, "fn apply(x: f32)", "root function kept")
}

func TestLinkRootInExternalPackage(t *testing.T) {
	src := Map(map[string]string{
		"lib.wesl":    "const PI = 3.14159;\n",
		"circle.wesl": "import package::PI;\nfn area(r: f32) -> f32 { return PI * r * r; }\n",
	}, AsPackage("shapes"))

	res, err := Link(context.Background(), "shapes::circle", WithSource(src), WithKeepRoot())
	testutil.NoError(t, err, "root named by package")
	testutil.SliceEqual(t, []string{"shapes", "shapes::circle"}, res.Modules, "modules")
	testutil.LinesEqual(t, "const PI = 3.14159;\n\nfn area(r: f32) -> f32 { return PI * r * r; }\n", res.Code, "output")

	_, err = Link(context.Background(), "circle", WithSource(src), WithKeepRoot())
	testutil.ErrorIs(t, err, ErrSourceNotFound, "bare name stays in the project package")
}

func TestLinkCycleModes(t *testing.T) {
	src := Map(map[string]string{
		"main.wesl": "import a::f;\n@compute @workgroup_size(1) fn main() { f(); }\n",
		"a.wesl":    "import b::g;\nfn f() { g(); }\n",
		"b.wesl":    "import a::f;\nfn g() { f(); }\n",
	})
	_, err := Link(context.Background(), "main", WithSource(src))
	testutil.ErrorIs(t, err, ErrCyclicValueDependency, "cycle rejected by default")

	res, err := Link(context.Background(), "main", WithSource(src), WithCycleCheck(CycleIgnore))
	testutil.NoError(t, err, "cycle ignored")
	testutil.Contains(t, res.Code, "fn f() { package_b_g(); }", "f emitted")
	testutil.Contains(t, res.Code, "fn package_b_g() { f(); }", "g emitted")
}

func TestLinkErrorIsAtomic(t *testing.T) {
	res, err := Link(context.Background(), "main", WithSource(Map(map[string]string{
		"main.wesl": "import util::missing;\n@compute @workgroup_size(1) fn main() {}\n",
		"util.wesl": "fn present() {}\n",
	})))
	testutil.ErrorIs(t, err, ErrItemNotFound, "unresolved import")
	testutil.Nil(t, res, "no partial result")

	var linkErr *Error
	testutil.True(t, errors.As(err, &linkErr), "structured error")
	testutil.Equal(t, KindImportBinding, linkErr.Kind, "kind")
	testutil.Equal(t, "missing", linkErr.Ident, "identifier")
}

func TestLinkSourceMap(t *testing.T) {
	res, err := Link(context.Background(), "main",
		WithSource(Map(map[string]string{
			"main.wesl": "import util::f;\n@compute @workgroup_size(1) fn main() { f(); }\n",
			"util.wesl": "// helpers\nfn f() {}\n",
		})),
		WithSourceMap())
	testutil.NoError(t, err, "Link")
	testutil.NotNil(t, res.SourceMap, "source map")
	testutil.Equal(t, "package::main", res.SourceMap.Root, "root")
	testutil.Len(t, res.SourceMap.Mappings, 2, "one mapping per declaration")

	m, ok := res.SourceMap.At(strings.Index(res.Code, "fn main"))
	testutil.True(t, ok, "offset inside main")
	testutil.Equal(t, "package::main", m.Module, "module")
	testutil.Equal(t, "main.wesl", m.File, "file")

	_, ok = res.SourceMap.At(strings.Index(res.Code, "\n\n") + 1)
	testutil.False(t, ok, "blank line between declarations")
	testutil.Len(t, res.SourceMap.Module("package::util"), 1, "util mappings")
}

func TestLinkCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Link(ctx, "main", WithSource(Map(map[string]string{
		"main.wesl": "@compute @workgroup_size(1) fn main() {}\n",
	})))
	testutil.ErrorIs(t, err, context.Canceled, "canceled context")
}

func TestLinkCustomParser(t *testing.T) {
	calls := 0
	p := ParserFunc(func(path syntax.ModulePath, file string, text []byte) (*syntax.Module, error) {
		calls++
		return &syntax.Module{Path: path, File: file, Source: string(text)}, nil
	})
	res, err := Link(context.Background(), "main",
		WithSource(Map(map[string]string{"main.wesl": "anything"})),
		WithParser(p))
	testutil.NoError(t, err, "Link")
	testutil.Equal(t, 1, calls, "parser called for the root")
	testutil.Equal(t, "", res.Code, "no declarations")
}

func TestLinkLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: LevelTrace}))
	_, err := Link(context.Background(), "main",
		WithSource(Map(map[string]string{
			"main.wesl": "import util::f;\n@compute @workgroup_size(1) fn main() { f(); }\n",
			"util.wesl": "fn f() {}\n",
		})),
		WithLogger(logger))
	testutil.NoError(t, err, "Link")

	out := buf.String()
	testutil.Contains(t, out, "link complete", "summary logged")
	testutil.Contains(t, out, "component=resolver", "component loggers")
	testutil.Contains(t, out, "phase=emit", "phases logged")
}
