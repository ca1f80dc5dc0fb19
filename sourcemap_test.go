package wesl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/wgsl-tooling-wg/wesl-go/internal/testutil"
)

func TestSourceMapYAML(t *testing.T) {
	cfg, err := LoadConfig("testdata/project/wesl.toml")
	testutil.NoError(t, err, "LoadConfig")
	res, err := Link(context.Background(), "main", WithConfig(cfg), WithSourceMap())
	testutil.NoError(t, err, "Link")

	var buf bytes.Buffer
	testutil.NoError(t, res.SourceMap.WriteYAML(&buf), "WriteYAML")
	testutil.Contains(t, buf.String(), "root: package::main", "root key")
	testutil.Contains(t, buf.String(), "module: shapes::circle", "module key")

	back, err := ReadSourceMap(&buf)
	testutil.NoError(t, err, "ReadSourceMap")
	testutil.Equal(t, res.SourceMap.Root, back.Root, "root")
	testutil.SliceEqual(t, res.SourceMap.Mappings, back.Mappings, "mappings")
}

func TestSourceMapAt(t *testing.T) {
	cfg, err := LoadConfig("testdata/project/wesl.toml")
	testutil.NoError(t, err, "LoadConfig")
	res, err := Link(context.Background(), "main", WithConfig(cfg), WithSourceMap())
	testutil.NoError(t, err, "Link")
	sm := res.SourceMap

	tests := []struct {
		needle string
		module string
		name   string
	}{
		{"const shapes_PI", "shapes", "shapes_PI"},
		{"fn area", "shapes::circle", "area"},
		{"package_lights_common_FALLOFF = 0.5", "package::lights::common", "package_lights_common_FALLOFF"},
		{"return vec4f", "package::main", "fs_main"},
	}
	for _, tt := range tests {
		off := strings.Index(res.Code, tt.needle)
		testutil.True(t, off >= 0, "%q in output", tt.needle)
		m, ok := sm.At(off)
		testutil.True(t, ok, "mapping at %q", tt.needle)
		testutil.Equal(t, tt.module, m.Module, "%q module", tt.needle)
		testutil.Equal(t, tt.name, m.Name, "%q name", tt.needle)
	}

	attenuate, ok := sm.At(strings.Index(res.Code, "fn attenuate"))
	testutil.True(t, ok, "attenuate mapped")
	testutil.Equal(t, 3, attenuate.Source.Line, "declared on line 3 of point.wesl")
	testutil.True(t, strings.HasSuffix(attenuate.File, "point.wesl"), "file %s", attenuate.File)

	_, ok = sm.At(len(res.Code) + 10)
	testutil.False(t, ok, "past the end")
}

func TestReadSourceMapInvalid(t *testing.T) {
	_, err := ReadSourceMap(strings.NewReader("mappings: [oops"))
	testutil.Error(t, err, "malformed yaml")
}
