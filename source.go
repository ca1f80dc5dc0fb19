package wesl

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/wgsl-tooling-wg/wesl-go/internal/module"
	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// DefaultExtensions are tried in order when looking up a module file:
// a .wesl file wins over a .wgsl file with the same stem.
var DefaultExtensions = []string{".wesl", ".wgsl"}

// LibStem is the file stem that holds a package's root module.
const LibStem = "lib"

// Source finds module text by canonical module path.
//
// Find returns the content, a location for diagnostics, or an error
// wrapping fs.ErrNotExist when the module has no file.
type Source = module.Source

// SourceOption configures a source.
type SourceOption func(*sourceConfig)

type sourceConfig struct {
	pkg        string
	extensions []string
}

func defaultSourceConfig() sourceConfig {
	return sourceConfig{
		pkg:        syntax.PackageRoot,
		extensions: DefaultExtensions,
	}
}

// WithExtensions sets the file extensions to try, in order.
func WithExtensions(exts ...string) SourceOption {
	return func(c *sourceConfig) {
		c.extensions = exts
	}
}

// AsPackage makes the source serve the external package name instead of
// the project package.
func AsPackage(name string) SourceOption {
	return func(c *sourceConfig) {
		c.pkg = name
	}
}

// stem returns the slash-separated file stem of p relative to the source's
// root, or false when p belongs to another package.
func (c sourceConfig) stem(p syntax.ModulePath) (string, bool) {
	if p.Package() != c.pkg {
		return "", false
	}
	if p.IsPackageRoot() {
		return LibStem, true
	}
	return path.Join(p[1:]...), true
}

func (c sourceConfig) packages() []string {
	if c.pkg == syntax.PackageRoot {
		return nil
	}
	return []string{c.pkg}
}

// packagesOf returns the external package names src serves.
func packagesOf(src Source) []string {
	if p, ok := src.(interface{ Packages() []string }); ok {
		return p.Packages()
	}
	return nil
}

// --- Dir Source (directory tree on disk, lazy) ---

type dirSource struct {
	path   string
	config sourceConfig
}

// Dir creates a Source that maps module paths onto files below a
// directory: package::util::math is util/math.wesl (or .wgsl) and the
// package root is lib.wesl. Files are looked up lazily on each Find call.
func Dir(path string, opts ...SourceOption) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrInvalid}
	}
	cfg := defaultSourceConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &dirSource{path: path, config: cfg}, nil
}

// MustDir is like Dir but panics on error.
func MustDir(path string, opts ...SourceOption) Source {
	src, err := Dir(path, opts...)
	if err != nil {
		panic(err)
	}
	return src
}

func (s *dirSource) Find(p syntax.ModulePath) (io.ReadCloser, string, error) {
	stem, ok := s.config.stem(p)
	if !ok {
		return nil, "", fs.ErrNotExist
	}
	for _, ext := range s.config.extensions {
		fullPath := filepath.Join(s.path, filepath.FromSlash(stem)+ext)
		f, err := os.Open(fullPath)
		if err == nil {
			return f, fullPath, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fullPath, err
		}
	}
	return nil, "", fs.ErrNotExist
}

func (s *dirSource) Packages() []string {
	return s.config.packages()
}

// --- FS Source (for embed.FS, testing, http filesystems) ---

type fsSource struct {
	name   string
	fsys   fs.FS
	config sourceConfig
}

// FS creates a Source backed by an fs.FS (e.g., embed.FS) with the same
// layout as Dir. The name prefixes reported locations.
func FS(name string, fsys fs.FS, opts ...SourceOption) Source {
	cfg := defaultSourceConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &fsSource{name: name, fsys: fsys, config: cfg}
}

func (s *fsSource) Find(p syntax.ModulePath) (io.ReadCloser, string, error) {
	stem, ok := s.config.stem(p)
	if !ok {
		return nil, "", fs.ErrNotExist
	}
	for _, ext := range s.config.extensions {
		file := stem + ext
		f, err := s.fsys.Open(file)
		if err == nil {
			return f, s.name + ":" + file, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, s.name + ":" + file, err
		}
	}
	return nil, "", fs.ErrNotExist
}

func (s *fsSource) Packages() []string {
	return s.config.packages()
}

// --- Map Source (in-memory files) ---

type mapSource struct {
	files  map[string]string
	config sourceConfig
}

// Map creates a Source over in-memory files keyed by slash-separated path
// relative to the package root, such as "util/math.wesl" or "lib.wgsl".
func Map(files map[string]string, opts ...SourceOption) Source {
	cfg := defaultSourceConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &mapSource{files: files, config: cfg}
}

func (s *mapSource) Find(p syntax.ModulePath) (io.ReadCloser, string, error) {
	stem, ok := s.config.stem(p)
	if !ok {
		return nil, "", fs.ErrNotExist
	}
	for _, ext := range s.config.extensions {
		if text, ok := s.files[stem+ext]; ok {
			return io.NopCloser(strings.NewReader(text)), stem + ext, nil
		}
	}
	return nil, "", fs.ErrNotExist
}

func (s *mapSource) Packages() []string {
	return s.config.packages()
}

// --- Multi Source (combines multiple sources) ---

type multiSource struct {
	sources []Source
}

// Multi combines multiple sources into one.
// Find tries each source in order, returning the first match.
func Multi(sources ...Source) Source {
	return &multiSource{sources: sources}
}

func (s *multiSource) Find(p syntax.ModulePath) (io.ReadCloser, string, error) {
	for _, src := range s.sources {
		r, loc, err := src.Find(p)
		if err == nil {
			return r, loc, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, loc, err
		}
	}
	return nil, "", fs.ErrNotExist
}

func (s *multiSource) Packages() []string {
	var out []string
	for _, src := range s.sources {
		out = append(out, packagesOf(src)...)
	}
	return out
}
