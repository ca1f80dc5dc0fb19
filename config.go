package wesl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/pelletier/go-toml"

	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// ConfigFileName is the name of a WESL project file.
const ConfigFileName = "wesl.toml"

// DefaultRoot is the root module linked when a project file names none.
const DefaultRoot = "main"

// reservedNames cannot name an external package.
var reservedNames = []string{syntax.PackageRoot, syntax.SelfSegment, syntax.SuperSegment}

// tomlConfigFile is the project file as it is encoded in TOML.
type tomlConfigFile struct {
	Package      tomlPackage       `toml:"package"`
	Dependencies map[string]string `toml:"dependencies,omitempty"`
}

type tomlPackage struct {
	Name    string `toml:"name"`
	Edition string `toml:"edition,omitempty"`
	Root    string `toml:"root,omitempty"`
	Dir     string `toml:"dir,omitempty"`
}

// Config is a parsed wesl.toml project file. All paths are absolute.
type Config struct {
	// File is the project file the config was read from, if any.
	File string
	// Name is the project's own name. Modules of the project are always
	// addressed through "package".
	Name    string
	Edition string
	// Root is the module linked by default, such as "main".
	Root string
	// Dir holds the project's modules.
	Dir string
	// Dependencies maps external package names to their directories.
	Dependencies map[string]string
}

// LoadConfig reads and validates a wesl.toml file. Relative paths in the
// file are taken relative to the directory holding it.
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(buf, filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.File = abs
	return cfg, nil
}

// ParseConfig parses wesl.toml content. baseDir anchors relative paths.
func ParseConfig(data []byte, baseDir string) (*Config, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, err
	}
	if !tree.Has("package") {
		return nil, errors.New("missing [package] table")
	}
	tcf := &tomlConfigFile{}
	if err := tree.Unmarshal(tcf); err != nil {
		return nil, err
	}
	if err := validateConfig(tcf); err != nil {
		return nil, err
	}

	cfg := &Config{
		Name:         tcf.Package.Name,
		Edition:      tcf.Package.Edition,
		Root:         tcf.Package.Root,
		Dir:          anchor(baseDir, tcf.Package.Dir),
		Dependencies: make(map[string]string, len(tcf.Dependencies)),
	}
	if cfg.Root == "" {
		cfg.Root = DefaultRoot
	}
	for name, dir := range tcf.Dependencies {
		cfg.Dependencies[name] = anchor(baseDir, dir)
	}
	return cfg, nil
}

// validateConfig checks the names in a project file.
func validateConfig(tcf *tomlConfigFile) error {
	pkg := tcf.Package
	if pkg.Name != "" && !isIdent(pkg.Name) {
		return fmt.Errorf("package name %q must be a valid identifier", pkg.Name)
	}
	if pkg.Root != "" {
		for _, seg := range syntax.ParseModulePath(pkg.Root) {
			if !isIdent(seg) {
				return fmt.Errorf("root module %q is not a module path", pkg.Root)
			}
		}
	}
	for name, dir := range tcf.Dependencies {
		if !isIdent(name) {
			return fmt.Errorf("dependency name %q must be a valid identifier", name)
		}
		if slices.Contains(reservedNames, name) {
			return fmt.Errorf("dependency name %q is reserved", name)
		}
		if dir == "" {
			return fmt.Errorf("dependency %s has no directory", name)
		}
	}
	return nil
}

// Packages returns the dependency names in sorted order.
func (c *Config) Packages() []string {
	names := make([]string, 0, len(c.Dependencies))
	for name := range c.Dependencies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Source returns the project's modules followed by one source per
// dependency, each serving its package name.
func (c *Config) Source() (Source, error) {
	project, err := Dir(c.Dir)
	if err != nil {
		return nil, fmt.Errorf("project directory: %w", err)
	}
	sources := []Source{project}
	for _, name := range c.Packages() {
		dep, err := Dir(c.Dependencies[name], AsPackage(name))
		if err != nil {
			return nil, fmt.Errorf("dependency %s: %w", name, err)
		}
		sources = append(sources, dep)
	}
	return Multi(sources...), nil
}

func anchor(baseDir, p string) string {
	if p == "" {
		return baseDir
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}

// isIdent reports whether s is a WGSL identifier.
func isIdent(s string) bool {
	if s == "" || s == "_" || (len(s) >= 2 && s[:2] == "__") {
		return false
	}
	for i, r := range s {
		if r == utf8.RuneError {
			return false
		}
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
