package wesl

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/wgsl-tooling-wg/wesl-go/internal/types"
)

// SearchPathEnv names the environment variable listing package directories.
const SearchPathEnv = "WESL_PATH"

// WithSearchPath enables discovery of external packages from WESL_PATH and
// the user package directory (~/.wesl/packages). Discovered packages are
// consulted after any explicit source.
//
// Each WESL_PATH entry is either "name=dir" or a plain directory, whose base
// name becomes the package name. Entries are separated by the platform's
// list separator. A leading "+" appends the entries to the defaults instead
// of replacing them.
func WithSearchPath() LinkOption {
	return func(c *linkConfig) { c.searchPath = true }
}

type pathOp int

const (
	pathReplace pathOp = iota
	pathAppend
)

// PackageDir is an external package found on the search path.
type PackageDir struct {
	Name string
	Dir  string
}

// DiscoverSearchPath returns the packages WithSearchPath would add, in
// lookup order.
func DiscoverSearchPath() []PackageDir {
	return discoverSearchPath(types.Logger{})
}

// discoverSearchPathSources returns a package Source for every discovered
// search path entry.
func discoverSearchPathSources(logger types.Logger) []Source {
	var sources []Source
	for _, e := range discoverSearchPath(logger) {
		src, err := Dir(e.Dir, AsPackage(e.Name))
		if err != nil {
			continue
		}
		sources = append(sources, src)
	}
	return sources
}

// discoverSearchPath returns the package entries from the defaults and
// WESL_PATH, deduplicated by package name and filtered to directories that
// exist and hold a valid package name.
func discoverSearchPath(logger types.Logger) []PackageDir {
	entries := userPackageEntries(logger)
	if v := os.Getenv(SearchPathEnv); v != "" {
		op, more := parseSearchPath(v)
		entries = applyOp(op, more, entries)
	}
	entries = filterExistingDirs(dedup(entries))
	logger.Log(slog.LevelDebug, "search path discovered", slog.Int("packages", len(entries)))
	return entries
}

func userPackagesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".wesl", "packages")
}

// userPackageEntries lists the subdirectories of the user package directory.
func userPackageEntries(logger types.Logger) []PackageDir {
	dir := userPackagesDir()
	if dir == "" {
		return nil
	}
	des, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Log(slog.LevelDebug, "error reading package directory",
				slog.String("path", dir), slog.Any("error", err))
		}
		return nil
	}
	var entries []PackageDir
	for _, de := range des {
		if de.IsDir() {
			entries = append(entries, PackageDir{Name: de.Name(), Dir: filepath.Join(dir, de.Name())})
		}
	}
	return entries
}

// parseSearchPath interprets a WESL_PATH value.
func parseSearchPath(value string) (pathOp, []PackageDir) {
	op := pathReplace
	if strings.HasPrefix(value, "+") {
		op = pathAppend
		value = value[1:]
	}
	var entries []PackageDir
	for _, p := range filepath.SplitList(value) {
		if p == "" {
			continue
		}
		if name, dir, ok := strings.Cut(p, "="); ok {
			entries = append(entries, PackageDir{Name: name, Dir: dir})
			continue
		}
		entries = append(entries, PackageDir{Name: filepath.Base(p), Dir: p})
	}
	return op, entries
}

func applyOp(op pathOp, entries, current []PackageDir) []PackageDir {
	if op == pathAppend {
		return append(current, entries...)
	}
	return entries
}

// dedup keeps the first entry for each package name.
func dedup(entries []PackageDir) []PackageDir {
	seen := make(map[string]struct{}, len(entries))
	var result []PackageDir
	for _, e := range entries {
		if _, ok := seen[e.Name]; !ok {
			seen[e.Name] = struct{}{}
			result = append(result, e)
		}
	}
	return result
}

func filterExistingDirs(entries []PackageDir) []PackageDir {
	var result []PackageDir
	for _, e := range entries {
		if !isIdent(e.Name) || slices.Contains(reservedNames, e.Name) {
			continue
		}
		info, err := os.Stat(e.Dir)
		if err == nil && info.IsDir() {
			result = append(result, e)
		}
	}
	return result
}

// FindConfig looks for wesl.toml in dir and its parents and returns the
// path of the first one found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fs.ErrNotExist
		}
		dir = parent
	}
}
