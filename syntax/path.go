package syntax

import (
	"slices"
	"strings"
)

// PackageRoot is the first segment of every module path inside the project
// being linked. External packages use their configured name instead.
const PackageRoot = "package"

// Relative path markers recognized at the start of an import path.
const (
	SelfSegment  = "self"
	SuperSegment = "super"
)

// ModulePath identifies a module within one build. The first segment is a
// package name; the rest name directories and finally the file stem.
type ModulePath []string

// NewModulePath returns a path from the given segments.
func NewModulePath(segments ...string) ModulePath {
	return ModulePath(slices.Clone(segments))
}

// ParseModulePath splits a path written with "::" or "/" separators.
// A path is taken to be relative to the project package unless its first
// segment is "package" or one of the given external package names.
func ParseModulePath(s string, packages ...string) ModulePath {
	s = strings.TrimSuffix(strings.TrimSuffix(s, ".wesl"), ".wgsl")
	s = strings.ReplaceAll(s, "::", "/")
	var segs []string
	for _, seg := range strings.Split(s, "/") {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	if len(segs) == 0 || (segs[0] != PackageRoot && !slices.Contains(packages, segs[0])) {
		segs = append([]string{PackageRoot}, segs...)
	}
	return ModulePath(segs)
}

// Key returns the canonical map key for the path.
func (p ModulePath) Key() string {
	return strings.Join(p, "::")
}

// String implements fmt.Stringer.
func (p ModulePath) String() string {
	return p.Key()
}

// Package returns the package name, or "" for an empty path.
func (p ModulePath) Package() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// IsPackageRoot reports whether the path names a package root.
func (p ModulePath) IsPackageRoot() bool {
	return len(p) == 1
}

// Parent returns the enclosing path. The second result is false when p is a
// package root (or empty) and has no parent.
func (p ModulePath) Parent() (ModulePath, bool) {
	if len(p) <= 1 {
		return nil, false
	}
	return slices.Clone(p[:len(p)-1]), true
}

// Child returns the path of the child module seg.
func (p ModulePath) Child(seg string) ModulePath {
	out := make(ModulePath, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// Equal reports whether two paths have identical segments.
func (p ModulePath) Equal(other ModulePath) bool {
	return slices.Equal(p, other)
}

// Depth returns the number of segments below the package root.
func (p ModulePath) Depth() int {
	return max(len(p)-1, 0)
}
