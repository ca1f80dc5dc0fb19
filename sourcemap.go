package wesl

import (
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/wgsl-tooling-wg/wesl-go/internal/emit"
)

// Mapping ties one emitted declaration to the module it came from.
type Mapping = emit.Mapping

// Range is a byte range with the 1-based line it starts on.
type Range = emit.Range

// SourceMap records the origin of every declaration in a linked output.
type SourceMap struct {
	Root     string    `yaml:"root"`
	Mappings []Mapping `yaml:"mappings"`
}

// At returns the mapping whose output range holds the byte offset, or
// false when the offset falls between declarations.
func (sm *SourceMap) At(offset int) (Mapping, bool) {
	i, found := slices.BinarySearchFunc(sm.Mappings, offset, func(m Mapping, off int) int {
		switch {
		case m.Output.End <= off:
			return -1
		case m.Output.Start > off:
			return 1
		}
		return 0
	})
	if !found {
		return Mapping{}, false
	}
	return sm.Mappings[i], true
}

// Module returns the mappings of the declarations that came from module key.
func (sm *SourceMap) Module(key string) []Mapping {
	var out []Mapping
	for _, m := range sm.Mappings {
		if m.Module == key {
			out = append(out, m)
		}
	}
	return out
}

// WriteYAML writes the source map as YAML.
func (sm *SourceMap) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(sm); err != nil {
		return err
	}
	return enc.Close()
}

// ReadSourceMap decodes a source map written by WriteYAML.
func ReadSourceMap(r io.Reader) (*SourceMap, error) {
	sm := &SourceMap{}
	if err := yaml.NewDecoder(r).Decode(sm); err != nil {
		return nil, err
	}
	return sm, nil
}
