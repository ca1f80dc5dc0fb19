package module

import (
	"io"
	"io/fs"
	"strings"

	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// MemSource serves module text from memory, keyed by module path key
// ("package::util::math").
type MemSource map[string]string

// Find implements Source.
func (s MemSource) Find(path syntax.ModulePath) (io.ReadCloser, string, error) {
	key := path.Key()
	text, ok := s[key]
	if !ok {
		return nil, "", fs.ErrNotExist
	}
	return io.NopCloser(strings.NewReader(text)), key, nil
}
