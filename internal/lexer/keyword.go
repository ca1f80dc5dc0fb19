package lexer

import "sort"

// keywords is the sorted table of reserved words that can never be a
// user-declared name. IMPORTANT: This slice MUST remain sorted.
var keywords = []string{
	"alias",
	"as",
	"break",
	"case",
	"const",
	"const_assert",
	"continue",
	"continuing",
	"default",
	"diagnostic",
	"discard",
	"else",
	"enable",
	"false",
	"fn",
	"for",
	"if",
	"import",
	"let",
	"loop",
	"override",
	"requires",
	"return",
	"struct",
	"switch",
	"true",
	"var",
	"while",
}

// IsKeyword reports whether text is a reserved word.
func IsKeyword(text string) bool {
	idx := sort.SearchStrings(keywords, text)
	return idx < len(keywords) && keywords[idx] == text
}

// enumerants are context-dependent names (address spaces, access modes,
// texel formats, builtin values) that appear inside templates and attribute
// arguments. They are never treated as references.
var enumerants = []string{
	"bgra8unorm",
	"function",
	"handle",
	"private",
	"r32float",
	"r32sint",
	"r32uint",
	"read",
	"read_write",
	"rg32float",
	"rg32sint",
	"rg32uint",
	"rgba16float",
	"rgba16sint",
	"rgba16uint",
	"rgba32float",
	"rgba32sint",
	"rgba32uint",
	"rgba8sint",
	"rgba8snorm",
	"rgba8uint",
	"rgba8unorm",
	"storage",
	"uniform",
	"workgroup",
	"write",
}

// IsEnumerant reports whether text is a predeclared enumerant.
func IsEnumerant(text string) bool {
	idx := sort.SearchStrings(enumerants, text)
	return idx < len(enumerants) && enumerants[idx] == text
}
