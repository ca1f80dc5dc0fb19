// Package lexer provides tokenization for WESL/WGSL source text.
package lexer

import (
	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// Token is a token with kind and source span.
type Token struct {
	Kind TokenKind
	Span syntax.Span
}

// NewToken creates a new token.
func NewToken(kind TokenKind, span syntax.Span) Token {
	return Token{Kind: kind, Span: span}
}

// Text returns the token's source text.
func (t Token) Text(src []byte) string {
	if int(t.Span.End) > len(src) {
		return ""
	}
	return string(src[t.Span.Start:t.Span.End])
}

// TokenKind identifies a token type.
type TokenKind int

const (
	// TokError is a lexical error.
	TokError TokenKind = iota
	// TokEOF is end of input.
	TokEOF

	// TokIdent is an identifier or keyword. Keywords are distinguished by
	// IsKeyword since most are valid path segments in import statements.
	TokIdent
	// TokNumber is an integer or floating point literal with optional suffix.
	TokNumber

	TokLParen    // (
	TokRParen    // )
	TokLBrace    // {
	TokRBrace    // }
	TokLBracket  // [
	TokRBracket  // ]
	TokLess      // <
	TokGreater   // >
	TokComma     // ,
	TokDot       // .
	TokSemicolon // ;
	TokColon     // :
	TokColonColon
	TokAt    // @
	TokEqual // =
	TokArrow // ->
	TokSlash // /
	TokStar  // *

	// TokOperator covers every other operator; the linker never needs to
	// tell them apart.
	TokOperator
)

var tokenNames = map[TokenKind]string{
	TokError:      "error",
	TokEOF:        "end of file",
	TokIdent:      "identifier",
	TokNumber:     "number",
	TokLParen:     "'('",
	TokRParen:     "')'",
	TokLBrace:     "'{'",
	TokRBrace:     "'}'",
	TokLBracket:   "'['",
	TokRBracket:   "']'",
	TokLess:       "'<'",
	TokGreater:    "'>'",
	TokComma:      "','",
	TokDot:        "'.'",
	TokSemicolon:  "';'",
	TokColon:      "':'",
	TokColonColon: "'::'",
	TokAt:         "'@'",
	TokEqual:      "'='",
	TokArrow:      "'->'",
	TokSlash:      "'/'",
	TokStar:       "'*'",
	TokOperator:   "operator",
}

func (k TokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return "unknown"
}
