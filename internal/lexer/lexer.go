package lexer

import (
	"fmt"
	"log/slog"
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/wgsl-tooling-wg/wesl-go/internal/types"
	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// Problem is a lexical error with its location.
type Problem struct {
	Span    syntax.Span
	Message string
}

// Lexer tokenizes WESL source text. Comments and whitespace are skipped.
type Lexer struct {
	source   []byte
	pos      int
	problems []Problem
	// inImport is set from an `import` keyword to the next `;`. Inside an
	// import statement `name/*` is a wildcard, not a comment.
	inImport bool
	types.Logger
}

// New returns a Lexer that tokenizes the given source bytes.
func New(source []byte, logger *slog.Logger) *Lexer {
	l := &Lexer{
		source: source,
		Logger: types.Logger{L: logger},
	}
	l.Log(slog.LevelDebug, "lexer initialized", slog.Int("bytes", len(source)))
	return l
}

// Problems returns a copy of all collected lexical errors.
func (l *Lexer) Problems() []Problem {
	return slices.Clone(l.problems)
}

// Tokenize consumes all source text and returns the token stream
// along with any lexical errors.
func (l *Lexer) Tokenize() ([]Token, []Problem) {
	estimatedTokens := max(len(l.source)/6, 16)
	tokens := make([]Token, 0, estimatedTokens)
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Kind == TokEOF {
			break
		}
	}
	l.Log(slog.LevelDebug, "tokenization complete",
		slog.Int("tokens", len(tokens)),
		slog.Int("problems", len(l.problems)))
	return tokens, l.problems
}

// NextToken advances the lexer and returns the next token.
// Returns TokEOF when all input is consumed.
func (l *Lexer) NextToken() Token {
	for {
		l.skipWhitespace()
		if l.isEOF() {
			return l.token(TokEOF, l.pos)
		}
		if l.startsWith("//") {
			l.skipToEOL()
			continue
		}
		if l.startsWith("/*") && !l.atImportWildcard() {
			l.blockComment()
			continue
		}
		break
	}

	start := l.pos
	r, size := utf8.DecodeRune(l.source[l.pos:])

	switch {
	case r == '_' || unicode.IsLetter(r):
		l.identifier()
		if string(l.source[start:l.pos]) == "import" {
			l.inImport = true
		}
		return l.token(TokIdent, start)
	case (r < utf8.RuneSelf && isDigit(byte(r))) || (r == '.' && isDigit(l.peekAt(1))):
		l.number()
		return l.token(TokNumber, start)
	}

	l.pos += size
	switch r {
	case '(':
		return l.token(TokLParen, start)
	case ')':
		return l.token(TokRParen, start)
	case '{':
		return l.token(TokLBrace, start)
	case '}':
		return l.token(TokRBrace, start)
	case '[':
		return l.token(TokLBracket, start)
	case ']':
		return l.token(TokRBracket, start)
	case ',':
		return l.token(TokComma, start)
	case '.':
		return l.token(TokDot, start)
	case ';':
		l.inImport = false
		return l.token(TokSemicolon, start)
	case '@':
		return l.token(TokAt, start)
	case ':':
		if l.match(':') {
			return l.token(TokColonColon, start)
		}
		return l.token(TokColon, start)
	case '<':
		// '<' is kept as a single token even when '<<' or '<=' follows, so
		// that template lists can be matched by the parser; the second
		// character is lexed on its own.
		return l.token(TokLess, start)
	case '>':
		return l.token(TokGreater, start)
	case '=':
		if l.match('=') {
			return l.token(TokOperator, start)
		}
		return l.token(TokEqual, start)
	case '-':
		if l.match('>') {
			return l.token(TokArrow, start)
		}
		l.match('-')
		l.match('=')
		return l.token(TokOperator, start)
	case '/':
		if l.match('=') {
			return l.token(TokOperator, start)
		}
		return l.token(TokSlash, start)
	case '*':
		if l.match('=') {
			return l.token(TokOperator, start)
		}
		return l.token(TokStar, start)
	case '+', '%', '^', '!', '~':
		l.match(byte(r))
		l.match('=')
		return l.token(TokOperator, start)
	case '&', '|':
		l.match(byte(r))
		l.match('=')
		return l.token(TokOperator, start)
	}

	l.error(l.spanFrom(start), fmt.Sprintf("unexpected character %q", r))
	return l.token(TokError, start)
}

func (l *Lexer) identifier() {
	for !l.isEOF() {
		r, size := utf8.DecodeRune(l.source[l.pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return
		}
		l.pos += size
	}
}

// number scans decimal, hex and float literals including suffixes.
func (l *Lexer) number() {
	if l.startsWith("0x") || l.startsWith("0X") {
		l.pos += 2
		for isHexDigit(l.peekAt(0)) || l.peekAt(0) == '.' {
			l.pos++
		}
		if b := l.peekAt(0); b == 'p' || b == 'P' {
			l.pos++
			l.exponentDigits()
		}
		l.suffix()
		return
	}
	for isDigit(l.peekAt(0)) {
		l.pos++
	}
	// "1.x" is member access on an integer; "1." and "1.5" are floats.
	if l.peekAt(0) == '.' && !isIdentStart(l.peekAt(1)) {
		l.pos++
		for isDigit(l.peekAt(0)) {
			l.pos++
		}
	}
	if b := l.peekAt(0); b == 'e' || b == 'E' {
		l.pos++
		l.exponentDigits()
	}
	l.suffix()
}

func (l *Lexer) exponentDigits() {
	if b := l.peekAt(0); b == '+' || b == '-' {
		l.pos++
	}
	for isDigit(l.peekAt(0)) {
		l.pos++
	}
}

func (l *Lexer) suffix() {
	switch l.peekAt(0) {
	case 'i', 'u', 'f', 'h':
		l.pos++
	}
}

func (l *Lexer) blockComment() {
	start := l.pos
	l.pos += 2
	depth := 1
	for depth > 0 {
		if l.isEOF() {
			l.error(l.spanFrom(start), "unterminated block comment")
			return
		}
		switch {
		case l.startsWith("/*"):
			l.pos += 2
			depth++
		case l.startsWith("*/"):
			l.pos += 2
			depth--
		default:
			l.pos++
		}
	}
}

// atImportWildcard reports whether a `/*` at the current position follows
// an import path segment directly, as in `import bevy_ui/*;`.
func (l *Lexer) atImportWildcard() bool {
	if !l.inImport || l.pos == 0 {
		return false
	}
	b := l.source[l.pos-1]
	return isIdentStart(b) || isDigit(b)
}

func (l *Lexer) isEOF() bool {
	return l.pos >= len(l.source)
}

func (l *Lexer) peekAt(offset int) byte {
	idx := l.pos + offset
	if idx >= len(l.source) {
		return 0
	}
	return l.source[idx]
}

func (l *Lexer) match(expected byte) bool {
	if l.peekAt(0) != expected {
		return false
	}
	l.pos++
	return true
}

func (l *Lexer) startsWith(s string) bool {
	return len(l.source)-l.pos >= len(s) && string(l.source[l.pos:l.pos+len(s)]) == s
}

func (l *Lexer) skipWhitespace() {
	for !l.isEOF() {
		switch l.source[l.pos] {
		case ' ', '\t', '\r', '\n', '\v', '\f':
			l.pos++
		default:
			return
		}
	}
}

func (l *Lexer) skipToEOL() {
	for !l.isEOF() && l.source[l.pos] != '\n' {
		l.pos++
	}
}

func (l *Lexer) error(span syntax.Span, message string) {
	l.problems = append(l.problems, Problem{Span: span, Message: message})
}

func (l *Lexer) spanFrom(start int) syntax.Span {
	return syntax.NewSpan(syntax.ByteOffset(start), syntax.ByteOffset(l.pos))
}

func (l *Lexer) token(kind TokenKind, start int) Token {
	tok := Token{Kind: kind, Span: l.spanFrom(start)}
	if l.TraceEnabled() {
		l.Trace("token",
			slog.String("kind", kind.String()),
			slog.Int("start", int(tok.Span.Start)),
			slog.Int("end", int(tok.Span.End)))
	}
	return tok
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= utf8.RuneSelf
}
