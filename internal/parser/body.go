package parser

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/wgsl-tooling-wg/wesl-go/internal/lexer"
	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// scopes tracks local names declared in nested blocks of one declaration.
type scopes struct {
	frames []map[string]struct{}
	// names records every declared name once, in declaration order.
	names []string
}

func newScopes() *scopes {
	return &scopes{}
}

func (s *scopes) push() {
	s.frames = append(s.frames, make(map[string]struct{}))
}

func (s *scopes) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *scopes) declare(name string) {
	if len(s.frames) == 0 {
		s.push()
	}
	s.frames[len(s.frames)-1][name] = struct{}{}
	if !slices.Contains(s.names, name) {
		s.names = append(s.names, name)
	}
}

func (s *scopes) has(name string) bool {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if _, ok := s.frames[i][name]; ok {
			return true
		}
	}
	return false
}

// parseBlock parses a `{ ... }` compound statement in a fresh scope.
func (p *Parser) parseBlock(scope *scopes) error {
	if _, err := p.expect(lexer.TokLBrace); err != nil {
		return err
	}
	scope.push()
	defer scope.pop()
	if err := p.tokensUntil(scope, lexer.TokRBrace); err != nil {
		return err
	}
	_, err := p.expect(lexer.TokRBrace)
	return err
}

// tokensUntil walks statements or expressions until one of stops is found
// at the current nesting level, recording every free identifier reference.
// The stop token is not consumed.
func (p *Parser) tokensUntil(scope *scopes, stops ...lexer.TokenKind) error {
	for {
		tok := p.cur()
		if slices.Contains(stops, tok.Kind) {
			return nil
		}
		var err error
		switch tok.Kind {
		case lexer.TokEOF:
			return p.fail(tok.Span, "unexpected end of file, expected %s", stops[0])
		case lexer.TokLParen:
			err = p.nested(scope, lexer.TokRParen)
		case lexer.TokLBracket:
			err = p.nested(scope, lexer.TokRBracket)
		case lexer.TokLBrace:
			err = p.parseBlock(scope)
		case lexer.TokRParen, lexer.TokRBracket, lexer.TokRBrace:
			return p.fail(tok.Span, "unexpected %s", tok.Kind)
		case lexer.TokAt:
			// Statement attributes such as @diagnostic never name declarations.
			p.advance()
			if _, err = p.expectName("attribute name"); err == nil && p.at(lexer.TokLParen) {
				p.advance()
				if err = p.skipUntil(lexer.TokRParen); err == nil {
					_, err = p.expect(lexer.TokRParen)
				}
			}
		case lexer.TokIdent:
			err = p.identifier(scope)
		default:
			p.advance()
		}
		if err != nil {
			return err
		}
	}
}

func (p *Parser) nested(scope *scopes, closer lexer.TokenKind) error {
	p.advance()
	if err := p.tokensUntil(scope, closer); err != nil {
		return err
	}
	_, err := p.expect(closer)
	return err
}

// identifier handles an identifier inside a body or initializer: local
// declarations, for-loop scopes, member names and references.
func (p *Parser) identifier(scope *scopes) error {
	tok := p.cur()
	name := p.text(tok)
	if p.pos > 0 && p.tokens[p.pos-1].Kind == lexer.TokDot {
		p.advance()
		return nil
	}

	switch name {
	case "let", "var", "const":
		return p.localDecl(scope, name == "var")
	case "for":
		p.advance()
		if !p.at(lexer.TokLParen) {
			return p.fail(p.cur().Span, "expected '(' after for, found %s", p.describe(p.cur()))
		}
		scope.push()
		defer scope.pop()
		if err := p.nested(scope, lexer.TokRParen); err != nil {
			return err
		}
		return p.parseBlock(scope)
	}

	if lexer.IsKeyword(name) || scope.has(name) {
		p.advance()
		return nil
	}
	p.recordRef()
	return nil
}

// localDecl parses `let x = e;`, `var<function> x: T;` or `const x = e;`.
// The name enters scope after the statement, so the initializer still sees
// any module-scope declaration it shadows.
func (p *Parser) localDecl(scope *scopes, isVar bool) error {
	p.advance()
	if isVar && p.at(lexer.TokLess) {
		if err := p.skipTemplate(); err != nil {
			return err
		}
	}
	nameTok, err := p.expectDeclName()
	if err != nil {
		return err
	}
	if err := p.tokensUntil(scope, lexer.TokSemicolon); err != nil {
		return err
	}
	scope.declare(p.text(nameTok))
	return nil
}

// recordRef consumes an identifier chain starting at the current token and
// records it as a reference. `a::b::c` is a qualified path; `a.b.c` is kept
// as a member chain whose head may turn out to be a namespace.
func (p *Parser) recordRef() {
	first := p.advance()
	ref := syntax.Ref{
		Segments: []string{p.text(first)},
		Spans:    []syntax.Span{first.Span},
	}
	sep := lexer.TokDot
	if p.at(lexer.TokColonColon) && p.peek(1).Kind == lexer.TokIdent {
		sep = lexer.TokColonColon
		ref.Qualified = true
	}
	for p.at(sep) && p.peek(1).Kind == lexer.TokIdent {
		p.advance()
		seg := p.advance()
		ref.Segments = append(ref.Segments, p.text(seg))
		ref.Spans = append(ref.Spans, seg.Span)
	}
	p.refs = append(p.refs, ref)
	if p.TraceEnabled() {
		p.Trace("reference",
			slog.String("path", strings.Join(ref.Segments, ".")),
			slog.Bool("qualified", ref.Qualified))
	}
}

// parseType parses a type specifier such as `f32`, `array<Light, N>` or
// `geom::Sphere`, recording the names it uses.
func (p *Parser) parseType(scope *scopes) error {
	tok := p.cur()
	if tok.Kind != lexer.TokIdent || lexer.IsKeyword(p.text(tok)) {
		return p.fail(tok.Span, "expected type, found %s", p.describe(tok))
	}
	p.recordRef()
	if !p.at(lexer.TokLess) {
		return nil
	}
	p.advance()
	for !p.at(lexer.TokGreater) {
		if err := p.parseTemplateArg(scope); err != nil {
			return err
		}
		if !p.at(lexer.TokComma) {
			break
		}
		p.advance()
	}
	_, err := p.expect(lexer.TokGreater)
	return err
}

// parseTemplateArg parses one template argument, which is either a type,
// an enumerant such as `read_write`, or a constant expression.
func (p *Parser) parseTemplateArg(scope *scopes) error {
	if p.at(lexer.TokIdent) {
		name := p.text(p.cur())
		next := p.peek(1).Kind
		endsArg := next == lexer.TokComma || next == lexer.TokGreater
		if lexer.IsEnumerant(name) && endsArg {
			p.advance()
			return nil
		}
		if endsArg || next == lexer.TokLess || next == lexer.TokColonColon {
			if err := p.parseType(scope); err != nil {
				return err
			}
		}
	}
	if p.at(lexer.TokComma) || p.at(lexer.TokGreater) {
		return nil
	}
	return p.tokensUntil(scope, lexer.TokComma, lexer.TokGreater)
}

// skipUntil skips balanced tokens without recording references.
func (p *Parser) skipUntil(stop lexer.TokenKind) error {
	depth := 0
	for {
		tok := p.cur()
		switch {
		case tok.Kind == lexer.TokEOF:
			return p.fail(tok.Span, "unexpected end of file, expected %s", stop)
		case depth == 0 && tok.Kind == stop:
			return nil
		case tok.Kind == lexer.TokLParen, tok.Kind == lexer.TokLBracket, tok.Kind == lexer.TokLBrace:
			depth++
		case tok.Kind == lexer.TokRParen, tok.Kind == lexer.TokRBracket, tok.Kind == lexer.TokRBrace:
			depth--
		}
		p.advance()
	}
}

// skipTemplate skips a `<...>` list such as the address space of a var.
func (p *Parser) skipTemplate() error {
	if _, err := p.expect(lexer.TokLess); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		tok := p.advance()
		switch tok.Kind {
		case lexer.TokEOF:
			return p.fail(tok.Span, "unterminated template list")
		case lexer.TokLess:
			depth++
		case lexer.TokGreater:
			depth--
		}
	}
	return nil
}
