// Package parser turns WESL source text into the declaration-level
// syntax.Module consumed by the linker.
//
// The parser understands the module-scope grammar (directives, imports and
// the seven declaration forms) and walks function bodies and initializers
// only far enough to find free identifier references. Local bindings (fn
// parameters, let/var/const statements, for-loop headers) are tracked per
// block scope so that names shadowing module declarations are never recorded
// as references.
//
// Parsing stops at the first error, which is returned as a *types.Error with
// code parse-error.
package parser

import (
	"fmt"
	"log/slog"

	"github.com/wgsl-tooling-wg/wesl-go/internal/lexer"
	"github.com/wgsl-tooling-wg/wesl-go/internal/types"
	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// refAttributes are the attributes whose arguments are expressions that may
// name module-scope declarations.
var refAttributes = map[string]bool{
	"align":          true,
	"binding":        true,
	"group":          true,
	"id":             true,
	"location":       true,
	"size":           true,
	"workgroup_size": true,
}

// Parser converts a token stream into a syntax.Module.
type Parser struct {
	source   []byte
	tokens   []lexer.Token
	problems []lexer.Problem
	pos      int
	mod      *syntax.Module
	refs     []syntax.Ref
	types.Logger
}

// New returns a Parser over source. Pass nil for logger to disable logging.
func New(source []byte, logger *slog.Logger) *Parser {
	lex := lexer.New(source, types.Component(logger, "lexer"))
	tokens, problems := lex.Tokenize()
	p := &Parser{
		source:   source,
		tokens:   tokens,
		problems: problems,
		Logger:   types.Logger{L: logger},
	}
	p.Log(slog.LevelDebug, "parser initialized", slog.Int("tokens", len(tokens)))
	return p
}

// Parse is a convenience wrapper around New and ParseModule.
func Parse(path syntax.ModulePath, file string, source []byte, logger *slog.Logger) (*syntax.Module, error) {
	return New(source, logger).ParseModule(path, file)
}

// ParseModule parses the whole token stream as the module at path. File is
// recorded for diagnostics only.
func (p *Parser) ParseModule(path syntax.ModulePath, file string) (*syntax.Module, error) {
	src := string(p.source)
	p.mod = &syntax.Module{
		Path:   path,
		File:   file,
		Source: src,
		Lines:  syntax.BuildLineTable(src),
	}
	if len(p.problems) > 0 {
		prob := p.problems[0]
		return nil, p.fail(prob.Span, "%s", prob.Message)
	}

	sawDecl := false
	for !p.at(lexer.TokEOF) {
		var err error
		switch {
		case p.atWord("enable"), p.atWord("requires"), p.atWord("diagnostic"):
			if sawDecl {
				return nil, p.fail(p.cur().Span, "directives must precede declarations")
			}
			err = p.parseDirective()
		case p.atWord("import"):
			if sawDecl {
				return nil, p.fail(p.cur().Span, "imports must precede declarations")
			}
			err = p.parseImport()
		case p.at(lexer.TokSemicolon):
			p.advance()
		default:
			sawDecl = true
			err = p.parseDecl()
		}
		if err != nil {
			return nil, err
		}
	}

	if err := p.checkDuplicates(); err != nil {
		return nil, err
	}
	p.mod.BuildIndex()
	p.Log(slog.LevelDebug, "module parsed",
		slog.String("module", path.Key()),
		slog.Int("imports", len(p.mod.Imports)),
		slog.Int("decls", len(p.mod.Decls)))
	return p.mod, nil
}

func (p *Parser) checkDuplicates() error {
	seen := make(map[string]*syntax.Decl, len(p.mod.Decls))
	for _, d := range p.mod.Decls {
		if d.Name == "" {
			continue
		}
		if prev, ok := seen[d.Name]; ok {
			line, _ := p.mod.Lines.Position(prev.NameSpan.Start)
			return types.Errorf(types.CodeDuplicateDeclaration, p.mod.Path.Key(), d.Name,
				"%q is already declared on line %d", d.Name, line).At(p.mod, d.NameSpan)
		}
		seen[d.Name] = d
	}
	return nil
}

// === Directives and imports ===

func (p *Parser) parseDirective() error {
	start := p.advance()
	word := p.text(start)
	if word == "diagnostic" {
		return p.parseDiagnostic(start)
	}
	kind := syntax.DirectiveEnable
	if word == "requires" {
		kind = syntax.DirectiveRequires
	}
	var args []string
	for {
		tok, err := p.expectName("extension name")
		if err != nil {
			return err
		}
		args = append(args, p.text(tok))
		if !p.at(lexer.TokComma) {
			break
		}
		p.advance()
		if p.at(lexer.TokSemicolon) {
			break
		}
	}
	end, err := p.expect(lexer.TokSemicolon)
	if err != nil {
		return err
	}
	p.mod.Directives = append(p.mod.Directives, syntax.Directive{
		Kind: kind,
		Args: args,
		Span: start.Span.Cover(end.Span),
	})
	return nil
}

// parseDiagnostic parses `diagnostic(severity, rule);` where rule may be a
// dotted name such as `chromium.unreachable_code`.
func (p *Parser) parseDiagnostic(start lexer.Token) error {
	if _, err := p.expect(lexer.TokLParen); err != nil {
		return err
	}
	sev, err := p.expectName("severity")
	if err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokComma); err != nil {
		return err
	}
	ruleTok, err := p.expectName("diagnostic rule")
	if err != nil {
		return err
	}
	rule := p.text(ruleTok)
	if p.at(lexer.TokDot) {
		p.advance()
		sub, err := p.expectName("diagnostic rule")
		if err != nil {
			return err
		}
		rule += "." + p.text(sub)
	}
	if p.at(lexer.TokComma) {
		p.advance()
	}
	if _, err := p.expect(lexer.TokRParen); err != nil {
		return err
	}
	end, err := p.expect(lexer.TokSemicolon)
	if err != nil {
		return err
	}
	p.mod.Directives = append(p.mod.Directives, syntax.Directive{
		Kind: syntax.DirectiveDiagnostic,
		Args: []string{p.text(sev), rule},
		Span: start.Span.Cover(end.Span),
	})
	return nil
}

func (p *Parser) parseImport() error {
	start := p.advance()
	tree, err := p.parseImportTree()
	if err != nil {
		return err
	}
	end, err := p.expect(lexer.TokSemicolon)
	if err != nil {
		return err
	}
	tree.Span = start.Span.Cover(end.Span)
	p.mod.Imports = append(p.mod.Imports, tree)
	return nil
}

// parseImportTree parses one import path. Segments are separated by `::`
// or `/` and the path may end in a `{...}` collection or a `*` wildcard.
func (p *Parser) parseImportTree() (syntax.Import, error) {
	start := p.cur().Span
	if p.at(lexer.TokLBrace) {
		children, err := p.parseImportList()
		if err != nil {
			return syntax.Import{}, err
		}
		return syntax.Import{Kind: syntax.ImportCollection, Children: children, Span: start.Cover(p.prevSpan())}, nil
	}

	first, err := p.expectName("import path segment")
	if err != nil {
		return syntax.Import{}, err
	}
	segs := []string{p.text(first)}
	for p.at(lexer.TokColonColon) || p.at(lexer.TokSlash) {
		p.advance()
		switch {
		case p.at(lexer.TokLBrace):
			children, err := p.parseImportList()
			if err != nil {
				return syntax.Import{}, err
			}
			return syntax.Import{
				Kind:     syntax.ImportCollection,
				Path:     segs,
				Children: children,
				Span:     start.Cover(p.prevSpan()),
			}, nil
		case p.at(lexer.TokStar):
			p.advance()
			alias, err := p.parseAlias()
			if err != nil {
				return syntax.Import{}, err
			}
			return syntax.Import{
				Kind:  syntax.ImportWildcard,
				Path:  segs,
				Alias: alias,
				Span:  start.Cover(p.prevSpan()),
			}, nil
		}
		seg, err := p.expectName("import path segment")
		if err != nil {
			return syntax.Import{}, err
		}
		segs = append(segs, p.text(seg))
	}
	alias, err := p.parseAlias()
	if err != nil {
		return syntax.Import{}, err
	}
	return syntax.Import{
		Kind:  syntax.ImportItem,
		Path:  segs,
		Alias: alias,
		Span:  start.Cover(p.prevSpan()),
	}, nil
}

func (p *Parser) parseImportList() ([]syntax.Import, error) {
	if _, err := p.expect(lexer.TokLBrace); err != nil {
		return nil, err
	}
	var children []syntax.Import
	for !p.at(lexer.TokRBrace) {
		child, err := p.parseImportTree()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		if !p.at(lexer.TokComma) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(lexer.TokRBrace); err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, p.fail(p.prevSpan(), "empty import collection")
	}
	return children, nil
}

func (p *Parser) parseAlias() (string, error) {
	if !p.atWord("as") {
		return "", nil
	}
	p.advance()
	tok, err := p.expectDeclName()
	if err != nil {
		return "", err
	}
	return p.text(tok), nil
}

// === Declarations ===

func (p *Parser) parseDecl() error {
	start := p.cur().Span
	p.refs = nil
	scope := newScopes()

	attrs, err := p.parseAttributes(scope)
	if err != nil {
		return err
	}

	decl := &syntax.Decl{Attributes: attrs}
	kw := p.cur()
	switch p.text(kw) {
	case "struct":
		decl.Kind = syntax.DeclStruct
		err = p.parseStruct(decl, scope)
	case "fn":
		decl.Kind = syntax.DeclFunction
		err = p.parseFunction(decl, scope)
	case "alias":
		decl.Kind = syntax.DeclAlias
		err = p.parseTypeAlias(decl, scope)
	case "const":
		decl.Kind = syntax.DeclConst
		err = p.parseValue(decl, scope, true)
	case "override":
		decl.Kind = syntax.DeclOverride
		err = p.parseValue(decl, scope, false)
	case "var":
		decl.Kind = syntax.DeclVar
		err = p.parseVar(decl, scope)
	case "const_assert":
		decl.Kind = syntax.DeclConstAssert
		p.advance()
		if err = p.tokensUntil(scope, lexer.TokSemicolon); err == nil {
			_, err = p.expect(lexer.TokSemicolon)
		}
	default:
		return p.fail(kw.Span, "expected declaration, found %s", p.describe(kw))
	}
	if err != nil {
		return err
	}

	decl.Span = start.Cover(p.prevSpan())
	decl.Refs = p.refs
	decl.Locals = scope.names
	p.refs = nil
	p.mod.Decls = append(p.mod.Decls, decl)
	if p.TraceEnabled() {
		p.Trace("declaration",
			slog.String("kind", decl.Kind.String()),
			slog.String("name", decl.Name),
			slog.Int("refs", len(decl.Refs)))
	}
	return nil
}

// parseAttributes parses a run of `@name` or `@name(args)` attributes.
func (p *Parser) parseAttributes(scope *scopes) ([]syntax.Attribute, error) {
	var attrs []syntax.Attribute
	for p.at(lexer.TokAt) {
		at := p.advance()
		nameTok, err := p.expectName("attribute name")
		if err != nil {
			return nil, err
		}
		name := p.text(nameTok)
		if p.at(lexer.TokLParen) {
			p.advance()
			if refAttributes[name] {
				err = p.tokensUntil(scope, lexer.TokRParen)
			} else {
				err = p.skipUntil(lexer.TokRParen)
			}
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.TokRParen); err != nil {
				return nil, err
			}
		}
		attrs = append(attrs, syntax.Attribute{Name: name, Span: at.Span.Cover(p.prevSpan())})
	}
	return attrs, nil
}

func (p *Parser) parseName(decl *syntax.Decl) error {
	p.advance()
	tok, err := p.expectDeclName()
	if err != nil {
		return err
	}
	decl.Name = p.text(tok)
	decl.NameSpan = tok.Span
	return nil
}

func (p *Parser) parseStruct(decl *syntax.Decl, scope *scopes) error {
	if err := p.parseName(decl); err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokLBrace); err != nil {
		return err
	}
	for !p.at(lexer.TokRBrace) {
		if _, err := p.parseAttributes(scope); err != nil {
			return err
		}
		if _, err := p.expectName("member name"); err != nil {
			return err
		}
		if _, err := p.expect(lexer.TokColon); err != nil {
			return err
		}
		if err := p.parseType(scope); err != nil {
			return err
		}
		if p.at(lexer.TokComma) || p.at(lexer.TokSemicolon) {
			p.advance()
			continue
		}
		break
	}
	_, err := p.expect(lexer.TokRBrace)
	return err
}

func (p *Parser) parseFunction(decl *syntax.Decl, scope *scopes) error {
	if err := p.parseName(decl); err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokLParen); err != nil {
		return err
	}
	// Parameter names are visible in the body, not in later parameter types.
	var params []string
	for !p.at(lexer.TokRParen) {
		if _, err := p.parseAttributes(scope); err != nil {
			return err
		}
		param, err := p.expectDeclName()
		if err != nil {
			return err
		}
		if _, err := p.expect(lexer.TokColon); err != nil {
			return err
		}
		if err := p.parseType(scope); err != nil {
			return err
		}
		params = append(params, p.text(param))
		if !p.at(lexer.TokComma) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(lexer.TokRParen); err != nil {
		return err
	}
	if p.at(lexer.TokArrow) {
		p.advance()
		if _, err := p.parseAttributes(scope); err != nil {
			return err
		}
		if err := p.parseType(scope); err != nil {
			return err
		}
	}

	scope.push()
	defer scope.pop()
	for _, name := range params {
		scope.declare(name)
	}
	return p.parseBlock(scope)
}

func (p *Parser) parseTypeAlias(decl *syntax.Decl, scope *scopes) error {
	if err := p.parseName(decl); err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokEqual); err != nil {
		return err
	}
	if err := p.parseType(scope); err != nil {
		return err
	}
	_, err := p.expect(lexer.TokSemicolon)
	return err
}

// parseValue parses const and override declarations. Const requires an
// initializer, override does not.
func (p *Parser) parseValue(decl *syntax.Decl, scope *scopes, needInit bool) error {
	if err := p.parseName(decl); err != nil {
		return err
	}
	if p.at(lexer.TokColon) {
		p.advance()
		if err := p.parseType(scope); err != nil {
			return err
		}
	}
	if p.at(lexer.TokEqual) {
		p.advance()
		if err := p.tokensUntil(scope, lexer.TokSemicolon); err != nil {
			return err
		}
	} else if needInit {
		return p.fail(p.cur().Span, "expected '=' after const %s, found %s", decl.Name, p.describe(p.cur()))
	}
	_, err := p.expect(lexer.TokSemicolon)
	return err
}

func (p *Parser) parseVar(decl *syntax.Decl, scope *scopes) error {
	p.advance()
	if p.at(lexer.TokLess) {
		if err := p.skipTemplate(); err != nil {
			return err
		}
	}
	tok, err := p.expectDeclName()
	if err != nil {
		return err
	}
	decl.Name = p.text(tok)
	decl.NameSpan = tok.Span
	if p.at(lexer.TokColon) {
		p.advance()
		if err := p.parseType(scope); err != nil {
			return err
		}
	}
	if p.at(lexer.TokEqual) {
		p.advance()
		if err := p.tokensUntil(scope, lexer.TokSemicolon); err != nil {
			return err
		}
	}
	_, err = p.expect(lexer.TokSemicolon)
	return err
}

// === Token helpers ===

func (p *Parser) cur() lexer.Token {
	return p.peek(0)
}

func (p *Parser) peek(n int) lexer.Token {
	if i := p.pos + n; i < len(p.tokens) {
		return p.tokens[i]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) advance() lexer.Token {
	tok := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) prevSpan() syntax.Span {
	if p.pos == 0 {
		return p.cur().Span
	}
	return p.tokens[p.pos-1].Span
}

func (p *Parser) at(kind lexer.TokenKind) bool {
	return p.cur().Kind == kind
}

func (p *Parser) atWord(word string) bool {
	tok := p.cur()
	return tok.Kind == lexer.TokIdent && p.text(tok) == word
}

func (p *Parser) text(tok lexer.Token) string {
	return string(p.source[tok.Span.Start:tok.Span.End])
}

func (p *Parser) describe(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.TokEOF, lexer.TokError:
		return tok.Kind.String()
	case lexer.TokIdent, lexer.TokNumber, lexer.TokOperator:
		return fmt.Sprintf("%q", p.text(tok))
	}
	return tok.Kind.String()
}

func (p *Parser) expect(kind lexer.TokenKind) (lexer.Token, error) {
	tok := p.cur()
	if tok.Kind != kind {
		return tok, p.fail(tok.Span, "expected %s, found %s", kind, p.describe(tok))
	}
	return p.advance(), nil
}

// expectName accepts any identifier, keywords included.
func (p *Parser) expectName(what string) (lexer.Token, error) {
	tok := p.cur()
	if tok.Kind != lexer.TokIdent {
		return tok, p.fail(tok.Span, "expected %s, found %s", what, p.describe(tok))
	}
	return p.advance(), nil
}

// expectDeclName accepts an identifier that may be declared by user code.
func (p *Parser) expectDeclName() (lexer.Token, error) {
	tok := p.cur()
	if tok.Kind != lexer.TokIdent || lexer.IsKeyword(p.text(tok)) {
		return tok, p.fail(tok.Span, "expected identifier, found %s", p.describe(tok))
	}
	return p.advance(), nil
}

func (p *Parser) fail(span syntax.Span, format string, args ...any) error {
	err := types.Errorf(types.CodeParseError, p.mod.Path.Key(), "", format, args...).At(p.mod, span)
	p.Log(slog.LevelDebug, "parse failed", slog.String("error", err.Error()))
	return err
}
