// Package parser builds the block.Block tree (spec.md component D) from the
// token stream produced by internal/lexer, threading a "current block"
// pointer the way a hand-written recursive-descent parser naturally does —
// each nested '{' recurses, each matching '}' returns to the caller.
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/lexer"
	"github.com/vernisaz/rb/internal/template"
	"github.com/vernisaz/rb/internal/value"
)

// maxIncludeDepth guards against a script including itself, directly or
// through a cycle of files.
const maxIncludeDepth = 32

// Parser threads a single lexer (swapped out temporarily while an include is
// being inlined) over a growing block.Block tree.
type Parser struct {
	lex          *lexer.Lexer
	baseDir      string // directory relative include paths resolve against
	includeDepth int
	including    map[string]bool
	Errors       []error
}

// New creates a Parser reading from lex; baseDir is the directory the script
// itself lives in, used to resolve relative include(...) paths.
func New(lex *lexer.Lexer, baseDir string) *Parser {
	return &Parser{lex: lex, baseDir: baseDir, including: make(map[string]bool)}
}

// Parse consumes the whole token stream and returns the root Main block.
func (p *Parser) Parse() *block.Block {
	root := block.New(block.Main)
	p.parseBody(root)
	return root
}

func (p *Parser) errorf(pos lexer.Position, format string, args ...any) {
	p.Errors = append(p.Errors, fmt.Errorf("%d:%d: %s", pos.Line, pos.Column, fmt.Sprintf(format, args...)))
}

// parseBody reads statements into current until it sees the BlockEnd closing
// current's own header (or EOF, for the root Main block, which never closes).
func (p *Parser) parseBody(current *block.Block) {
	for {
		tok := p.lex.Next()
		switch tok.Kind {
		case lexer.EOF:
			return
		case lexer.Comment:
			continue
		case lexer.BlockEnd:
			if tok.Tail != "" && current.Out == "" {
				current.Out = tok.Tail
			}
			return
		case lexer.Variable:
			p.parseAssignment(current, tok)
		case lexer.Function:
			p.parseFunctionCall(current, tok.Text, tok.Pos, "")
		case lexer.BlockHeader:
			p.parseBlockHeader(current, tok)
		default:
			p.errorf(tok.Pos, "unexpected token %s", tok.Kind)
		}
	}
}

// parseAssignment handles a `name = ...` statement: the right-hand side is
// either a function call (PeekFunctionHeader finds an unquoted '(' before
// the terminator) or a plain Value.
func (p *Parser) parseAssignment(current *block.Block, nameTok lexer.Token) {
	if header, ok := p.lex.PeekFunctionHeader(); ok {
		p.parseFunctionCall(current, header, nameTok.Pos, nameTok.Text)
		return
	}
	valTok := p.lex.LexValue()
	p.bindValue(current, nameTok.Text, valTok)
}

// bindValue stores valTok's text as a Value under name in current, applying
// an array-literal parse and an optional following TypeTag.
func (p *Parser) bindValue(current *block.Block, name string, valTok lexer.Token) {
	v := parseValueText(valTok.Text)
	if p.lex.PeekColon() {
		tag := p.lex.LexTypeTag()
		if k, ok := typeTagKind(tag.Text); ok {
			v.Kind = k
		} else {
			p.errorf(tag.Pos, "unknown type tag %q", tag.Text)
		}
	}
	current.SetVar(name, v)
}

// parseValueText turns a Value token's raw text into a value.Value: an
// array literal if it's bracketed, else a literal Generic payload (template
// expansion happens later, at interpretation time, not here).
func parseValueText(text string) value.Value {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		inner := trimmed[1 : len(trimmed)-1]
		return value.FromSlice(splitArrayElements(inner))
	}
	return value.FromString(literalText(text))
}

// literalText trims s and, if the whole trimmed text is a single
// double-quoted string, strips the delimiters and resolves \" / \\ escapes.
// Quote marks exist purely to protect otherwise-significant characters
// (':', ',', ')', blanks) during lexing; they are never part of the payload.
func literalText(s string) string {
	t := strings.TrimSpace(s)
	if len(t) >= 2 && t[0] == '"' && t[len(t)-1] == '"' {
		return unquote(t)
	}
	return t
}

// splitArrayElements splits an array literal's inner text on top-level
// commas (respecting quotes), trimming and unquoting each element. A
// trailing comma yields a final empty element (spec.md §8 boundary: "[a,]
// trailing comma -> 2 elements, last empty").
func splitArrayElements(inner string) []string {
	if strings.TrimSpace(inner) == "" {
		return nil
	}
	parts := splitTopLevel(inner, ',', len(inner)+1)
	elems := make([]string, len(parts))
	for i, part := range parts {
		elems[i] = unquote(strings.TrimSpace(part))
	}
	return elems
}

func typeTagKind(tag string) (value.Type, bool) {
	switch tag {
	case "file":
		return value.File, true
	case "prop":
		return value.Property, true
	case "env":
		return value.Environment, true
	case "rep-rust", "rep-crate":
		return value.RepoRust, true
	case "rep-maven":
		return value.RepoMaven, true
	default:
		return value.Generic, false
	}
}

// parseFunctionCall reads a function call's parameter list and attaches the
// resulting FunctionCall block to current — unless the call is the special
// include(...) form, which instead inlines the named file's statements
// directly into current (spec.md §4.D "Special: include(path)").
//
// assignedName is the pending variable name from a preceding `name = ` (""
// if this call appears as a bare statement); it becomes the block's Out
// field when the header itself didn't already set one — this is the
// divergence from a literal reading of original_source/src/lex.rs recorded
// in DESIGN.md.
func (p *Parser) parseFunctionCall(current *block.Block, headerText string, pos lexer.Position, assignedName string) {
	h := parseHeader(headerText)
	fn := block.New(block.FunctionCall)
	fn.Name = h.Keyword
	fn.Flex = h.Rest
	fn.Dir = h.Dir
	fn.Out = h.Out
	fn.Line = pos.Line
	if fn.Out == "" && assignedName != "" {
		fn.Out = assignedName
	}

	fn.Params = p.readParams()

	if fn.Name == "include" {
		p.handleInclude(current, fn, pos)
		return
	}
	current.AddChild(fn)
}

// readParams reads parameters up to the closing ')'.
func (p *Parser) readParams() []string {
	if p.lex.PeekCloseParen() {
		return nil
	}
	var params []string
	for {
		tok, closed := p.lex.LexParameter()
		params = append(params, literalText(tok.Text))
		if closed {
			return params
		}
	}
}

// handleInclude resolves fn's single parameter to a path and recursively
// parses that file's statements into current (the enclosing scope, not a
// fresh child) — spec.md's documented "hoist at parse time unconditionally"
// resolution of the include-timing Open Question (see DESIGN.md).
func (p *Parser) handleInclude(current *block.Block, fn *block.Block, pos lexer.Position) {
	if len(fn.Params) != 1 {
		p.errorf(pos, "include() takes exactly one argument")
		return
	}
	raw := strings.TrimSpace(fn.Params[0])
	path := p.resolveIncludePath(current, raw)
	if path == "" {
		p.errorf(pos, "include(%q): could not resolve path", raw)
		return
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.baseDir, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if p.includeDepth >= maxIncludeDepth || p.including[abs] {
		p.errorf(pos, "include(%q): cycle or depth limit exceeded", path)
		return
	}
	src, err := os.ReadFile(path)
	if err != nil {
		p.errorf(pos, "include(%q): %v", path, err)
		return
	}

	savedLex := p.lex
	p.includeDepth++
	p.including[abs] = true
	p.lex = lexer.New(src, nil)
	p.parseBody(current)
	p.lex = savedLex
	p.includeDepth--
	delete(p.including, abs)
}

// resolveIncludePath implements "resolves path via variable lookup (must be
// a File-typed var) or template expansion" (spec.md §4.D). A bareword that
// names an already-bound File variable in scope wins; otherwise the raw text
// is template-expanded against whatever variables have been assigned so far
// in this parse.
func (p *Parser) resolveIncludePath(current *block.Block, raw string) string {
	unq := unquote(raw)
	if v, ok := current.SearchUp(unq); ok && v.Kind == value.File {
		return v.Payload
	}
	return template.Expand(unq, current, value.Value{}, nil)
}

// parseBlockHeader maps a BlockHeader token's raw text to a block.Kind,
// creates the child (or dependency) block, and recurses into its body.
func (p *Parser) parseBlockHeader(current *block.Block, tok lexer.Token) {
	h := parseHeader(tok.Text)
	kind, ok := blockKind(h.Keyword)
	if !ok {
		p.errorf(tok.Pos, "unknown block type %q; treating as scope", h.Keyword)
		kind = block.Scope
	}

	nb := block.New(kind)
	nb.Name = h.Rest
	nb.Dir = h.Dir
	nb.Flex = h.Out
	nb.Line = tok.Pos.Line

	if kind == block.Dependency && current.Kind == block.Target {
		current.AddDep(nb)
	} else {
		current.AddChild(nb)
	}
	p.parseBody(nb)
}

func blockKind(keyword string) (block.Kind, bool) {
	switch keyword {
	case "":
		return block.Scope, true
	case "target":
		return block.Target, true
	case "dependency":
		return block.Dependency, true
	case "if":
		return block.If, true
	case "eq":
		return block.Eq, true
	case "then":
		return block.Then, true
	case "neq":
		return block.Neq, true
	case "else":
		return block.Else, true
	case "or":
		return block.Or, true
	case "and":
		return block.And, true
	case "not":
		return block.Not, true
	case "for":
		return block.For, true
	case "while":
		return block.While, true
	case "case":
		return block.Case, true
	case "choice":
		return block.Choice, true
	default:
		return block.Scope, false
	}
}
