// Package parser extracts structure declarations from annotated DNA headers.
package parser

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"dnagen/internal/model"
)

// ErrUnreadableInput is returned when the header cannot be read.
var ErrUnreadableInput = errors.New("unreadable input")

// Options controls how strictly the header is parsed.
type Options struct {
	// SkipMethods drops constructors and inline member functions instead of
	// rejecting them.
	SkipMethods bool
	// StrictDuplicates rejects a structure name defined twice instead of
	// letting the last definition win.
	StrictDuplicates bool
}

// Parser parses annotated headers and extracts structure definitions.
type Parser struct {
	opts    Options
	skipped []string
}

// New creates a new Parser.
func New(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Skipped returns the method declarations dropped by the last parse.
func (p *Parser) Skipped() []string {
	return p.skipped
}

// ParseFile reads and parses a header from fs.
func (p *Parser) ParseFile(fs afero.Fs, path string) (*model.Schema, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableInput, path, err)
	}
	schema, err := p.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	schema.SourcePath = path
	schema.Fingerprint = Fingerprint(data)
	return schema, nil
}

// Fingerprint returns the name-based UUID identifying header contents.
func Fingerprint(data []byte) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, data)
}

// Parse extracts every struct block from src.
func (p *Parser) Parse(src string) (*model.Schema, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p.skipped = nil

	schema := model.NewSchema()
	for i := 0; i < len(toks); {
		if !toks[i].is("struct") {
			i++
			continue
		}
		st, next, err := p.parseStruct(toks, i, schema.Enums)
		if err != nil {
			return nil, err
		}
		i = next
		if st == nil {
			continue
		}
		if !schema.Put(st) && p.opts.StrictDuplicates {
			return nil, errAt(st.Line, "", ErrDuplicateStructure, "%s", st.Name)
		}
	}
	return schema, nil
}

// parseStruct parses the block starting at toks[i] ("struct"). A forward
// declaration yields a nil Structure.
func (p *Parser) parseStruct(toks []Token, i int, enums *model.EnumSet) (*model.Structure, int, error) {
	kw := toks[i]
	at := func(j int) Token {
		if j < len(toks) {
			return toks[j]
		}
		return Token{Kind: TokenEOF, Line: toks[len(toks)-1].Line}
	}

	j := i + 1
	if at(j).Kind != TokenIdent {
		return nil, 0, errAt(kw.Line, "", ErrMalformedStructure, "expected structure name, got %s", at(j))
	}
	st := &model.Structure{Name: at(j).Text, Line: kw.Line}
	j++

	switch {
	case at(j).is(";"):
		return nil, j + 1, nil
	case !at(j).is(":") && !at(j).is("{"):
		// The struct names a type in a typedef, parameter or variable.
		return nil, j, nil
	}
	if at(j).is(":") {
		j++
		if at(j).is("public") {
			j++
		}
		base, n, ok := matchQualified(toks[min(j, len(toks)):])
		if !ok {
			return nil, 0, errAt(kw.Line, "", ErrMalformedStructure, "expected base of %s, got %s", st.Name, at(j))
		}
		st.Base = base
		j += n
	}
	if !at(j).is("{") {
		return nil, 0, errAt(at(j).Line, "", ErrMalformedStructure, "expected '{' after struct %s, got %s", st.Name, at(j))
	}
	j++

	// Enums are collected for the whole body before any member is
	// classified, so members may refer to enums declared below them.
	var members [][]Token
	for {
		tok := at(j)
		switch {
		case tok.Kind == TokenEOF:
			return nil, 0, errAt(kw.Line, "", ErrMalformedStructure, "unterminated struct %s", st.Name)
		case tok.is("}"):
			if !at(j + 1).is(";") {
				return nil, 0, errAt(tok.Line, "", ErrMalformedStructure, "expected ';' after struct %s, got %s", st.Name, at(j+1))
			}
			for _, m := range members {
				fields, err := Classify(m)
				if err != nil {
					return nil, 0, fmt.Errorf("struct %s: %w", st.Name, err)
				}
				st.Fields = append(st.Fields, fields...)
			}
			return st, j + 2, nil
		case tok.is("enum") && at(j+1).Kind == TokenIdent && (at(j+2).is("{") || at(j+2).is(":")):
			next, err := skipEnum(toks, j, at)
			if err != nil {
				return nil, 0, err
			}
			enums.Add(at(j + 1).Text)
			j = next
		case tok.is("struct") && at(j+2).is("{"):
			return nil, 0, errAt(tok.Line, "", ErrUnsupportedDeclaration, "nested struct in %s", st.Name)
		case tok.is(";"):
			j++
		case (tok.is("public") || tok.is("private") || tok.is("protected")) && at(j+1).is(":"):
			j += 2
		default:
			member, next, method, err := p.scanMember(toks, j, at)
			if err != nil {
				return nil, 0, err
			}
			j = next
			if method {
				p.skipped = append(p.skipped, st.Name+"::"+joinTokens(member))
				continue
			}
			members = append(members, member)
		}
	}
}

// scanMember collects the tokens of one member up to its ';'. Inline
// function bodies are consumed whole and reported as methods.
func (p *Parser) scanMember(toks []Token, j int, at func(int) Token) ([]Token, int, bool, error) {
	start := j
	parens := 0
	for {
		tok := at(j)
		switch {
		case tok.Kind == TokenEOF:
			return nil, 0, false, errAt(at(start).Line, joinTokens(toks[start:]), ErrMalformedStructure, "unterminated member")
		case tok.is("("):
			parens++
		case tok.is(")"):
			parens--
		case tok.is("}") && parens == 0:
			return nil, 0, false, errAt(tok.Line, joinTokens(toks[start:j]), ErrMalformedStructure, "missing ';'")
		case tok.is("{") && parens == 0:
			member := toks[start:j]
			if !isMethod(member) {
				return nil, 0, false, errAt(tok.Line, joinTokens(member), ErrUnsupportedDeclaration, "unexpected '{'")
			}
			end, err := skipBraces(toks, j, at)
			if err != nil {
				return nil, 0, false, err
			}
			if at(end).is(";") {
				end++
			}
			return p.method(member, end)
		case tok.is(";") && parens == 0:
			member := toks[start:j]
			if isMethod(member) {
				return p.method(member, j+1)
			}
			return member, j + 1, false, nil
		}
		j++
	}
}

func (p *Parser) method(member []Token, next int) ([]Token, int, bool, error) {
	if !p.opts.SkipMethods {
		return nil, 0, false, errAt(member[0].Line, joinTokens(member), ErrUnsupportedDeclaration, "member function")
	}
	return member, next, true, nil
}

// isMethod reports whether a member is a function declaration rather than
// a function pointer, which is always rejected by the classifier.
func isMethod(member []Token) bool {
	for k, tok := range member {
		if tok.is("(") {
			return !(k+1 < len(member) && member[k+1].is("*"))
		}
	}
	return false
}

func skipEnum(toks []Token, j int, at func(int) Token) (int, error) {
	for !at(j).is("{") {
		if at(j).Kind == TokenEOF || at(j).is(";") {
			return 0, errAt(at(j).Line, "", ErrMalformedStructure, "malformed enum %s", at(j+1).Text)
		}
		j++
	}
	end, err := skipBraces(toks, j, at)
	if err != nil {
		return 0, err
	}
	if !at(end).is(";") {
		return 0, errAt(at(end).Line, "", ErrMalformedStructure, "expected ';' after enum, got %s", at(end))
	}
	return end + 1, nil
}

// skipBraces returns the index after the '}' matching the '{' at toks[j].
func skipBraces(toks []Token, j int, at func(int) Token) (int, error) {
	open := at(j)
	depth := 0
	for ; j < len(toks); j++ {
		switch {
		case toks[j].is("{"):
			depth++
		case toks[j].is("}"):
			depth--
			if depth == 0 {
				return j + 1, nil
			}
		}
	}
	return 0, errAt(open.Line, "", ErrMalformedStructure, "unbalanced braces")
}
