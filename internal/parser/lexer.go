package parser

import (
	"fmt"
	"strings"
	"text/scanner"
)

// TokenKind represents the category of a lexical token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenInt
	TokenString
	TokenPunct
)

// Token is one lexical token of the header dialect.
type Token struct {
	Kind TokenKind
	Text string
	Line int
}

func (t Token) String() string {
	if t.Kind == TokenEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Text)
}

// is reports whether the token is the punctuation or identifier text.
func (t Token) is(text string) bool {
	return (t.Kind == TokenPunct || t.Kind == TokenIdent) && t.Text == text
}

// Tokenize splits src into tokens. Comments and preprocessor lines are
// dropped; "::" is returned as a single token.
func Tokenize(src string) ([]Token, error) {
	var (
		s       scanner.Scanner
		scanErr error
		tokens  []Token
	)
	s.Init(strings.NewReader(src))
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanStrings |
		scanner.ScanChars | scanner.ScanComments | scanner.SkipComments
	s.Error = func(s *scanner.Scanner, msg string) {
		if scanErr == nil {
			scanErr = &SyntaxError{Line: s.Pos().Line, Err: fmt.Errorf("%w: %s", ErrMalformedStructure, msg)}
		}
	}

	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		line := s.Position.Line
		switch tok {
		case scanner.Ident:
			tokens = append(tokens, Token{Kind: TokenIdent, Text: s.TokenText(), Line: line})
		case scanner.Int:
			tokens = append(tokens, Token{Kind: TokenInt, Text: s.TokenText(), Line: line})
		case scanner.String, scanner.Char:
			tokens = append(tokens, Token{Kind: TokenString, Text: s.TokenText(), Line: line})
		case '#':
			skipDirective(&s)
		case ':':
			if s.Peek() == ':' {
				s.Next()
				tokens = append(tokens, Token{Kind: TokenPunct, Text: "::", Line: line})
				continue
			}
			tokens = append(tokens, Token{Kind: TokenPunct, Text: ":", Line: line})
		default:
			tokens = append(tokens, Token{Kind: TokenPunct, Text: string(tok), Line: line})
		}
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return tokens, nil
}

// skipDirective consumes the rest of a preprocessor line, honoring
// backslash continuations with LF or CRLF endings.
func skipDirective(s *scanner.Scanner) {
	for {
		ch := s.Next()
		switch ch {
		case scanner.EOF, '\n':
			return
		case '\\':
			if s.Peek() == '\r' {
				s.Next()
			}
			if s.Peek() == '\n' {
				s.Next()
			}
		}
	}
}
