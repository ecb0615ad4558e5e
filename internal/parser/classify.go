package parser

import (
	"strings"

	"dnagen/internal/model"
)

// typeRule recognizes one type shape at the start of a member declaration.
// match returns the base type and the number of tokens consumed.
type typeRule struct {
	shape model.Shape
	match func(toks []Token) (base string, n int, ok bool)
}

// typeRules are tried in order; the first match wins. The plain type rule
// is last and always matches a leading identifier.
var typeRules = []typeRule{
	{shape: model.ShapeDynamicArrayOfPointer, match: matchVectorOfShared},
	{shape: model.ShapeWrappedPointer, match: matchShared},
	{shape: model.ShapeDynamicArrayOfValue, match: matchVector},
	{shape: model.ShapeScalar, match: matchPlain},
}

// typePrefixes are dropped in front of a member type.
var typePrefixes = map[string]bool{
	"const":    true,
	"volatile": true,
	"mutable":  true,
	"struct":   true,
	"enum":     true,
}

// sizeModifiers fold into the base type ("unsigned int").
var sizeModifiers = map[string]bool{
	"unsigned": true,
	"signed":   true,
	"short":    true,
	"long":     true,
}

// Classify turns one member declaration, without its trailing ';', into one
// Field per declarator.
func Classify(toks []Token) ([]model.Field, error) {
	if len(toks) == 0 {
		return nil, nil
	}
	line, text := toks[0].Line, joinTokens(toks)

	policy := model.PolicyIgnore
	if last := toks[len(toks)-1]; last.Kind == TokenIdent {
		if p, ok := model.ParsePolicy(last.Text); ok {
			policy = p
			toks = toks[:len(toks)-1]
		}
	}

	for _, tok := range toks {
		switch tok.Text {
		case "(", ")":
			return nil, errAt(line, text, ErrUnsupportedDeclaration, "function or method declaration")
		case "&":
			return nil, errAt(line, text, ErrUnsupportedDeclaration, "reference member")
		case ":":
			return nil, errAt(line, text, ErrUnsupportedDeclaration, "bit-field")
		case "=":
			return nil, errAt(line, text, ErrUnsupportedDeclaration, "member initializer")
		case "{", "}":
			return nil, errAt(line, text, ErrUnsupportedDeclaration, "nested block")
		}
	}

	for len(toks) > 0 && toks[0].Kind == TokenIdent && typePrefixes[toks[0].Text] {
		toks = toks[1:]
	}

	var (
		shape model.Shape
		base  string
		rest  []Token
	)
	for _, rule := range typeRules {
		b, n, ok := rule.match(toks)
		if ok {
			shape, base, rest = rule.shape, b, toks[n:]
			break
		}
	}
	if base == "" {
		return nil, errAt(line, text, ErrUnsupportedDeclaration, "missing type")
	}

	stars := 0
	for len(rest) > 0 && rest[0].is("*") {
		stars++
		rest = rest[1:]
	}
	switch {
	case stars > 1:
		return nil, errAt(line, text, ErrUnsupportedDeclaration, "multi-level pointer")
	case stars == 1 && shape != model.ShapeScalar:
		return nil, errAt(line, text, ErrUnsupportedDeclaration, "pointer to %s", shape)
	case stars == 1:
		shape = model.ShapeRawPointer
	}

	segments := splitDeclarators(rest)
	fields := make([]model.Field, 0, len(segments))
	for i, seg := range segments {
		f, err := declarator(seg, shape, i > 0)
		if err != nil {
			return nil, errAt(line, text, err, "")
		}
		f.BaseType = base
		f.Policy = policy
		fields = append(fields, f)
	}
	return fields, nil
}

// declarator parses "[*] name {[dim]}" for the given line shape.
func declarator(seg []Token, shape model.Shape, later bool) (model.Field, error) {
	if len(seg) > 0 && seg[0].is("*") {
		// "int *a, *b" repeats the pointer on later declarators; the shape
		// is shared by the whole line, so mixing is rejected.
		if !later || shape != model.ShapeRawPointer {
			return model.Field{}, ErrUnsupportedDeclaration
		}
		seg = seg[1:]
	}
	if len(seg) == 0 || seg[0].Kind != TokenIdent {
		return model.Field{}, ErrUnsupportedDeclaration
	}
	f := model.Field{Name: seg[0].Text, Shape: shape}

	decl := []string{seg[0].Text}
	for rest := seg[1:]; len(rest) > 0; rest = rest[3:] {
		if len(rest) < 3 || !rest[0].is("[") || rest[2].Text != "]" ||
			(rest[1].Kind != TokenInt && rest[1].Kind != TokenIdent) {
			return model.Field{}, ErrUnsupportedDeclaration
		}
		f.Dims = append(f.Dims, rest[1].Text)
		decl = append(decl, "["+rest[1].Text+"]")
	}
	f.Declarator = strings.Join(decl, "")

	switch len(f.Dims) {
	case 0:
	case 1:
		switch shape {
		case model.ShapeScalar:
			f.Shape = model.ShapeFixedArray1D
		case model.ShapeRawPointer, model.ShapeWrappedPointer:
			// Array of pointers, read through the pointer path.
		default:
			return model.Field{}, ErrWrapperArray
		}
	case 2:
		if shape != model.ShapeScalar {
			return model.Field{}, ErrWrapperArray
		}
		f.Shape = model.ShapeFixedArray2D
	default:
		return model.Field{}, ErrUnsupportedDeclaration
	}
	return f, nil
}

// splitDeclarators splits tokens on commas.
func splitDeclarators(toks []Token) [][]Token {
	var (
		out [][]Token
		cur []Token
	)
	for _, tok := range toks {
		if tok.is(",") {
			out = append(out, cur)
			cur = nil
			continue
		}
		cur = append(cur, tok)
	}
	return append(out, cur)
}

func matchVectorOfShared(toks []Token) (string, int, bool) {
	n, ok := matchTemplateOpen(toks, "vector", "std")
	if !ok {
		return "", 0, false
	}
	m, ok := matchTemplateOpen(toks[n:], "shared_ptr", "boost", "std")
	if !ok {
		return "", 0, false
	}
	n += m
	base, m, ok := matchQualified(toks[n:])
	if !ok {
		return "", 0, false
	}
	n += m
	if !closes(toks[n:], 2) {
		return "", 0, false
	}
	return base, n + 2, true
}

func matchShared(toks []Token) (string, int, bool) {
	return matchWrapper(toks, "shared_ptr", "boost", "std")
}

func matchVector(toks []Token) (string, int, bool) {
	return matchWrapper(toks, "vector", "std")
}

// matchWrapper matches "[ns::]name < T >".
func matchWrapper(toks []Token, name string, namespaces ...string) (string, int, bool) {
	n, ok := matchTemplateOpen(toks, name, namespaces...)
	if !ok {
		return "", 0, false
	}
	base, m, ok := matchPlain(toks[n:])
	if !ok {
		return "", 0, false
	}
	n += m
	if !closes(toks[n:], 1) {
		return "", 0, false
	}
	return base, n + 1, true
}

// matchTemplateOpen matches "[ns::]name <".
func matchTemplateOpen(toks []Token, name string, namespaces ...string) (int, bool) {
	n := 0
	if len(toks) > 2 && toks[1].is("::") {
		for _, ns := range namespaces {
			if toks[0].Text == ns {
				n = 2
				break
			}
		}
	}
	if len(toks) < n+2 || toks[n].Kind != TokenIdent || toks[n].Text != name || !toks[n+1].is("<") {
		return 0, false
	}
	return n + 2, true
}

func closes(toks []Token, count int) bool {
	if len(toks) < count {
		return false
	}
	for _, tok := range toks[:count] {
		if !tok.is(">") {
			return false
		}
	}
	return true
}

// matchPlain matches a plain type: a qualified identifier, or a run of size
// modifiers optionally followed by a builtin type name.
func matchPlain(toks []Token) (string, int, bool) {
	if len(toks) == 0 || toks[0].Kind != TokenIdent {
		return "", 0, false
	}
	if !sizeModifiers[toks[0].Text] {
		return matchQualified(toks)
	}

	var words []string
	n := 0
	for n < len(toks) && toks[n].Kind == TokenIdent && sizeModifiers[toks[n].Text] {
		words = append(words, toks[n].Text)
		n++
	}
	// "unsigned int x" names the builtin; "unsigned x" leaves x as declarator.
	if n+1 < len(toks) && toks[n].Kind == TokenIdent && (toks[n+1].Kind == TokenIdent || toks[n+1].is("*") || toks[n+1].is(">")) {
		words = append(words, toks[n].Text)
		n++
	}
	return strings.Join(words, " "), n, true
}

// matchQualified matches "a::b::c".
func matchQualified(toks []Token) (string, int, bool) {
	if len(toks) == 0 || toks[0].Kind != TokenIdent {
		return "", 0, false
	}
	parts := []string{toks[0].Text}
	n := 1
	for n+1 < len(toks) && toks[n].is("::") && toks[n+1].Kind == TokenIdent {
		parts = append(parts, toks[n+1].Text)
		n += 2
	}
	return strings.Join(parts, "::"), n, true
}

// joinTokens renders tokens back to a readable declaration.
func joinTokens(toks []Token) string {
	var sb strings.Builder
	for i, tok := range toks {
		if i > 0 && tok.Kind == TokenIdent && toks[i-1].Kind == TokenIdent {
			sb.WriteByte(' ')
		} else if i > 0 && tok.Kind == TokenIdent && toks[i-1].is(",") {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.Text)
	}
	return sb.String()
}
