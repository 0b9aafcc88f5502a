package conversation

import (
	"fmt"
	"regexp"
	"strings"
)

// compileTemplate turns an utterance template into an anchored,
// case-insensitive regex.
//
//	what does (a|an|the|) {animal} say
//
// Plain words match literally, {name} captures a slot, (x|y) is an
// alternation and (x|y|) an optional alternation that also swallows the
// whitespace next to it.
func compileTemplate(tmpl string) (*regexp.Regexp, error) {
	tokens, err := tokenize(tmpl)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty template")
	}

	var b strings.Builder
	b.WriteString(`(?i)^\s*`)
	needSep := false
	seenSlots := map[string]bool{}

	for i, tok := range tokens {
		sep := ""
		if needSep {
			sep = `\s+`
		}

		switch {
		case strings.HasPrefix(tok, "{"):
			name := strings.TrimSpace(tok[1 : len(tok)-1])
			if !slotName.MatchString(name) {
				return nil, fmt.Errorf("bad slot name %q", name)
			}
			if seenSlots[name] {
				return nil, fmt.Errorf("slot %q used twice", name)
			}
			seenSlots[name] = true
			b.WriteString(sep + `(?P<` + name + `>.+?)`)
			needSep = true

		case strings.HasPrefix(tok, "("):
			alts, optional := alternatives(tok[1 : len(tok)-1])
			group := `(?:` + strings.Join(alts, "|") + `)`
			if !optional {
				b.WriteString(sep + group)
				needSep = true
				continue
			}
			if needSep {
				// Leading separator lives inside the optional part.
				b.WriteString(`(?:\s+` + group + `)?`)
			} else if i < len(tokens)-1 {
				// At the start: trailing separator lives inside.
				b.WriteString(`(?:` + group + `\s+)?`)
			} else {
				b.WriteString(group + `?`)
			}

		default:
			b.WriteString(sep + literal(tok))
			needSep = true
		}
	}

	b.WriteString(`\s*[?!.,]*\s*$`)
	return regexp.Compile(b.String())
}

var slotName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// tokenize splits a template on whitespace, keeping (...) and {...}
// groups whole even when they contain spaces.
func tokenize(tmpl string) ([]string, error) {
	var tokens []string
	var cur strings.Builder
	var closer rune

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range tmpl {
		switch {
		case closer != 0:
			cur.WriteRune(r)
			if r == closer {
				closer = 0
				flush()
			}
		case r == '(' || r == '{':
			flush()
			cur.WriteRune(r)
			if r == '(' {
				closer = ')'
			} else {
				closer = '}'
			}
		case r == ')' || r == '}':
			return nil, fmt.Errorf("unbalanced %q in %q", r, tmpl)
		case r == ' ' || r == '\t':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if closer != 0 {
		return nil, fmt.Errorf("unclosed group in %q", tmpl)
	}
	flush()
	return tokens, nil
}

// alternatives splits "a|an|the|" into quoted patterns and reports whether
// an empty alternative made the group optional.
func alternatives(body string) ([]string, bool) {
	var alts []string
	optional := false
	for _, alt := range strings.Split(body, "|") {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			optional = true
			continue
		}
		alts = append(alts, literal(alt))
	}
	if len(alts) == 0 {
		// "()" or "(|)": nothing to match.
		alts = append(alts, "")
	}
	return alts, optional
}

// literal quotes text and lets internal whitespace match any run.
func literal(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(words, `\s+`)
}
