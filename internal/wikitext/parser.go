package wikitext

import (
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Param is a single template parameter. Positional parameters are named
// "1", "2", ... in the order they appear.
type Param struct {
	Name  string
	Value string
}

// Template is a template transclusion found in a page.
type Template struct {
	// Name is the template name as written, trimmed.
	Name string

	// Params holds the parameters in source order.
	Params []Param
}

// Has reports whether the template carries a parameter called name.
func (t Template) Has(name string) bool {
	_, ok := t.Get(name)
	return ok
}

// Get returns the value of the last parameter called name.
// MediaWiki uses the last value when a parameter is repeated.
func (t Template) Get(name string) (string, bool) {
	for i := len(t.Params) - 1; i >= 0; i-- {
		if t.Params[i].Name == name {
			return t.Params[i].Value, true
		}
	}
	return "", false
}

// Values returns every value given for name, in source order.
func (t Template) Values(name string) []string {
	var values []string
	for _, p := range t.Params {
		if p.Name == name {
			values = append(values, p.Value)
		}
	}
	return values
}

// Document is parsed page source.
type Document struct {
	text      string
	masked    string
	templates []Template
}

// Parse parses page source. Parsing never fails; unbalanced markup is
// treated as plain text.
func Parse(text string) *Document {
	d := &Document{text: text, masked: maskInert(text)}
	d.templates = parseTemplates(d.masked)
	return d
}

// Text returns the source the document was parsed from.
func (d *Document) Text() string {
	return d.text
}

// Templates returns all templates in document order. A template that
// contains another one is listed before the nested template.
func (d *Document) Templates() []Template {
	out := make([]Template, len(d.templates))
	copy(out, d.templates)
	return out
}

// TemplatesNamed returns the templates whose name matches one of names.
func (d *Document) TemplatesNamed(names ...string) []Template {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[NormalizeName(n)] = struct{}{}
	}

	var out []Template
	for _, t := range d.templates {
		if _, ok := want[NormalizeName(t.Name)]; ok {
			out = append(out, t)
		}
	}
	return out
}

// NormalizeName canonicalises a template or page name: surrounding space is
// trimmed, underscores become spaces, runs of spaces collapse and the first
// letter is upper-cased.
func NormalizeName(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.Join(strings.Fields(name), " ")
	name = strings.TrimPrefix(name, "Template:")
	name = strings.TrimPrefix(name, "template:")
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

// maskInert replaces comments, <nowiki> sections and triple-brace template
// arguments with spaces so that positions in the masked string still map to
// positions in the original text.
func maskInert(text string) string {
	b := []byte(text)
	lower := asciiLower(text)

	blank := func(from, to int) {
		for i := from; i < to && i < len(b); i++ {
			if b[i] != '\n' {
				b[i] = ' '
			}
		}
	}

	for i := 0; i < len(b); {
		switch {
		case strings.HasPrefix(text[i:], "<!--"):
			end := strings.Index(text[i+4:], "-->")
			if end < 0 {
				blank(i, len(b))
				return string(b)
			}
			blank(i, i+4+end+3)
			i += 4 + end + 3
		case strings.HasPrefix(lower[i:], "<nowiki"):
			if gt := strings.IndexByte(lower[i:], '>'); gt > 0 && lower[i+gt-1] == '/' {
				blank(i, i+gt+1)
				i += gt + 1
				continue
			}
			end := strings.Index(lower[i:], "</nowiki>")
			if end < 0 {
				blank(i, len(b))
				return string(b)
			}
			blank(i, i+end+len("</nowiki>"))
			i += end + len("</nowiki>")
		case strings.HasPrefix(text[i:], "{{{"):
			end := strings.Index(text[i+3:], "}}}")
			if end < 0 {
				i += 3
				continue
			}
			blank(i, i+3+end+3)
			i += 3 + end + 3
		default:
			i++
		}
	}
	return string(b)
}

// asciiLower lower-cases ASCII letters only, keeping byte offsets intact.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// parseTemplates scans masked source for balanced {{...}} pairs.
func parseTemplates(masked string) []Template {
	type span struct{ start, end int }

	var (
		stack []int
		spans []span
	)

	for i := 0; i < len(masked)-1; {
		switch {
		case masked[i] == '{' && masked[i+1] == '{':
			stack = append(stack, i)
			i += 2
		case masked[i] == '}' && masked[i+1] == '}' && len(stack) > 0:
			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			spans = append(spans, span{start: start, end: i + 2})
			i += 2
		default:
			i++
		}
	}

	// Spans close innermost first; outer templates open first.
	slices.SortFunc(spans, func(a, b span) int { return a.start - b.start })

	templates := make([]Template, 0, len(spans))
	for _, s := range spans {
		if t, ok := parseTemplate(masked[s.start+2 : s.end-2]); ok {
			templates = append(templates, t)
		}
	}
	return templates
}

// parseTemplate splits the inner text of a transclusion into name and
// parameters. Pipes and equals signs nested inside other templates or
// wikilinks do not split.
func parseTemplate(inner string) (Template, bool) {
	parts := splitTopLevel(inner)
	name := strings.TrimSpace(parts[0])
	if name == "" || strings.HasPrefix(name, "#") || strings.ContainsAny(name, "{}[]<>") {
		return Template{}, false
	}
	if idx := strings.Index(name, ":"); idx > 0 && isParserFunction(name[:idx]) {
		return Template{}, false
	}

	t := Template{Name: name}
	positional := 0
	for _, part := range parts[1:] {
		if eq := topLevelEquals(part); eq >= 0 {
			t.Params = append(t.Params, Param{
				Name:  strings.TrimSpace(part[:eq]),
				Value: strings.TrimSpace(part[eq+1:]),
			})
			continue
		}
		positional++
		t.Params = append(t.Params, Param{
			Name:  strconv.Itoa(positional),
			Value: strings.TrimSpace(part),
		})
	}
	return t, true
}

func isParserFunction(prefix string) bool {
	switch strings.ToLower(strings.TrimSpace(prefix)) {
	case "subst", "safesubst", "msgnw", "int", "urlencode", "lc", "uc", "lcfirst", "ucfirst", "formatnum", "padleft", "padright", "fullurl", "localurl":
		return true
	}
	return false
}

func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		last  int
	)
	for i := 0; i < len(s); i++ {
		switch {
		case i+1 < len(s) && (s[i:i+2] == "{{" || s[i:i+2] == "[["):
			depth++
			i++
		case i+1 < len(s) && (s[i:i+2] == "}}" || s[i:i+2] == "]]"):
			if depth > 0 {
				depth--
			}
			i++
		case s[i] == '|' && depth == 0:
			parts = append(parts, s[last:i])
			last = i + 1
		}
	}
	return append(parts, s[last:])
}

func topLevelEquals(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch {
		case i+1 < len(s) && (s[i:i+2] == "{{" || s[i:i+2] == "[["):
			depth++
			i++
		case i+1 < len(s) && (s[i:i+2] == "}}" || s[i:i+2] == "]]"):
			if depth > 0 {
				depth--
			}
			i++
		case s[i] == '=' && depth == 0:
			return i
		}
	}
	return -1
}
