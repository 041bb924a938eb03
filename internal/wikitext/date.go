package wikitext

// ComplexDate reads a {{complex date|QUALIFIER|DATE}} transclusion from a
// date field. It succeeds only when the value holds exactly one such
// template with exactly two parameters.
func ComplexDate(value string) (qualifier, date string, ok bool) {
	found := Parse(value).TemplatesNamed("Complex date")
	if len(found) != 1 || len(found[0].Params) != 2 {
		return "", "", false
	}

	qualifier, _ = found[0].Get("1")
	date, _ = found[0].Get("2")
	if qualifier == "" || date == "" {
		return "", "", false
	}
	return qualifier, date, true
}
