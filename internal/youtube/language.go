package youtube

import (
	"strings"

	"github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
)

// LanguageDetector guesses the language of a short text.
type LanguageDetector interface {
	// Detect returns an ISO 639-1 code, or false when unsure.
	Detect(text string) (string, bool)
}

// LinguaDetector detects languages with lingua statistical models.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

// NewLinguaDetector returns a detector for the given languages, or for
// all languages lingua knows when none are given.
func NewLinguaDetector(languages ...lingua.Language) *LinguaDetector {
	builder := lingua.NewLanguageDetectorBuilder()
	var b lingua.LanguageDetectorBuilder
	if len(languages) == 0 {
		b = builder.FromAllLanguages()
	} else {
		b = builder.FromLanguages(languages...)
	}
	return &LinguaDetector{detector: b.Build()}
}

// Detect implements LanguageDetector.
func (d *LinguaDetector) Detect(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return normalizeCode(lang.IsoCode639_1().String())
}

// normalizeCode turns an ISO 639-1 code into the lower-case BCP 47 base
// language used by Wikibase monolingual text.
func normalizeCode(code string) (string, bool) {
	tag, err := language.Parse(strings.ToLower(code))
	if err != nil {
		return "", false
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "", false
	}
	return base.String(), true
}
