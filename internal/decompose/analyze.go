// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decompose

import (
	"strings"
	"unicode"
)

// stopwords are dropped when reducing a question to its topic keywords.
var stopwords = map[string]bool{
	"a": true, "about": true, "after": true, "all": true, "also": true, "am": true,
	"an": true, "and": true, "any": true, "are": true, "as": true, "at": true,
	"be": true, "been": true, "being": true, "between": true, "both": true, "but": true,
	"by": true, "can": true, "could": true, "did": true, "do": true, "does": true,
	"doing": true, "each": true, "for": true, "from": true, "get": true, "give": true,
	"had": true, "has": true, "have": true, "having": true, "her": true, "here": true,
	"his": true, "how": true, "i": true, "if": true, "in": true, "into": true,
	"is": true, "it": true, "its": true, "just": true, "know": true, "like": true,
	"me": true, "might": true, "more": true, "most": true, "much": true, "must": true,
	"my": true, "need": true, "no": true, "not": true, "of": true, "on": true,
	"or": true, "other": true, "our": true, "out": true, "over": true, "please": true,
	"should": true, "so": true, "some": true, "such": true, "tell": true, "than": true,
	"that": true, "the": true, "their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "those": true, "to": true, "up": true,
	"us": true, "versus": true, "very": true, "vs": true, "want": true, "was": true, "we": true, "were": true,
	"what": true, "when": true, "where": true, "whether": true, "which": true, "while": true,
	"who": true, "whom": true, "whose": true, "why": true, "will": true, "with": true,
	"would": true, "you": true, "your": true,
}

// Analysis is the lexical breakdown of a question.
type Analysis struct {
	// Keywords are the lowercase topic terms in question order. Quoted
	// phrases are kept whole.
	Keywords []string

	// Entities are named things and constraints: quoted phrases, capitalized
	// words after the first, numbers and years, hyphenated compounds.
	Entities []string

	// Quoted marks which entities came from quoted phrases.
	Quoted map[string]bool
}

// Core returns the topic keywords joined into a query string.
func (a Analysis) Core() string {
	return strings.Join(a.Keywords, " ")
}

// Empty reports whether the question carried no usable topic terms.
func (a Analysis) Empty() bool {
	return len(a.Keywords) == 0
}

type token struct {
	text   string
	quoted bool
	first  bool
}

// Analyze tokenizes question into keywords and entities. It is pure.
func Analyze(question string) Analysis {
	a := Analysis{Quoted: map[string]bool{}}
	seenKW := map[string]bool{}
	seenEnt := map[string]bool{}

	for _, tok := range tokenize(question) {
		lower := strings.ToLower(tok.text)
		if tok.quoted {
			if !seenKW[lower] {
				seenKW[lower] = true
				a.Keywords = append(a.Keywords, lower)
			}
			if !seenEnt[lower] {
				seenEnt[lower] = true
				a.Entities = append(a.Entities, lower)
				a.Quoted[lower] = true
			}
			continue
		}
		if stopwords[lower] || (len([]rune(lower)) < 2 && !hasDigit(lower)) {
			continue
		}
		if !seenKW[lower] {
			seenKW[lower] = true
			a.Keywords = append(a.Keywords, lower)
		}
		if isEntity(tok) && !seenEnt[lower] {
			seenEnt[lower] = true
			a.Entities = append(a.Entities, lower)
		}
	}
	return a
}

// Keywords returns the topic keywords of text.
func Keywords(text string) []string {
	return Analyze(text).Keywords
}

func isEntity(t token) bool {
	if hasDigit(t.text) {
		return true
	}
	if strings.Contains(strings.Trim(t.text, "-"), "-") {
		return true
	}
	r := []rune(t.text)
	return !t.first && len(r) > 1 && unicode.IsUpper(r[0])
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// tokenize splits question into words and quoted phrases. Sentence-initial
// words are flagged so capitalization there is not mistaken for a name.
func tokenize(question string) []token {
	var (
		out       []token
		buf       strings.Builder
		inQuote   bool
		sentStart = true
	)

	flushWord := func() {
		raw := buf.String()
		buf.Reset()
		word := strings.TrimFunc(raw, isEdgePunct)
		word = strings.TrimSuffix(strings.TrimSuffix(word, "'s"), "’s")
		if word != "" {
			out = append(out, token{text: word, first: sentStart})
		}
		if word != "" || strings.HasSuffix(raw, ".") {
			sentStart = strings.HasSuffix(raw, ".")
		}
	}

	for _, r := range question {
		switch {
		case r == '"' || r == '“' || r == '”':
			if inQuote {
				phrase := strings.Join(strings.Fields(buf.String()), " ")
				buf.Reset()
				if phrase != "" {
					out = append(out, token{text: phrase, quoted: true, first: sentStart})
					sentStart = false
				}
				inQuote = false
			} else {
				flushWord()
				inQuote = true
			}
		case inQuote:
			buf.WriteRune(r)
		case unicode.IsSpace(r):
			flushWord()
		case r == '.' || r == '?' || r == '!' || r == ';' || r == ':':
			// A period inside a token (e.g. "3.5", "node.js") is kept.
			if r == '.' && buf.Len() > 0 {
				buf.WriteRune(r)
				continue
			}
			flushWord()
			sentStart = true
		default:
			buf.WriteRune(r)
		}
	}
	if inQuote {
		// Unbalanced quote: treat the rest as ordinary words.
		rest := buf.String()
		buf.Reset()
		for _, w := range strings.Fields(rest) {
			buf.WriteString(w)
			flushWord()
		}
	} else {
		flushWord()
	}
	return out
}

func isEdgePunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r) && r != '$' && r != '%'
}
