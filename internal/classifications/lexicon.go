package classifications

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
)

const (
	scoreNumeral  = 0.99
	scoreClosed   = 0.95
	scoreProper   = 0.6
	scoreSuffix   = 0.55
	scoreFallback = 0.4
)

var closedClass = map[string]string{
	"the": "DT", "a": "DT", "an": "DT", "this": "DT", "that": "DT",
	"these": "DT", "those": "DT", "each": "DT", "every": "DT", "some": "DT",
	"any": "DT", "no": "DT", "another": "DT", "either": "DT", "neither": "DT",

	"all": "PDT", "both": "PDT", "half": "PDT",

	"and": "CC", "or": "CC", "but": "CC", "nor": "CC", "yet": "CC", "plus": "CC",

	"of": "IN", "in": "IN", "on": "IN", "at": "IN", "by": "IN", "with": "IN",
	"from": "IN", "into": "IN", "onto": "IN", "over": "IN", "under": "IN",
	"about": "IN", "after": "IN", "before": "IN", "between": "IN",
	"through": "IN", "during": "IN", "without": "IN", "within": "IN",
	"against": "IN", "among": "IN", "upon": "IN", "toward": "IN",
	"towards": "IN", "across": "IN", "behind": "IN", "beyond": "IN",
	"since": "IN", "until": "IN", "than": "IN", "because": "IN",
	"although": "IN", "though": "IN", "while": "IN", "if": "IN",
	"whether": "IN", "as": "IN", "like": "IN", "near": "IN", "for": "IN",

	"to": "TO",

	"can": "MD", "could": "MD", "may": "MD", "might": "MD", "must": "MD",
	"shall": "MD", "should": "MD", "will": "MD", "would": "MD",

	"i": "PRP", "me": "PRP", "you": "PRP", "he": "PRP", "him": "PRP",
	"she": "PRP", "her": "PRP", "it": "PRP", "we": "PRP", "us": "PRP",
	"they": "PRP", "them": "PRP", "my": "PRP", "your": "PRP", "his": "PRP",
	"its": "PRP", "our": "PRP", "their": "PRP", "myself": "PRP",
	"yourself": "PRP", "himself": "PRP", "herself": "PRP", "itself": "PRP",
	"ourselves": "PRP", "themselves": "PRP",

	"there": "EX",

	"which": "WDT", "whatever": "WDT", "whichever": "WDT",
	"who": "WP", "whom": "WP", "what": "WP", "whose": "WP", "whoever": "WP",
	"when": "WRB", "where": "WRB", "why": "WRB", "how": "WRB",
	"whenever": "WRB", "wherever": "WRB",

	"not": "RB", "very": "RB", "also": "RB", "too": "RB", "just": "RB",
	"only": "RB", "never": "RB", "always": "RB", "often": "RB",
	"still": "RB", "already": "RB", "soon": "RB", "here": "RB",
	"now": "RB", "then": "RB", "quite": "RB", "rather": "RB",
	"more": "RBR", "less": "RBR",
	"most": "RBS", "least": "RBS",
	"better": "JJR", "worse": "JJR",
	"best": "JJS", "worst": "JJS",

	"oh": "UH", "ah": "UH", "yes": "UH", "hello": "UH", "hi": "UH",
	"wow": "UH", "oops": "UH",

	"be": "VB", "is": "VBZ", "are": "VBP", "am": "VBP", "was": "VBD",
	"were": "VBD", "been": "VBN", "being": "VBG",
	"have": "VBP", "has": "VBZ", "had": "VBD", "having": "VBG",
	"do": "VBP", "does": "VBZ", "did": "VBD", "done": "VBN",
}

var suffixRules = []struct {
	suffix string
	label  string
}{
	{"ly", "RB"},
	{"ing", "VBG"},
	{"ed", "VBD"},
	{"est", "JJS"},
	{"ous", "JJ"},
	{"ful", "JJ"},
	{"able", "JJ"},
	{"ible", "JJ"},
	{"ive", "JJ"},
	{"ical", "JJ"},
	{"less", "JJ"},
	{"er", "JJR"},
	{"s", "NNS"},
}

// Lexicon is an offline rule-based tagger. It segments text into words
// on Unicode word boundaries and labels each word from a closed-class
// lexicon, numeral and punctuation detection, capitalisation and suffix
// heuristics.
type Lexicon struct{}

// NewLexicon creates a Lexicon classifier.
func NewLexicon() *Lexicon {
	return &Lexicon{}
}

// Classify tags every non-space word in text with code-point offsets.
func (l *Lexicon) Classify(ctx context.Context, text string) ([]Prediction, error) {
	fold := cases.Fold()

	var (
		preds   []Prediction
		offset  int
		state   = -1
		initial = true
		word    string
		rest    = text
	)

	for len(rest) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		word, rest, state = uniseg.FirstWordInString(rest, state)
		length := utf8.RuneCountInString(word)
		begin := offset
		offset += length

		if strings.TrimSpace(word) == "" {
			continue
		}

		label, score := tag(word, fold.String(word), initial)
		preds = append(preds, Prediction{
			Word:    word,
			Label:   label,
			Score:   score,
			Offsets: &Offsets{Begin: begin, End: offset},
		})

		initial = label == "." && strings.ContainsAny(word, ".!?")
	}

	return preds, nil
}

func tag(word, folded string, initial bool) (string, float64) {
	switch {
	case numeral(word):
		return "CD", scoreNumeral
	case punctuation(word):
		return ".", scoreNumeral
	case !hasLetter(word):
		return "SYM", scoreSuffix
	}

	if label, ok := closedClass[folded]; ok {
		return label, scoreClosed
	}

	first, _ := utf8.DecodeRuneInString(word)
	if unicode.IsUpper(first) && !initial {
		if strings.HasSuffix(folded, "s") && len(folded) > 3 {
			return "NNPS", scoreProper
		}
		return "NNP", scoreProper
	}

	if !latin(word) {
		return "FW", scoreSuffix
	}

	for _, rule := range suffixRules {
		if len(folded) > len(rule.suffix)+2 && strings.HasSuffix(folded, rule.suffix) {
			return rule.label, scoreSuffix
		}
	}

	return "NN", scoreFallback
}

func numeral(word string) bool {
	digits := 0
	for _, r := range word {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '.' || r == ',':
		default:
			return false
		}
	}
	return digits > 0
}

func punctuation(word string) bool {
	for _, r := range word {
		if !unicode.IsPunct(r) {
			return false
		}
	}
	return true
}

func hasLetter(word string) bool {
	return strings.IndexFunc(word, unicode.IsLetter) >= 0
}

func latin(word string) bool {
	for _, r := range word {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}
