package classify

import (
	"fmt"
	"strings"

	"github.com/vthunder/postbot/internal/nlp"
	"github.com/vthunder/postbot/internal/types"
)

// Code is the signed statement classification.
// Positive passes, zero is neutral, negative identifies the rejecting rule.
type Code int

const (
	CodeNounSubject        Code = 1  // subject is a noun or proper noun
	CodeFirstPersonSubject Code = 2  // subject is i/me/we/us
	CodeNeutral            Code = 0  // no rule matched
	CodeLeadingConjunction Code = -1 // first word is a coordinating conjunction
	CodeSubjectAfterComma  Code = -2 // opens with a dependent clause
	CodeConcreteObject     Code = -3 // an object is not a pronoun
	CodeVagueSubject       Code = -4 // subject is a pronoun or determiner
)

// Accepted is the strict check: positive codes only
func (c Code) Accepted() bool { return c > 0 }

// Definite is the loose check: any nonzero code
func (c Code) Definite() bool { return c != 0 }

func (c Code) String() string {
	switch c {
	case CodeNounSubject:
		return "noun-subject"
	case CodeFirstPersonSubject:
		return "first-person-subject"
	case CodeNeutral:
		return "neutral"
	case CodeLeadingConjunction:
		return "leading-conjunction"
	case CodeSubjectAfterComma:
		return "subject-after-comma"
	case CodeConcreteObject:
		return "concrete-object"
	case CodeVagueSubject:
		return "vague-subject"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

var firstPerson = map[string]bool{"i": true, "me": true, "we": true, "us": true}

// StatementClassifier decides whether a post's first sentence stands on its own
type StatementClassifier struct {
	annotator nlp.Annotator
}

// NewStatementClassifier creates a classifier over the given annotator
func NewStatementClassifier(a nlp.Annotator) *StatementClassifier {
	return &StatementClassifier{annotator: a}
}

// Classify returns the statement code for the first sentence of text.
// Text without sentences fails with types.ErrEmptyInput.
func (c *StatementClassifier) Classify(text string) (Code, error) {
	doc, err := c.annotator.Annotate(text)
	if err != nil {
		return CodeNeutral, fmt.Errorf("annotate: %w", err)
	}
	if len(doc.Sentences) == 0 {
		return CodeNeutral, fmt.Errorf("%w: no sentences in %q", types.ErrEmptyInput, text)
	}

	// Re-annotate the first sentence on its own
	first, err := c.annotator.Annotate(doc.Sentences[0])
	if err != nil {
		return CodeNeutral, fmt.Errorf("annotate first sentence: %w", err)
	}
	return classifyTokens(first.Tokens), nil
}

func classifyTokens(tokens []nlp.Token) Code {
	for _, t := range tokens {
		if t.Dep == nlp.DepNsubj && (t.POS == nlp.NOUN || t.POS == nlp.PROPN) {
			return CodeNounSubject
		}
	}

	for _, t := range tokens {
		if t.Dep == nlp.DepNsubj && firstPerson[strings.ToLower(t.Text)] {
			return CodeFirstPersonSubject
		}
	}

	if len(tokens) == 0 {
		return CodeNeutral
	}

	i := firstWord(tokens)
	if tokens[i].POS == nlp.CCONJ || tokens[0].POS == nlp.CONJ {
		return CodeLeadingConjunction
	}

	commaSeen := false
	for _, t := range tokens[i:] {
		if t.Text == "," {
			commaSeen = true
		}
		if t.Dep == nlp.DepNsubj && commaSeen {
			return CodeSubjectAfterComma
		}
	}

	// Fires when the object is NOT a pronoun; kept as observed in production
	for _, t := range tokens {
		if (t.Dep == nlp.DepDobj || t.Dep == nlp.DepObj) && t.POS != nlp.PRON {
			return CodeConcreteObject
		}
	}

	for _, t := range tokens {
		if (t.Dep == nlp.DepNsubj || t.Dep == nlp.DepNsubjPass) && (t.POS == nlp.PRON || t.POS == nlp.DET) {
			return CodeVagueSubject
		}
	}

	return CodeNeutral
}

// firstWord is the index of the first non-punctuation token, or the last
// index when every token is punctuation
func firstWord(tokens []nlp.Token) int {
	i := 0
	for i = range tokens {
		if tokens[i].POS != nlp.PUNCT {
			break
		}
	}
	return i
}
