// Package nlp provides the linguistic annotation used by the statement
// classifier: sentence segmentation, universal part-of-speech tags and a
// shallow dependency labelling (subjects and objects).
package nlp

// Universal part-of-speech tags
const (
	ADJ   = "ADJ"
	ADP   = "ADP"
	ADV   = "ADV"
	AUX   = "AUX"
	CCONJ = "CCONJ"
	CONJ  = "CONJ" // pre-v2 name for CCONJ, still emitted by some taggers
	DET   = "DET"
	INTJ  = "INTJ"
	NOUN  = "NOUN"
	NUM   = "NUM"
	PART  = "PART"
	PRON  = "PRON"
	PROPN = "PROPN"
	PUNCT = "PUNCT"
	SCONJ = "SCONJ"
	SYM   = "SYM"
	VERB  = "VERB"
	X     = "X"
)

// Dependency labels
const (
	DepNsubj     = "nsubj"
	DepNsubjPass = "nsubjpass"
	DepDobj      = "dobj"
	DepObj       = "obj"
)

// Token is one annotated word
type Token struct {
	Text string // surface form
	Tag  string // fine-grained (Penn Treebank) tag
	POS  string // universal part of speech
	Dep  string // dependency label, empty when unlabelled
}

// Document is the annotation of a piece of text
type Document struct {
	Sentences []string
	Tokens    []Token
}

// Annotator segments and tags text
type Annotator interface {
	Annotate(text string) (*Document, error)
}

// AnnotatorFunc adapts a function to Annotator
type AnnotatorFunc func(text string) (*Document, error)

// Annotate calls f(text)
func (f AnnotatorFunc) Annotate(text string) (*Document, error) {
	return f(text)
}
