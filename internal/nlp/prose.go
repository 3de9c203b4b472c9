package nlp

import (
	"fmt"
	"strings"

	"github.com/tsawler/prose/v3"
)

// ProseAnnotator tags text with the prose averaged-perceptron tagger and
// sentence segmenter, then labels subjects and objects with LabelDependencies
type ProseAnnotator struct{}

// NewProseAnnotator creates a prose-backed annotator
func NewProseAnnotator() *ProseAnnotator {
	return &ProseAnnotator{}
}

// Annotate segments text into sentences and tags every token
func (a *ProseAnnotator) Annotate(text string) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return &Document{}, nil
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, fmt.Errorf("prose document: %w", err)
	}

	var sentences []string
	for _, s := range doc.Sentences() {
		if t := strings.TrimSpace(s.Text); t != "" {
			sentences = append(sentences, t)
		}
	}

	var words, tags []string
	for _, tok := range doc.Tokens() {
		words = append(words, tok.Text)
		tags = append(tags, tok.Tag)
	}

	return &Document{
		Sentences: sentences,
		Tokens:    Build(words, tags),
	}, nil
}
