package nlp

import "strings"

var beForms = map[string]bool{
	"be": true, "am": true, "is": true, "are": true, "was": true, "were": true,
	"been": true, "being": true, "'s": true, "'re": true, "'m": true,
}

// Universal maps a Penn Treebank tag (with its word) to a universal tag
func Universal(word, tag string) string {
	switch tag {
	case "NN", "NNS":
		return NOUN
	case "NNP", "NNPS":
		return PROPN
	case "PRP", "WP", "EX":
		return PRON
	case "PRP$", "WP$", "DT", "PDT", "WDT":
		return DET
	case "CC":
		return CCONJ
	case "IN":
		return ADP
	case "MD":
		return AUX
	case "VB", "VBD", "VBG", "VBN", "VBP", "VBZ":
		if beForms[strings.ToLower(word)] {
			return AUX
		}
		return VERB
	case "JJ", "JJR", "JJS":
		return ADJ
	case "RB", "RBR", "RBS", "WRB":
		return ADV
	case "CD":
		return NUM
	case "UH":
		return INTJ
	case "TO", "RP", "POS":
		return PART
	case ".", ",", ":", "``", "''", "(", ")", "-LRB-", "-RRB-", "HYPH", "NFP":
		return PUNCT
	case "#", "$", "SYM":
		return SYM
	default:
		return X
	}
}

// Build annotates parallel word/tag slices: universal tags first, then
// subject and object labels.
func Build(words, tags []string) []Token {
	n := min(len(words), len(tags))
	tokens := make([]Token, n)
	for i := 0; i < n; i++ {
		tokens[i] = Token{Text: words[i], Tag: tags[i], POS: Universal(words[i], tags[i])}
	}
	LabelDependencies(tokens)
	return tokens
}
