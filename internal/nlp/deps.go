package nlp

import "strings"

// LabelDependencies assigns nsubj/nsubjpass/obj labels with a chunking pass
// over universal tags. Every verb group takes the nominal directly before it
// (skipping adverbs) as subject and the head of the noun phrase directly
// after it as object.
func LabelDependencies(tokens []Token) {
	i := 0
	for i < len(tokens) {
		if !isVerbal(tokens[i]) {
			i++
			continue
		}
		start := i
		for i < len(tokens) && (isVerbal(tokens[i]) || tokens[i].POS == ADV || tokens[i].POS == PART) {
			i++
		}
		group := tokens[start:i]

		if s := subjectBefore(tokens, start); s >= 0 {
			tokens[s].Dep = DepNsubj
			if isPassive(group) {
				tokens[s].Dep = DepNsubjPass
			}
		}
		if o := objectAfter(tokens, i); o >= 0 {
			tokens[o].Dep = DepObj
		}
	}
}

func isVerbal(t Token) bool {
	return t.POS == VERB || t.POS == AUX
}

func isPassive(group []Token) bool {
	hasBe, hasParticiple := false, false
	for _, t := range group {
		if t.POS == AUX && beForms[strings.ToLower(t.Text)] {
			hasBe = true
		}
		if hasBe && t.Tag == "VBN" {
			hasParticiple = true
		}
	}
	return hasParticiple
}

func subjectBefore(tokens []Token, start int) int {
	j := start - 1
	for j >= 0 && (tokens[j].POS == ADV || tokens[j].POS == PART) {
		j--
	}
	if j < 0 || tokens[j].Dep != "" {
		return -1
	}
	switch tokens[j].POS {
	case NOUN, PROPN, PRON, NUM, DET:
		return j
	}
	return -1
}

func objectAfter(tokens []Token, end int) int {
	if end >= len(tokens) {
		return -1
	}
	if tokens[end].POS == PRON {
		return end
	}
	head, det := -1, -1
	for j := end; j < len(tokens); j++ {
		switch tokens[j].POS {
		case NOUN, PROPN:
			head = j
		case DET, ADJ, NUM:
			if head >= 0 {
				return head
			}
			if tokens[j].POS == DET {
				det = j
			}
		default:
			if head >= 0 {
				return head
			}
			// a determiner standing alone is the object ("ate that")
			return det
		}
	}
	if head >= 0 {
		return head
	}
	return det
}
