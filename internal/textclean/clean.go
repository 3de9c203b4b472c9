// Package textclean strips platform noise (leading mentions, links, image
// links, hashtags) from post text before it reaches the model.
package textclean

import (
	"regexp"
	"strings"
)

// Options selects the optional removals
type Options struct {
	StripMentions bool // remove @handles anywhere in the text
	StripHashtags bool // remove #tags anywhere in the text
}

var (
	leadingMention = regexp.MustCompile(`^@[a-zA-Z0-9_]+`)

	// Links, image links, non-breaking space, ellipsis
	basePattern = `http\S+|pic\.\S+|\x{00A0}|\x{2026}`
	mentionPart = `|@[a-zA-Z0-9_]+`
	hashtagPart = `|#[a-zA-Z0-9_]+`

	noise = map[Options]*regexp.Regexp{
		{}:                                         regexp.MustCompile(basePattern),
		{StripMentions: true}:                      regexp.MustCompile(basePattern + mentionPart),
		{StripHashtags: true}:                      regexp.MustCompile(basePattern + hashtagPart),
		{StripMentions: true, StripHashtags: true}: regexp.MustCompile(basePattern + mentionPart + hashtagPart),
	}
)

// Clean removes leading mentions, links and the optional tokens.
// A removal can expose a new leading mention, so the pass repeats until the
// text is stable; Clean(Clean(x)) == Clean(x).
func Clean(text string, opts Options) string {
	for {
		next := cleanOnce(text, opts)
		if next == text {
			return next
		}
		text = next
	}
}

func cleanOnce(text string, opts Options) string {
	for leadingMention.MatchString(text) {
		text = strings.TrimSpace(leadingMention.ReplaceAllString(text, ""))
	}
	return strings.TrimSpace(noise[opts].ReplaceAllString(text, ""))
}
