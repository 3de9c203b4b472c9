// Package prompt builds the role-tagged prefix the fine-tuned model was
// trained on. The section markers and their order are fixed by the training
// data and must not change.
package prompt

import (
	"strings"

	"github.com/vthunder/postbot/internal/types"
)

const (
	sectionArguments = "****ARGUMENTS\n"
	sectionParent    = "****PARENT\n"
	sectionInReplyTo = "****IN_REPLY_TO\n"
	sectionTweet     = "****TWEET\n"
)

// Build returns the generation prompt for mode.
// ORIGINAL uses seed as the start of the TWEET section; REPLY fills PARENT
// and IN_REPLY_TO with parent and leaves TWEET for the model.
func Build(mode types.Mode, seed, parent string) string {
	var b strings.Builder
	b.WriteString(sectionArguments)

	switch mode {
	case types.ModeReply:
		b.WriteString("REPLY\n")
		b.WriteString(sectionParent)
		b.WriteString(parent + "\n")
		b.WriteString(sectionInReplyTo)
		b.WriteString(parent + "\n")
		b.WriteString(sectionTweet)
	default:
		b.WriteString("ORIGINAL\n")
		b.WriteString(sectionParent)
		b.WriteString(sectionInReplyTo)
		b.WriteString(sectionTweet)
		b.WriteString(seed)
	}

	return b.String()
}
