// Package classify holds the post filters: reply detection and the
// grammatical self-containment check used to pick seeds and targets.
package classify

import (
	"strings"

	"github.com/vthunder/postbot/internal/types"
)

// IsReply reports whether a fetched post is itself a reply.
//
// Rules, first match wins:
//  1. conversation id differs from the post id
//  2. reply_to holds only the author -> not a reply
//  3. some replied-to username (after the author) is missing from the text
//  4. text starts with "@" (old-format replies)
//
// Username matching is a case-insensitive substring test; it can misfire on
// overlapping handles and downstream selection relies on that exact behavior.
func IsReply(p types.Post) bool {
	if p.ConversationID != p.ID {
		return true
	}

	if len(p.ReplyTo) == 1 {
		return false
	}

	text := strings.ToLower(p.Text)
	users := p.ReplyTo
	if len(users) > 0 {
		users = users[1:]
	}
	mentioned := 0
	for _, u := range users {
		if strings.Contains(text, strings.ToLower(u.Username)) {
			mentioned++
		}
	}
	if mentioned < len(users) {
		return true
	}

	if strings.HasPrefix(p.Text, "@") {
		return true
	}

	return false
}
