package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ReplyUser is one entry of a post's reply_to list
type ReplyUser struct {
	Username string `json:"username"`
}

// Post is a fetched unit of content from the platform
type Post struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	Username       string      `json:"username"` // author handle
	Text           string      `json:"text"`
	CreatedAt      time.Time   `json:"created_at"`
	ReplyTo        []ReplyUser `json:"reply_to"` // first entry is the author
}

// Mode selects which generation branch runs
type Mode string

const (
	ModeOriginal Mode = "original" // seed-word original post
	ModeReply    Mode = "reply"    // reply to a target account's post
)

// ParseMode resolves a tweet_type value case-insensitively
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ModeOriginal):
		return ModeOriginal, nil
	case string(ModeReply):
		return ModeReply, nil
	default:
		return "", fmt.Errorf("%w: unknown tweet_type %q", ErrConfiguration, s)
	}
}

// Request is the invocation input shared by every entry point
type Request struct {
	Usernames []string `json:"usernames"`
	TweetType string   `json:"tweet_type"`
	Model     string   `json:"model"`
}

// ParseRequest decodes and validates an invocation body
func ParseRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("%w: malformed input: %v", ErrConfiguration, err)
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate checks the request before any external call is made
func (r Request) Validate() error {
	if len(r.Usernames) == 0 {
		return fmt.Errorf("%w: usernames must not be empty", ErrConfiguration)
	}
	for _, u := range r.Usernames {
		if strings.TrimSpace(u) == "" {
			return fmt.Errorf("%w: blank username", ErrConfiguration)
		}
	}
	if _, err := ParseMode(r.TweetType); err != nil {
		return err
	}
	if strings.TrimSpace(r.Model) == "" {
		return fmt.Errorf("%w: model must not be empty", ErrConfiguration)
	}
	return nil
}

// Mode returns the parsed mode; call Validate first
func (r Request) Mode() Mode {
	m, _ := ParseMode(r.TweetType)
	return m
}
