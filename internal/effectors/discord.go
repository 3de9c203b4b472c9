// Package effectors mirrors bot activity to side channels
package effectors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/vthunder/postbot/internal/logging"
)

// DiscordAnnouncer posts a notice to a Discord channel after each publish
type DiscordAnnouncer struct {
	channelID   string
	maxAttempts int
	backoff     time.Duration
	send        func(ctx context.Context, channelID, content string) error
}

// NewDiscordAnnouncer creates an announcer using a bot token
func NewDiscordAnnouncer(token, channelID string) (*DiscordAnnouncer, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// REST only: no gateway connection is opened
	send := func(ctx context.Context, channelID, content string) error {
		_, err := session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
		return err
	}
	return newAnnouncer(channelID, send), nil
}

func newAnnouncer(channelID string, send func(ctx context.Context, channelID, content string) error) *DiscordAnnouncer {
	return &DiscordAnnouncer{
		channelID:   channelID,
		maxAttempts: 3,
		backoff:     time.Second,
		send:        send,
	}
}

// Announce sends text, retrying transient failures
func (a *DiscordAnnouncer) Announce(ctx context.Context, text string) error {
	var err error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		err = a.send(ctx, a.channelID, text)
		if err == nil {
			logging.Debug("discord", "Announced to %s: %s", a.channelID, logging.Truncate(text, 50))
			return nil
		}
		if isNonRetryableError(err) || attempt == a.maxAttempts {
			break
		}

		logging.Warn("discord", "Announce attempt %d failed: %v", attempt, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.backoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("announce to %s: %w", a.channelID, err)
}

// isNonRetryableError reports client errors (4xx) that a retry cannot fix
func isNonRetryableError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		code := restErr.Response.StatusCode
		return code >= 400 && code < 500
	}
	return false
}
