package effectors

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestIsNonRetryableError_GenericError(t *testing.T) {
	if isNonRetryableError(errors.New("network timeout")) {
		t.Error("generic error should be retryable")
	}
}

func TestIsNonRetryableError_4xxStatus(t *testing.T) {
	for _, code := range []int{400, 401, 403, 404, 429} {
		err := &discordgo.RESTError{
			Response: &http.Response{StatusCode: code},
		}
		if !isNonRetryableError(err) {
			t.Errorf("HTTP %d should be non-retryable", code)
		}
	}
}

func TestIsNonRetryableError_5xxStatus(t *testing.T) {
	for _, code := range []int{500, 502, 503} {
		err := &discordgo.RESTError{
			Response: &http.Response{StatusCode: code},
		}
		if isNonRetryableError(err) {
			t.Errorf("HTTP %d should be retryable (server error)", code)
		}
	}
}

func TestAnnounce_RetriesTransientErrors(t *testing.T) {
	calls := 0
	a := newAnnouncer("chan", func(ctx context.Context, channelID, content string) error {
		calls++
		if channelID != "chan" || content != "posted" {
			t.Errorf("unexpected send(%q, %q)", channelID, content)
		}
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	a.backoff = 0

	if err := a.Announce(context.Background(), "posted"); err != nil {
		t.Fatalf("Announce() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestAnnounce_StopsOnClientError(t *testing.T) {
	calls := 0
	a := newAnnouncer("chan", func(ctx context.Context, channelID, content string) error {
		calls++
		return &discordgo.RESTError{Response: &http.Response{StatusCode: 403}}
	})
	a.backoff = 0

	if err := a.Announce(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestAnnounce_GivesUp(t *testing.T) {
	calls := 0
	a := newAnnouncer("chan", func(ctx context.Context, channelID, content string) error {
		calls++
		return errors.New("down")
	})
	a.backoff = 0

	if err := a.Announce(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	if calls != a.maxAttempts {
		t.Errorf("calls = %d, want %d", calls, a.maxAttempts)
	}
}
