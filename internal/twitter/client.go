// Package twitter is the platform client: it reads timelines, resolves
// posts and publishes through the X (Twitter) API v2 with OAuth 1.0a user
// context.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/vthunder/postbot/internal/logging"
	"github.com/vthunder/postbot/internal/types"
)

const defaultBaseURL = "https://api.twitter.com"

// Credentials are the four OAuth 1.0a values of the posting account
type Credentials struct {
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
}

// Missing returns the names of empty credential values
func (c Credentials) Missing() []string {
	var missing []string
	for name, v := range map[string]string{
		"CONSUMER_KEY":        c.ConsumerKey,
		"CONSUMER_SECRET":     c.ConsumerSecret,
		"ACCESS_TOKEN":        c.AccessToken,
		"ACCESS_TOKEN_SECRET": c.AccessTokenSecret,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Client is an authenticated API client
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another API host
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// NewClient creates a client signing every request with creds
func NewClient(creds Credentials, opts ...Option) *Client {
	config := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)

	httpClient := config.Client(context.Background(), token)
	httpClient.Timeout = 30 * time.Second

	c := &Client{baseURL: defaultBaseURL, http: httpClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type user struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type userResponse struct {
	Data   *user      `json:"data"`
	Errors []apiError `json:"errors"`
}

type tweet struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
	Entities       struct {
		Mentions []struct {
			Username string `json:"username"`
		} `json:"mentions"`
	} `json:"entities"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets"`
}

type tweetResponse struct {
	Data   *tweet     `json:"data"`
	Errors []apiError `json:"errors"`
}

type timelineResponse struct {
	Data   []tweet    `json:"data"`
	Errors []apiError `json:"errors"`
}

type createRequest struct {
	Text  string        `json:"text"`
	Reply *replySetting `json:"reply,omitempty"`
}

type replySetting struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type createResponse struct {
	Data *struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
	Errors []apiError `json:"errors"`
}

// CurrentUsername returns the handle of the authenticated account
func (c *Client) CurrentUsername(ctx context.Context) (string, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodGet, "/2/users/me", nil, nil, &resp); err != nil {
		return "", fmt.Errorf("get current account: %w", err)
	}
	if resp.Data == nil {
		return "", fmt.Errorf("get current account: %s", describe(resp.Errors))
	}
	return resp.Data.Username, nil
}

// RecentPosts returns up to limit of username's latest posts, newest first
func (c *Client) RecentPosts(ctx context.Context, username string, limit int) ([]types.Post, error) {
	var who userResponse
	if err := c.do(ctx, http.MethodGet, "/2/users/by/username/"+url.PathEscape(username), nil, nil, &who); err != nil {
		return nil, fmt.Errorf("resolve user %s: %w", username, err)
	}
	if who.Data == nil {
		return nil, fmt.Errorf("resolve user %s: %s", username, describe(who.Errors))
	}

	// the API accepts 5..100 results per page
	q := url.Values{}
	q.Set("max_results", strconv.Itoa(max(5, min(limit, 100))))
	q.Set("tweet.fields", "conversation_id,created_at,entities,referenced_tweets")

	var timeline timelineResponse
	if err := c.do(ctx, http.MethodGet, "/2/users/"+who.Data.ID+"/tweets", q, nil, &timeline); err != nil {
		return nil, fmt.Errorf("timeline of %s: %w", username, err)
	}

	posts := make([]types.Post, 0, len(timeline.Data))
	for _, t := range timeline.Data {
		if len(posts) == limit {
			break
		}
		posts = append(posts, toPost(t, who.Data.Username))
	}
	logging.Debug("twitter", "Fetched %d posts from %s", len(posts), username)
	return posts, nil
}

// toPost maps an API tweet. reply_to lists the author first, followed by the
// mentioned accounts when the tweet replies to another one.
func toPost(t tweet, author string) types.Post {
	p := types.Post{
		ID:             t.ID,
		ConversationID: t.ConversationID,
		Username:       author,
		Text:           t.Text,
		CreatedAt:      t.CreatedAt,
		ReplyTo:        []types.ReplyUser{{Username: author}},
	}
	if p.ConversationID == "" {
		p.ConversationID = p.ID
	}
	if repliedTo(t) == "" {
		return p
	}
	seen := map[string]bool{strings.ToLower(author): true}
	for _, m := range t.Entities.Mentions {
		if key := strings.ToLower(m.Username); !seen[key] {
			seen[key] = true
			p.ReplyTo = append(p.ReplyTo, types.ReplyUser{Username: m.Username})
		}
	}
	return p
}

func repliedTo(t tweet) string {
	for _, ref := range t.ReferencedTweets {
		if ref.Type == "replied_to" {
			return ref.ID
		}
	}
	return ""
}

// RepliedToID returns the id of the post that id replies to, or "" when it
// is not a reply. Any failure wraps types.ErrLookup.
func (c *Client) RepliedToID(ctx context.Context, id string) (string, error) {
	q := url.Values{}
	q.Set("tweet.fields", "referenced_tweets")

	var resp tweetResponse
	if err := c.do(ctx, http.MethodGet, "/2/tweets/"+url.PathEscape(id), q, nil, &resp); err != nil {
		return "", fmt.Errorf("%w: post %s: %v", types.ErrLookup, id, err)
	}
	if resp.Data == nil {
		return "", fmt.Errorf("%w: post %s: %s", types.ErrLookup, id, describe(resp.Errors))
	}
	return repliedTo(*resp.Data), nil
}

// Publish posts text, as a reply when inReplyTo is set, and returns the new id
func (c *Client) Publish(ctx context.Context, text, inReplyTo string) (string, error) {
	req := createRequest{Text: text}
	if inReplyTo != "" {
		req.Reply = &replySetting{InReplyToTweetID: inReplyTo}
	}

	var resp createResponse
	if err := c.do(ctx, http.MethodPost, "/2/tweets", nil, req, &resp); err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}
	if resp.Data == nil {
		return "", fmt.Errorf("publish: %s", describe(resp.Errors))
	}
	logging.Info("twitter", "Published %s: %s", resp.Data.ID, logging.Truncate(text, 60))
	return resp.Data.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error (status %d): %s", resp.StatusCode, logging.Truncate(string(data), 200))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func describe(errs []apiError) string {
	if len(errs) == 0 {
		return "empty response"
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, strings.TrimSpace(e.Title+": "+e.Detail))
	}
	return strings.Join(parts, "; ")
}
