package twitter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vthunder/postbot/internal/types"
)

var testCreds = Credentials{
	ConsumerKey:       "ck",
	ConsumerSecret:    "cs",
	AccessToken:       "at",
	AccessTokenSecret: "ats",
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		assert.True(t, strings.HasPrefix(auth, "OAuth "), "unsigned request: %q", auth)
		assert.Contains(t, auth, `oauth_consumer_key="ck"`)
		assert.Contains(t, auth, `oauth_token="at"`)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(testCreds, WithBaseURL(srv.URL))
}

func TestCredentialsMissing(t *testing.T) {
	assert.Empty(t, testCreds.Missing())
	assert.Equal(t, []string{"ACCESS_TOKEN_SECRET", "CONSUMER_KEY"}, Credentials{
		ConsumerSecret: "x",
		AccessToken:    "y",
	}.Missing())
}

func TestCurrentUsername(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/users/me", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"id":"1","username":"postbot"}}`))
	})

	name, err := c.CurrentUsername(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "postbot", name)
}

func TestRecentPosts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/users/by/username/alice":
			_, _ = w.Write([]byte(`{"data":{"id":"42","username":"Alice"}}`))
		case "/2/users/42/tweets":
			assert.Equal(t, "5", r.URL.Query().Get("max_results"))
			assert.Contains(t, r.URL.Query().Get("tweet.fields"), "conversation_id")
			_, _ = w.Write([]byte(`{"data":[
				{"id":"3","text":"@bob @carol yes","conversation_id":"1","created_at":"2021-03-01T10:00:00.000Z",
				 "entities":{"mentions":[{"username":"bob"},{"username":"carol"},{"username":"bob"}]},
				 "referenced_tweets":[{"type":"replied_to","id":"2"}]},
				{"id":"4","text":"hello @bob","conversation_id":"4","created_at":"2021-03-01T09:00:00.000Z",
				 "entities":{"mentions":[{"username":"bob"}]}},
				{"id":"5","text":"third","created_at":"2021-03-01T08:00:00.000Z"}
			]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	posts, err := c.RecentPosts(context.Background(), "alice", 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	reply := posts[0]
	assert.Equal(t, "3", reply.ID)
	assert.Equal(t, "1", reply.ConversationID)
	assert.Equal(t, "Alice", reply.Username)
	assert.Equal(t, time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC), reply.CreatedAt.UTC())
	assert.Equal(t, []types.ReplyUser{{Username: "Alice"}, {Username: "bob"}, {Username: "carol"}}, reply.ReplyTo)

	original := posts[1]
	assert.Equal(t, []types.ReplyUser{{Username: "Alice"}}, original.ReplyTo)
}

func TestRecentPostsMissingConversationID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/2/users/by/") {
			_, _ = w.Write([]byte(`{"data":{"id":"42","username":"alice"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"9","text":"x","created_at":"2021-03-01T08:00:00Z"}]}`))
	})

	posts, err := c.RecentPosts(context.Background(), "alice", 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "9", posts[0].ConversationID)
}

func TestRecentPostsUnknownUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"title":"Not Found Error","detail":"Could not find user"}]}`))
	})

	_, err := c.RecentPosts(context.Background(), "ghost", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not find user")
}

func TestRepliedToID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/tweets/10":
			_, _ = w.Write([]byte(`{"data":{"id":"10","referenced_tweets":[{"type":"quoted","id":"7"},{"type":"replied_to","id":"8"}]}}`))
		case "/2/tweets/11":
			_, _ = w.Write([]byte(`{"data":{"id":"11"}}`))
		default:
			http.Error(w, `{"title":"gone"}`, http.StatusNotFound)
		}
	})

	id, err := c.RepliedToID(context.Background(), "10")
	require.NoError(t, err)
	assert.Equal(t, "8", id)

	id, err = c.RepliedToID(context.Background(), "11")
	require.NoError(t, err)
	assert.Empty(t, id)

	_, err = c.RepliedToID(context.Background(), "12")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrLookup)
}

func TestPublish(t *testing.T) {
	var got []createRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2/tweets", r.URL.Path)
		var req createRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		got = append(got, req)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"99","text":"ok"}}`))
	})

	id, err := c.Publish(context.Background(), "hello world", "")
	require.NoError(t, err)
	assert.Equal(t, "99", id)

	_, err = c.Publish(context.Background(), "@bob agreed", "55")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Nil(t, got[0].Reply)
	require.NotNil(t, got[1].Reply)
	assert.Equal(t, "55", got[1].Reply.InReplyToTweetID)
}
