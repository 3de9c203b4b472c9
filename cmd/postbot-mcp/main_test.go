package main

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vthunder/postbot/internal/bot"
	"github.com/vthunder/postbot/internal/types"
)

func TestRequestFromArgs(t *testing.T) {
	r, err := requestFromArgs(map[string]any{
		"usernames":  []any{"alice", "bob"},
		"tweet_type": "Reply",
		"model":      "m1",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, r.Usernames)
	assert.Equal(t, types.ModeReply, r.Mode())

	r, err = requestFromArgs(map[string]any{"usernames": "solo", "tweet_type": "original", "model": "m"})
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, r.Usernames)

	for _, args := range []map[string]any{
		nil,
		{"usernames": []any{1}, "tweet_type": "original", "model": "m"},
		{"usernames": []any{"a"}, "tweet_type": "poll", "model": "m"},
		{"usernames": []any{"a"}, "tweet_type": "original"},
	} {
		_, err := requestFromArgs(args)
		assert.ErrorIs(t, err, types.ErrConfiguration, "%v", args)
	}
}

type stubInvoker struct {
	res *bot.Result
	err error
}

func (s stubInvoker) Handle(context.Context, types.Request) (*bot.Result, error) {
	return s.res, s.err
}

func call(t *testing.T, inv invoker, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Name = "publish_post"
	req.Params.Arguments = args
	res, err := handlePublish(inv)(context.Background(), req)
	require.NoError(t, err)
	return res
}

func TestHandlePublish(t *testing.T) {
	args := map[string]any{"usernames": []any{"alice"}, "tweet_type": "original", "model": "m"}

	res := call(t, stubInvoker{res: &bot.Result{Text: "hello", PostID: "7"}}, args)
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "Posted the following tweet: hello\n\nPost ID: 7", text.Text)

	res = call(t, stubInvoker{err: errors.New("platform down")}, args)
	assert.True(t, res.IsError)

	res = call(t, stubInvoker{}, map[string]any{})
	assert.True(t, res.IsError)
}
