// postbot-mcp exposes the bot as an MCP tool over stdio.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vthunder/postbot/internal/app"
	"github.com/vthunder/postbot/internal/bot"
	"github.com/vthunder/postbot/internal/config"
	"github.com/vthunder/postbot/internal/logging"
	"github.com/vthunder/postbot/internal/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	// stdout carries the protocol
	logging.SetOutput(os.Stderr, cfg.LogFormat == "console", cfg.Debug)

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	s := server.NewMCPServer(
		"postbot-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.AddTool(publishTool(), handlePublish(a.Service))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		a.Close()
		os.Exit(1)
	}
}

func publishTool() mcp.Tool {
	return mcp.NewTool("publish_post",
		mcp.WithDescription("Generate a post with a trained model and publish it. ORIGINAL seeds from the first account's latest post; REPLY answers the newest unanswered statement among the accounts."),
		mcp.WithArray("usernames",
			mcp.Required(),
			mcp.Description("Account handles without @. ORIGINAL uses only the first."),
		),
		mcp.WithString("tweet_type",
			mcp.Required(),
			mcp.Description("ORIGINAL or REPLY (case-insensitive)"),
		),
		mcp.WithString("model",
			mcp.Required(),
			mcp.Description("Model identifier in the artifact store"),
		),
	)
}

type invoker interface {
	Handle(ctx context.Context, req types.Request) (*bot.Result, error)
}

func handlePublish(svc invoker) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)
		r, err := requestFromArgs(args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, err := svc.Handle(ctx, r)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to publish: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s\n\nPost ID: %s", res.Confirmation(), res.PostID)), nil
	}
}

func requestFromArgs(args map[string]any) (types.Request, error) {
	var r types.Request
	switch v := args["usernames"].(type) {
	case []any:
		for _, u := range v {
			s, ok := u.(string)
			if !ok {
				return r, fmt.Errorf("%w: usernames must be strings", types.ErrConfiguration)
			}
			r.Usernames = append(r.Usernames, s)
		}
	case []string:
		r.Usernames = v
	case string:
		r.Usernames = []string{v}
	}
	r.TweetType, _ = args["tweet_type"].(string)
	r.Model, _ = args["model"].(string)

	if err := r.Validate(); err != nil {
		return types.Request{}, err
	}
	return r, nil
}
