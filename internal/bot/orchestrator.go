// Package bot runs one invocation of the posting pipeline:
// fetch, filter, prompt, generate, select, publish.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vthunder/postbot/internal/classify"
	"github.com/vthunder/postbot/internal/generate"
	"github.com/vthunder/postbot/internal/logging"
	"github.com/vthunder/postbot/internal/metrics"
	"github.com/vthunder/postbot/internal/profiling"
	"github.com/vthunder/postbot/internal/prompt"
	"github.com/vthunder/postbot/internal/textclean"
	"github.com/vthunder/postbot/internal/types"
)

// ErrNoTarget means REPLY mode found no post worth answering
var ErrNoTarget = errors.New("no reply target")

// Source returns an account's recent posts, newest first
type Source interface {
	RecentPosts(ctx context.Context, username string, limit int) ([]types.Post, error)
}

// Platform is the authenticated account on the social platform
type Platform interface {
	CurrentUsername(ctx context.Context) (string, error)
	RepliedToID(ctx context.Context, postID string) (string, error)
	Publish(ctx context.Context, text, inReplyTo string) (string, error)
}

// Generator produces continuations of a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string, p generate.Params) ([]string, error)
}

// Classifier scores text as a statement
type Classifier interface {
	Classify(text string) (classify.Code, error)
}

// Config holds the per-invocation tuning
type Config struct {
	FetchLimit      int             // posts fetched per account
	GenerateRetries int             // samples requested in ORIGINAL mode
	APIDelay        time.Duration   // minimum spacing of platform calls
	Params          generate.Params // sampling parameters
}

// DefaultConfig returns the production tuning
func DefaultConfig() Config {
	return Config{
		FetchLimit:      20,
		GenerateRetries: 5,
		APIDelay:        1500 * time.Millisecond,
		Params:          generate.DefaultParams(),
	}
}

// Result describes what was published
type Result struct {
	Mode      types.Mode `json:"mode"`
	Text      string     `json:"text"`
	PostID    string     `json:"post_id"`
	InReplyTo string     `json:"in_reply_to,omitempty"`
}

// Confirmation is the plain-text response returned to callers
func (r *Result) Confirmation() string {
	return "Posted the following tweet: " + r.Text
}

// Orchestrator runs a single invocation. It is not safe for concurrent use.
type Orchestrator struct {
	source     Source
	platform   Platform
	generator  Generator
	classifier Classifier
	cfg        Config
	limiter    *rate.Limiter
	profiler   *profiling.Profiler
	id         string
}

// NewOrchestrator wires the collaborators of one invocation
func NewOrchestrator(src Source, pf Platform, gen Generator, cls Classifier, cfg Config) *Orchestrator {
	limit := rate.Inf
	if cfg.APIDelay > 0 {
		limit = rate.Every(cfg.APIDelay)
	}
	return &Orchestrator{
		source:     src,
		platform:   pf,
		generator:  gen,
		classifier: cls,
		cfg:        cfg,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// WithProfiler records stage timings under invocationID
func (o *Orchestrator) WithProfiler(p *profiling.Profiler, invocationID string) *Orchestrator {
	o.profiler = p
	o.id = invocationID
	return o
}

// Run executes mode for usernames and publishes the result
func (o *Orchestrator) Run(ctx context.Context, mode types.Mode, usernames []string) (*Result, error) {
	if len(usernames) == 0 {
		return nil, fmt.Errorf("%w: usernames must not be empty", types.ErrConfiguration)
	}
	switch mode {
	case types.ModeOriginal:
		return o.runOriginal(ctx, usernames[0])
	case types.ModeReply:
		return o.runReply(ctx, usernames)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", types.ErrConfiguration, mode)
	}
}

func (o *Orchestrator) runOriginal(ctx context.Context, username string) (*Result, error) {
	if err := o.pace(ctx); err != nil {
		return nil, err
	}
	done := o.profiler.Start(o.id, "fetch_source")
	posts, err := o.source.RecentPosts(ctx, username, o.cfg.FetchLimit)
	done()
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", username, err)
	}
	logging.Info("bot", "Collected %d posts from source %s", len(posts), username)

	seed := seedWord(posts)

	params := o.cfg.Params
	params.Samples = o.cfg.GenerateRetries
	done = o.profiler.StartWithMetadata(o.id, "generate", map[string]any{"samples": params.Samples})
	candidates, err := o.generator.Generate(ctx, prompt.Build(types.ModeOriginal, seed, ""), params)
	done()
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	text := seed + o.pickStatement(candidates)

	if err := o.pace(ctx); err != nil {
		return nil, err
	}
	done = o.profiler.Start(o.id, "publish")
	id, err := o.platform.Publish(ctx, text, "")
	done()
	if err != nil {
		return nil, err
	}
	return &Result{Mode: types.ModeOriginal, Text: text, PostID: id}, nil
}

// seedWord is the first word of the newest non-reply post, or ""
func seedWord(posts []types.Post) string {
	for _, p := range posts {
		if classify.IsReply(p) {
			continue
		}
		if words := strings.Fields(p.Text); len(words) > 0 {
			return words[0]
		}
		return ""
	}
	return ""
}

// pickStatement returns the first candidate with a nonzero statement code.
// When none qualifies the last candidate is used: publishing is best-effort
// and never blocked by the filter.
func (o *Orchestrator) pickStatement(candidates []string) string {
	chosen := ""
	for i, c := range candidates {
		chosen = c
		code, err := o.classifier.Classify(c)
		if err != nil {
			logging.Debug("bot", "Candidate %d rejected: %v", i+1, err)
			metrics.CandidatesRejected.WithLabelValues(string(types.ModeOriginal), "error").Inc()
			continue
		}
		if code.Definite() {
			logging.Debug("bot", "Candidate %d accepted (%s)", i+1, code)
			return c
		}
		metrics.CandidatesRejected.WithLabelValues(string(types.ModeOriginal), code.String()).Inc()
	}
	if len(candidates) > 0 {
		logging.Warn("bot", "No candidate passed after %d samples, using the last one", len(candidates))
	}
	metrics.RetryExhausted.Inc()
	return chosen
}

func (o *Orchestrator) runReply(ctx context.Context, usernames []string) (*Result, error) {
	if err := o.pace(ctx); err != nil {
		return nil, err
	}
	me, err := o.platform.CurrentUsername(ctx)
	if err != nil {
		return nil, fmt.Errorf("current account: %w", err)
	}

	if err := o.pace(ctx); err != nil {
		return nil, err
	}
	done := o.profiler.Start(o.id, "fetch_own")
	own, err := o.source.RecentPosts(ctx, me, o.cfg.FetchLimit)
	done()
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", me, err)
	}
	logging.Info("bot", "Collected %d posts from calling account %s", len(own), me)

	done = o.profiler.Start(o.id, "replied_scan")
	replied, err := o.repliedTo(ctx, own)
	done()
	if err != nil {
		return nil, err
	}

	done = o.profiler.Start(o.id, "fetch_targets")
	batches := make([][]types.Post, 0, len(usernames))
	for _, u := range usernames {
		if err := o.pace(ctx); err != nil {
			done()
			return nil, err
		}
		posts, err := o.source.RecentPosts(ctx, u, o.cfg.FetchLimit)
		if err != nil {
			done()
			return nil, fmt.Errorf("fetch %s: %w", u, err)
		}
		logging.Info("bot", "Collected %d posts from target %s", len(posts), u)
		batches = append(batches, posts)
	}
	done()

	target, ok := selectTarget(o.eligibleTargets(batches, replied))
	if !ok {
		return nil, fmt.Errorf("%w among %d accounts", ErrNoTarget, len(usernames))
	}
	parent := textclean.Clean(target.Text, textclean.Options{})
	logging.Info("bot", "Replying to %s/%s: %s", target.Username, target.ID, logging.Truncate(parent, 60))

	params := o.cfg.Params
	params.Samples = 1
	done = o.profiler.Start(o.id, "generate")
	samples, err := o.generator.Generate(ctx, prompt.Build(types.ModeReply, "", parent), params)
	done()
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	generated := ""
	if len(samples) > 0 {
		generated = samples[0]
	}

	text := "@" + target.Username + " " + generated
	if err := o.pace(ctx); err != nil {
		return nil, err
	}
	done = o.profiler.Start(o.id, "publish")
	id, err := o.platform.Publish(ctx, text, target.ID)
	done()
	if err != nil {
		return nil, err
	}
	return &Result{Mode: types.ModeReply, Text: text, PostID: id, InReplyTo: target.ID}, nil
}

// repliedTo collects the ids our own replies answered. Lookup failures skip
// the post.
func (o *Orchestrator) repliedTo(ctx context.Context, own []types.Post) (map[string]bool, error) {
	replied := make(map[string]bool)
	for _, p := range own {
		if !classify.IsReply(p) {
			continue
		}
		if err := o.pace(ctx); err != nil {
			return nil, err
		}
		id, err := o.platform.RepliedToID(ctx, p.ID)
		if err != nil {
			logging.Warn("bot", "Skipping %s: %v", p.ID, err)
			metrics.LookupFailures.Inc()
			continue
		}
		if id != "" {
			replied[id] = true
		}
	}
	return replied, nil
}

// eligibleTargets folds the fetched batches into the candidates that are
// original posts, positive statements and not yet answered
func (o *Orchestrator) eligibleTargets(batches [][]types.Post, replied map[string]bool) []types.Post {
	var out []types.Post
	for _, batch := range batches {
		for _, p := range batch {
			if classify.IsReply(p) || replied[p.ID] {
				continue
			}
			code, err := o.classifier.Classify(p.Text)
			if err != nil || !code.Accepted() {
				metrics.CandidatesRejected.WithLabelValues(string(types.ModeReply), rejectLabel(code, err)).Inc()
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

func rejectLabel(code classify.Code, err error) string {
	if err != nil {
		return "error"
	}
	return code.String()
}

// selectTarget returns the most recent candidate; ties keep fetch order
func selectTarget(candidates []types.Post) (types.Post, bool) {
	if len(candidates) == 0 {
		return types.Post{}, false
	}
	sorted := make([]types.Post, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted[0], true
}

// pace spaces consecutive platform calls by the configured delay. It is
// called before every call, so the gap after the last lookup is kept too.
func (o *Orchestrator) pace(ctx context.Context) error {
	if err := o.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
