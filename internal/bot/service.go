package bot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vthunder/postbot/internal/artifacts"
	"github.com/vthunder/postbot/internal/generate"
	"github.com/vthunder/postbot/internal/logging"
	"github.com/vthunder/postbot/internal/metrics"
	"github.com/vthunder/postbot/internal/profiling"
	"github.com/vthunder/postbot/internal/types"
)

// Announcer mirrors published posts somewhere else
type Announcer interface {
	Announce(ctx context.Context, text string) error
}

// Service handles invocation requests. Its collaborators are shared across
// concurrent calls and must be safe for that; per-invocation state lives in
// the Orchestrator.
type Service struct {
	Store      artifacts.Store
	Loader     generate.Loader
	Source     Source
	Platform   Platform
	Classifier Classifier
	Announcer  Announcer // optional
	Profiler   *profiling.Profiler
	Config     Config
}

// Handle validates req, stages the model, runs the pipeline and releases
// the model files and handle on every path
func (s *Service) Handle(ctx context.Context, req types.Request) (res *Result, err error) {
	if err := req.Validate(); err != nil {
		metrics.InvocationsTotal.WithLabelValues("invalid", "config_error").Inc()
		return nil, err
	}
	mode := req.Mode()
	id := uuid.NewString()
	start := time.Now()
	logging.Info("bot", "Invocation %s: %s for %v with model %s", id, mode, req.Usernames, req.Model)

	defer func() {
		metrics.InvocationDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
		metrics.InvocationsTotal.WithLabelValues(string(mode), outcome(err)).Inc()
		if err != nil {
			logging.Error("bot", err, "Invocation %s failed", id)
		}
	}()

	done := s.Profiler.Start(id, "fetch_model")
	bundle, err := s.Store.Fetch(ctx, req.Model)
	done()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := bundle.Close(); cerr != nil {
			logging.Warn("bot", "Cleanup of %s failed: %v", req.Model, cerr)
		}
	}()

	done = s.Profiler.Start(id, "load_model")
	model, err := s.Loader.Load(ctx, req.Model, bundle.Dir)
	done()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := model.Close(); cerr != nil {
			logging.Warn("bot", "Unloading %s failed: %v", req.Model, cerr)
		}
	}()

	orch := NewOrchestrator(s.Source, s.Platform, model, s.Classifier, s.Config).WithProfiler(s.Profiler, id)
	res, err = orch.Run(ctx, mode, req.Usernames)
	if err != nil {
		return nil, err
	}
	metrics.PostsPublished.WithLabelValues(string(mode)).Inc()
	logging.Info("bot", "Invocation %s published %s: %s", id, res.PostID, logging.Truncate(res.Text, 80))

	if s.Announcer != nil {
		if aerr := s.Announcer.Announce(ctx, res.Confirmation()); aerr != nil {
			logging.Warn("bot", "Announce failed: %v", aerr)
		}
	}
	return res, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, types.ErrConfiguration):
		return "config_error"
	case errors.Is(err, ErrNoTarget):
		return "no_target"
	default:
		return "error"
	}
}
