// Package app wires the configured collaborators into a bot.Service.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vthunder/postbot/internal/artifacts"
	"github.com/vthunder/postbot/internal/bot"
	"github.com/vthunder/postbot/internal/classify"
	"github.com/vthunder/postbot/internal/config"
	"github.com/vthunder/postbot/internal/effectors"
	"github.com/vthunder/postbot/internal/generate"
	"github.com/vthunder/postbot/internal/logging"
	"github.com/vthunder/postbot/internal/nlp"
	"github.com/vthunder/postbot/internal/profiling"
	"github.com/vthunder/postbot/internal/twitter"
)

// App owns the long-lived clients behind a Service
type App struct {
	Service *bot.Service
	closers []func() error
}

// New builds the service described by cfg
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	var store artifacts.Store
	if cfg.ModelDir != "" {
		store = artifacts.NewLocalStore(cfg.ModelDir, cfg.ScratchDir)
		logging.Info("main", "Model store: local %s", cfg.ModelDir)
	} else {
		gcs, err := artifacts.NewGCSStore(ctx, cfg.ModelBucket, cfg.ScratchDir)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gcs.Close)
		store = gcs
		logging.Info("main", "Model store: gs://%s", cfg.ModelBucket)
	}

	var opts []twitter.Option
	if cfg.TwitterURL != "" {
		opts = append(opts, twitter.WithBaseURL(cfg.TwitterURL))
	}
	tw := twitter.NewClient(cfg.Credentials, opts...)

	profiler, err := profiling.Open(profiling.ParseLevel(cfg.ProfileLevel), cfg.ProfileLog)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, profiler.Close)

	svc := &bot.Service{
		Store:      store,
		Loader:     generate.NewClient(cfg.OllamaURL),
		Source:     tw,
		Platform:   tw,
		Classifier: classify.NewStatementClassifier(nlp.NewProseAnnotator()),
		Profiler:   profiler,
		Config:     cfg.Bot(),
	}

	if cfg.DiscordEnabled() {
		ann, err := effectors.NewDiscordAnnouncer(cfg.DiscordToken, cfg.DiscordChannelID)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("discord: %w", err)
		}
		svc.Announcer = ann
		logging.Info("main", "Mirroring posts to Discord channel %s", cfg.DiscordChannelID)
	}

	a.Service = svc
	return a, nil
}

// Close releases clients in reverse order of creation
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
