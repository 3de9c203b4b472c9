package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vthunder/postbot/internal/api"
	"github.com/vthunder/postbot/internal/app"
	"github.com/vthunder/postbot/internal/config"
	"github.com/vthunder/postbot/internal/logging"
	"github.com/vthunder/postbot/internal/types"
)

var rootCmd = &cobra.Command{
	Use:           "postbot",
	Short:         "Generate and publish posts with a fine-tuned language model",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// serveCmd runs the HTTP invocation surface
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve invocations over HTTP",
	Long: `Start the HTTP server.

Routes:
  POST /         run one invocation (JSON body: usernames, tweet_type, model)
  GET  /health   liveness
  GET  /metrics  Prometheus metrics`,
	RunE: runServe,
}

// runCmd runs a single invocation from a file or stdin
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one invocation and exit",
	RunE:  runOnce,
}

var inputPath string

func init() {
	runCmd.Flags().StringVarP(&inputPath, "input", "i", "-", "Request JSON file, or - for stdin")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup(ctx context.Context) (*config.Config, *app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logging.SetOutput(os.Stderr, cfg.LogFormat == "console", cfg.Debug)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, a, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     api.NewRouter(logging.Logger(), a.Service),
		ReadTimeout: 15 * time.Second,
		// generation and pacing make invocations slow
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("main", "Listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info("main", "Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	var (
		data []byte
		err  error
	)
	if inputPath == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(inputPath)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	req, err := types.ParseRequest(data)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Service.Handle(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Confirmation())
	return nil
}
