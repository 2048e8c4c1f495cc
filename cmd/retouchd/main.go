// retouchd serves the retouch single-page app: upload an image, describe an
// edit, get the model's result back.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/retouchlab/retouch"
	"github.com/retouchlab/retouch/internal/config"
	"github.com/retouchlab/retouch/internal/web"
	"github.com/retouchlab/retouch/provider/gemini"
	"github.com/retouchlab/retouch/ratelimiter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger not built yet; config failures go straight to stderr.
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := web.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	editor, err := gemini.NewWithAPIKey(ctx, cfg.GeminiAPIKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create Gemini editor")
	}
	defer editor.Close()

	// One limiter per model, shared by every session: the upstream budget
	// belongs to the credential, not to a browser tab.
	registry := ratelimiter.NewRegistry()
	for _, info := range editor.Models() {
		perMinute := info.RateLimits.RequestsPerMinute
		if cfg.RequestsPerMinute > 0 && cfg.RequestsPerMinute < perMinute {
			perMinute = cfg.RequestsPerMinute
		}
		registry.Set(info.Name, ratelimiter.New(perMinute))
	}

	var limiter ratelimiter.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter, err = registry.Get(cfg.Model)
		if err != nil {
			logger.Fatal().Err(err).Str("model", cfg.Model).Msg("unknown model")
		}
	}

	server := web.NewServer(web.Options{
		Editor:     editor,
		Logger:     logger,
		Limiter:    limiter,
		Storage:    &retouch.DirStorage{Root: cfg.OutputDir},
		EditConfig: retouch.DefaultConfig().WithModel(retouch.Model(cfg.Model)),
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("model", cfg.Model).Msg("retouchd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
