// Command anyproxyai runs the protocol-translating reverse proxy: it accepts
// requests in any of the supported dialect wire shapes, translates them to
// the single upstream API, and translates the upstream SSE stream back.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/loqwe/anyproxyai/internal/config"
	"github.com/loqwe/anyproxyai/internal/httpapi"
	"github.com/loqwe/anyproxyai/internal/observability"
	"github.com/loqwe/anyproxyai/internal/thinking"
	"github.com/loqwe/anyproxyai/internal/upstream"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// CLI flags are the final override on top of env/YAML, matching
	// cmd/agent/main.go's config-then-flags ordering.
	host := flag.String("host", cfg.Host, "listen host")
	port := flag.Int("port", cfg.Port, "listen port")
	debug := flag.Bool("debug", cfg.Debug, "debug logging")
	refreshToken := flag.String("refresh-token", cfg.RefreshToken, "OAuth2 refresh token for the upstream")
	apiKey := flag.String("api-key", cfg.APIKey, "static API key required of clients")
	flag.Parse()
	cfg.Host, cfg.Port, cfg.Debug = *host, *port, *debug
	cfg.RefreshToken, cfg.APIKey = *refreshToken, *apiKey

	level := "info"
	if cfg.Debug {
		level = "debug"
	}
	observability.InitLogger(cfg.LogPath, level)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	limiter := upstream.NewRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, cfg.RateLimit.MinInterval)
	client := upstream.NewClient(cfg.RefreshToken, cfg.ProjectID, limiter)
	sigStore := thinking.NewStore()

	srv := httpapi.NewServer(cfg, client, sigStore)
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("anyproxyai listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
