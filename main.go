// main.go
//
// Entry point for the NeuroTerm server.
// Responsibilities:
//   - Configure logging and read configuration.
//   - Open the history database and apply migrations.
//   - Assemble the riddle provider chain (Gemini or local bank, rate limit, fallback).
//   - Serve the HTTP terminal, or run a single terminal on stdin/stdout with -console.
//   - Prune idle terminals and shut down gracefully on SIGINT/SIGTERM.

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/neuroterm/assets"
	"github.com/robalobadob/neuroterm/internal/history"
	"github.com/robalobadob/neuroterm/internal/httpserver"
	"github.com/robalobadob/neuroterm/internal/riddle"
	"github.com/robalobadob/neuroterm/internal/session"
	"github.com/robalobadob/neuroterm/internal/store"
)

func main() {
	console := flag.Bool("console", false, "run one terminal on stdin/stdout instead of serving HTTP")
	flag.Parse()

	cfg := loadConfig()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := history.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open history db")
	}
	defer db.Close()
	if err := history.Migrate(db, assets.Migrations()); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate history db")
	}
	hist := history.NewStore(db)

	provider, closeProvider, err := buildProvider(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up riddle provider")
	}
	defer closeProvider()

	opts := session.Options{
		Provider:      provider,
		RiddleTimeout: cfg.RiddleTimeout,
		Recorder:      hist,
		BootPacing:    cfg.BootPacing,
	}

	if *console || cfg.Console {
		if err := runConsole(ctx, os.Stdin, os.Stdout, opts); err != nil {
			log.Fatal().Err(err).Msg("console exited")
		}
		return
	}

	terminals := store.NewMemoryStore()
	go pruneIdle(ctx, terminals, cfg.SessionIdle)

	srv := httpserver.New(terminals, hist, httpserver.Config{
		SessionSecret: cfg.SessionSecret,
		ClientOrigin:  cfg.ClientOrigin,
		SecureCookies: cfg.SecureCookies,
		NewTerminal: func(id string) *session.Terminal {
			return session.New(id, opts)
		},
	})
	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("starting neuroterm")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

// buildProvider picks Gemini when an API key is configured and the local riddle
// bank otherwise, then layers rate limiting and (optionally) the fallback riddle.
// The returned func releases the underlying client.
func buildProvider(ctx context.Context, cfg Config) (riddle.Provider, func(), error) {
	var (
		base    riddle.Provider
		closeFn = func() {}
	)
	if cfg.GeminiAPIKey != "" {
		g, err := riddle.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		base = g
		closeFn = func() { _ = g.Close() }
		log.Info().Str("model", cfg.GeminiModel).Msg("riddles from gemini")
	} else {
		bank, err := riddle.LoadBank(cfg.RiddlesFile)
		if err != nil {
			return nil, nil, err
		}
		base = bank
		log.Info().Int("riddles", bank.Len()).Msg("riddles from local bank")
	}

	p := riddle.WithLimit(base, cfg.RiddleRate, cfg.RiddleBurst)
	if cfg.RiddleFallback {
		p = riddle.WithFallback(p, riddle.Echo)
	}
	return p, closeFn, nil
}

// pruneIdle drops terminals nobody has typed into for idle.
func pruneIdle(ctx context.Context, st store.Store, idle time.Duration) {
	ticker := time.NewTicker(idle / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := st.Prune(ctx, now.Add(-idle))
			if err != nil {
				log.Warn().Err(err).Msg("prune terminals")
				continue
			}
			if n > 0 {
				log.Info().Int("pruned", n).Msg("idle terminals removed")
			}
		}
	}
}
