package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finitefield.org/flashcards/internal/config"
	"finitefield.org/flashcards/internal/httpserver"
	"finitefield.org/flashcards/internal/observability"
	"finitefield.org/flashcards/internal/session"
	"finitefield.org/flashcards/internal/store"
)

const (
	shutdownTimeout        = 10 * time.Second
	sessionCleanupInterval = 10 * time.Minute
)

type options struct {
	deck        string
	deckName    string
	rebuildDeck bool
	addr        string
	envFile     string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "flashcards",
		Short:         "Serve a flashcard deck for practice in the browser",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := run(cmd.Context(), opts)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "flashcards:", err)
			}
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.deck, "deck", "", "deck id; selects ./<deck>.db and the catalog entry")
	flags.StringVar(&opts.deckName, "deck-name", "", "display name shown in the page header")
	flags.BoolVar(&opts.rebuildDeck, "rebuild-deck", false, "delete the deck database and reload it from content")
	flags.StringVar(&opts.addr, "addr", "", "HTTP listen address (overrides FLASHCARDS_PORT)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with local overrides")
	return cmd
}

func run(parent context.Context, opts *options) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load(
		config.WithEnvFile(opts.envFile),
		config.WithDeck(opts.deck),
		config.WithDeckName(opts.deckName),
	)
	if err != nil {
		return err
	}

	baseLogger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("initialise logger: %w", err)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("flashcards").With(zap.String("deck", cfg.Deck.ID))

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = observability.WithLogger(ctx, logger)

	if opts.rebuildDeck {
		if err := removeDatabase(cfg.Deck.DatabasePath, logger); err != nil {
			return err
		}
	}

	st, err := store.Open(ctx, cfg.Deck.DatabasePath, logger.Named("store"))
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}()

	if err := prepareDeck(ctx, st, cfg.Deck, logger.Named("content")); err != nil {
		return err
	}

	sessions, cleanup, err := openSessions(ctx, cfg.Session, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	addr := cfg.Server.Address()
	if strings.TrimSpace(opts.addr) != "" {
		addr = opts.addr
	}
	server, err := httpserver.New(httpserver.Config{
		Address:       addr,
		Repository:    st,
		Sessions:      sessions,
		Logger:        logger.Named("http"),
		DeckName:      cfg.Deck.DisplayName,
		ImageDir:      cfg.Deck.ImagePath,
		SessionTTL:    cfg.Session.TTL,
		SigningKey:    cfg.Session.SigningKey,
		SecureCookies: cfg.SecureCookies(),
		TaxonomyTTL:   cfg.Deck.TaxonomyTTL,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		IdleTimeout:   cfg.Server.IdleTimeout,
	})
	if err != nil {
		return err
	}

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	serveErr := make(chan error, 1)
	go func() {
		serverLogger.Info("flashcards listening", zap.String("deck_name", cfg.Deck.DisplayName))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	return nil
}

func removeDatabase(path string, logger *zap.Logger) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		err := os.Remove(p)
		if err == nil {
			logger.Info("deleted deck database", zap.String("path", p))
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", p, err)
		}
	}
	return nil
}

// openSessions builds the configured session store. The returned cleanup
// function stops background work and closes connections.
func openSessions(ctx context.Context, cfg config.SessionConfig, logger *zap.Logger) (session.Store, func(), error) {
	switch cfg.Store {
	case config.SessionStoreRedis:
		client, err := session.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis session store")
		return session.NewRedisStore(client, ""), func() { _ = client.Close() }, nil
	default:
		mem := session.NewMemoryStore()
		cleanupCtx, cancel := context.WithCancel(ctx)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(sessionCleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-cleanupCtx.Done():
					return
				case <-ticker.C:
					if n := mem.CleanupExpired(cleanupCtx, 0); n > 0 {
						logger.Debug("expired sessions removed", zap.Int("count", n))
					}
				}
			}
		}()
		return mem, func() {
			cancel()
			wg.Wait()
		}, nil
	}
}
