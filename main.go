package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:           "hog",
		Short:         "Hog Games backend: leaderboards, companion and game services",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newWordSearchCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleBad.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the SQL schema for STORE_DRIVER/STORE_DSN",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if cfg.Store.Driver == "memory" {
				return errors.New("STORE_DRIVER is memory; nothing to migrate")
			}
			store, err := OpenSQLStore(cmd.Context(), cfg.Store.Driver, cfg.Store.DSN)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Println(styleGood.Render("schema up to date (" + cfg.Store.Driver + ")"))
			return nil
		},
	}
}

// openStore returns the configured store, migrated and ready.
func openStore(ctx context.Context, cfg *Config) (Store, error) {
	if cfg.Store.Driver == "memory" {
		log.Println("store: in-memory, data is lost on restart")
		return NewMemoryStore(), nil
	}
	store, err := OpenSQLStore(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	log.Printf("store: %s", cfg.Store.Driver)
	return store, nil
}

// chatProvider prefers SEA-LION and falls back to Gemini on Vertex AI.
// It returns a nil interface when neither is configured.
func chatProvider(ctx context.Context, cfg ChatConfig) (ChatProvider, func(), error) {
	switch {
	case cfg.SeaLionKey != "":
		log.Println("chat: SEA-LION")
		return NewSeaLionClient(cfg.SeaLionURL, cfg.SeaLionKey), func() {}, nil
	case cfg.GCPProjectID != "":
		gemini, err := NewGeminiClient(ctx, cfg.GCPProjectID, cfg.GCPRegion)
		if err != nil {
			return nil, nil, fmt.Errorf("gemini: %w", err)
		}
		log.Printf("chat: Gemini (project %s)", cfg.GCPProjectID)
		return gemini, func() { gemini.Close() }, nil
	default:
		log.Println("chat: no provider configured, replies use fallback phrases")
		return nil, func() {}, nil
	}
}

func serve(parent context.Context, cfg *Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var cache LeaderboardCache
	if cfg.Store.RedisURL != "" {
		rc, err := NewRedisCache(ctx, cfg.Store.RedisURL)
		if err != nil {
			return err
		}
		defer rc.Close()
		cache = rc
		log.Println("leaderboard cache: redis")
	}

	provider, closeProvider, err := chatProvider(ctx, cfg.Chat)
	if err != nil {
		return err
	}
	defer closeProvider()

	var tts Synthesizer
	if cfg.TTS.APIKey != "" {
		gtts, err := NewGoogleTTS(ctx, cfg.TTS.Endpoint, cfg.TTS.APIKey)
		if err != nil {
			return err
		}
		defer gtts.Close()
		tts = gtts
	} else {
		log.Println("tts: GOOGLE_TTS_API_KEY not set, clients use browser speech")
	}

	if cfg.Auth.SiteAuthEnabled() {
		log.Println("basic auth: enabled")
	}

	srv := NewServer(cfg, store, cache, provider, tts)

	workers := make(chan struct{})
	go func() {
		srv.Run(ctx)
		close(workers)
	}()

	httpSrv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("listening on http://localhost:%s", cfg.HTTP.Port)
		serverErrors <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Println("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
		httpSrv.Close()
	}
	stop()
	<-workers
	return nil
}
