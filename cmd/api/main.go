package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/identidade/internal/citizen"
	"github.com/gestaozabele/identidade/internal/config"
	"github.com/gestaozabele/identidade/internal/db"
	"github.com/gestaozabele/identidade/internal/gdx"
	internalhttp "github.com/gestaozabele/identidade/internal/http"
	"github.com/gestaozabele/identidade/internal/metrics"
	"github.com/gestaozabele/identidade/internal/support"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("gateway encerrado com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	citizenRepo := citizen.NewRepository(pool)

	// Sem o schema não servimos requisições: falha aqui encerra o processo.
	if err := citizenRepo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	gdxClient, err := gdx.New(gdx.Config{
		AuthURL:        cfg.GDXAuthURL,
		ProfileURL:     cfg.DeprocAPIURL,
		NotifyURL:      cfg.NotificationAPIURL,
		ConsumerKey:    cfg.ConsumerKey,
		ConsumerSecret: cfg.ConsumerSecret,
		AgentID:        cfg.AgentID,
	})
	if err != nil {
		return fmt.Errorf("gdx: %w", err)
	}

	citizenService := citizen.NewService(citizenRepo, gdxClient, cfg.RedirectBaseURL)
	traceStore := support.NewTraceStore(redisClient)
	m := metrics.New(prometheus.DefaultRegisterer)

	handler := internalhttp.NewRouter(cfg, pool, redisClient, citizenService, gdxClient, traceStore, m)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("gateway ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
