package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizmaster/internal/app"
	"quizmaster/internal/config"
	filestore "quizmaster/internal/infra/file"
	"quizmaster/internal/infra/memory"
	pgstore "quizmaster/internal/infra/postgres"
	redcache "quizmaster/internal/infra/redis"
	"quizmaster/internal/opentdb"
	transport "quizmaster/internal/transport/http"
)

const defaultScoresFile = "data/scores.json"

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "5000"
	}

	httpClient := &http.Client{
		Timeout: config.TTLDuration(cfg.OpenTDB.Timeout, 10*time.Second),
	}
	client := opentdb.NewClient(cfg.OpenTDB.BaseURL, httpClient)
	cacheTTL := config.TTLDuration(cfg.OpenTDB.CacheTTL, 5*time.Minute)

	var source app.QuestionSource
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		source = redcache.NewQuestionCache(redisClient, client, cacheTTL)
	} else {
		source = memory.NewQuestionCache(client, cacheTTL)
	}

	var scores app.ScoreStore
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		scores = pgstore.NewScoreStore(pool)
	default:
		path := cfg.Scores.File
		if path == "" {
			path = defaultScoresFile
		}
		store, err := filestore.NewScoreStore(path)
		if err != nil {
			return err
		}
		log.Printf("scores file: %s", path)
		scores = store
	}

	quizService := app.NewQuizService(source)
	scoreService := app.NewScoreService(scores)
	handler := transport.NewHandler(quizService, scoreService)
	wsHandler := transport.NewWSHandler(quizService, scoreService)

	mux := http.NewServeMux()
	handler.Register(mux)
	mux.HandleFunc("/ws/play", wsHandler.ServePlay)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizmaster on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
