package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/auth"
	"quiz-grading-service/internal/config"
	transport "quiz-grading-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz grading server",
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

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	store, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Printf("using %s storage", cfg.Storage.Driver)

	redisClient := newRedisClient(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := newDefinitionCache(cfg, redisClient, store.loader)
	feed := newResultFeed(cfg, redisClient)

	catalog := app.NewCatalogService(store.quizzes, store.results, app.WithQuizCache(cache))
	grading := app.NewGradingService(cache, store.results, feed)
	results := app.NewResultService(store.results, store.quizzes, store.users)

	var authOpts []auth.Option
	if cfg.Storage.Driver == config.DriverMemory {
		// the in-process directory is filled from token profile claims
		authOpts = append(authOpts, auth.WithProfileSink(store.upsert))
	}
	authn := auth.NewAuthenticator(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour), authOpts...)
	router := transport.NewRouter(
		transport.NewAPI(catalog, grading, results),
		transport.NewWSHandler(catalog, feed),
		authn,
		cfg.CORS.AllowedOrigins,
	)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz grading service on :%s", finalPort)
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
