package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hospital-journey-server/internal/cache"
	"hospital-journey-server/internal/journey"
	"hospital-journey-server/internal/middleware"
	"hospital-journey-server/internal/observability"
	"hospital-journey-server/internal/routes"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the journey HTTP API",
		Long: `Start the HTTP API. The schema is migrated on startup unless --skip-migrate
is given. When REDIS_ENABLED is true, journey views are cached in Redis for one
poll interval.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg, !skipMigrate)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			metrics := observability.NewMetrics()
			opts := []journey.Option{
				journey.WithMetrics(metrics),
				journey.WithPollInterval(cfg.PollInterval),
				journey.WithShareTTL(cfg.ShareCodeTTL),
			}
			if cfg.Redis.Enabled {
				client, err := cache.NewClient(ctx, cfg.Redis)
				if err != nil {
					return err
				}
				defer client.Close()
				opts = append(opts, journey.WithCache(cache.NewJourneyViews(client)))
				log.Info().Str("addr", cfg.Redis.Addr()).Msg("journey view cache enabled")
			}

			if cfg.Environment == "production" {
				gin.SetMode(gin.ReleaseMode)
			}
			router := gin.New()
			router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics(metrics))

			// Configure CORS
			corsConfig := cors.DefaultConfig()
			corsConfig.AllowOrigins = []string{cfg.Origin}
			corsConfig.AllowCredentials = true
			corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
			corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
			router.Use(cors.New(corsConfig))

			routes.SetupRoutes(router, routes.Dependencies{
				Config:   cfg,
				DB:       db,
				Journeys: journey.NewService(db, opts...),
				Registry: journey.NewRegistry(db),
				Metrics:  metrics,
			})

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%s", cfg.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("port", cfg.Port).Msg("server running")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("failed to start server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not migrate the schema on startup")

	return cmd
}
