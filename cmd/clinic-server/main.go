package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicops/clinicd/internal/config"
	"github.com/clinicops/clinicd/internal/domain/coverage"
	"github.com/clinicops/clinicd/internal/domain/diagnosis"
	"github.com/clinicops/clinicd/internal/domain/encounter"
	"github.com/clinicops/clinicd/internal/domain/orders"
	"github.com/clinicops/clinicd/internal/domain/record"
	"github.com/clinicops/clinicd/internal/domain/registry"
	"github.com/clinicops/clinicd/internal/platform/apperr"
	"github.com/clinicops/clinicd/internal/platform/auth"
	"github.com/clinicops/clinicd/internal/platform/db"
	"github.com/clinicops/clinicd/internal/platform/middleware"
)

// CaseContextAdapter resolves a case id to the episode or order that owns
// it, so the record and diagnosis services can evaluate mutation guards
// without importing the encounter and orders packages directly.
type CaseContextAdapter struct {
	episodes *encounter.Service
	orders   *orders.Service
}

func NewCaseContextAdapter(episodes *encounter.Service, ordersSvc *orders.Service) *CaseContextAdapter {
	return &CaseContextAdapter{episodes: episodes, orders: ordersSvc}
}

// GetCaseContext implements record.CaseContextSource. Episode ids are tried
// first; only a not-found miss falls through to orders. Any other episode
// lookup failure (timeouts, storage errors) propagates unchanged so it is
// not misreported as a missing order.
func (a *CaseContextAdapter) GetCaseContext(ctx context.Context, id uuid.UUID) (*record.CaseContext, error) {
	ep, err := a.episodes.Get(ctx, id)
	if err == nil {
		return &record.CaseContext{ID: ep.ID, Kind: record.CaseEpisode, Status: string(ep.Status)}, nil
	}
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		return nil, err
	}
	o, err := a.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &record.CaseContext{ID: o.ID, Kind: record.CaseOrder, Status: string(o.Status)}, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic operations API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("migrate down is destructive and not supported by the built-in runner.")
			fmt.Println("Restore from a backup or write a forward migration instead.")
			return nil
		},
	})

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware([]byte(cfg.JWTSecret)))
	}

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	e.GET("/health", db.HealthHandler(pool))

	// Repositories
	episodeRepo := encounter.NewRepoPG(pool)
	orderRepo := orders.NewRepoPG(pool)
	docRepo := record.NewDocumentRepoPG(pool)
	versionStore := record.NewVersionStorePG(pool)
	diagnosisRepo := diagnosis.NewRepoPG(pool)
	careUnitRepo := registry.NewCareUnitRepoPG(pool)
	professionalRepo := registry.NewProfessionalRepoPG(pool)
	insurerRepo := coverage.NewInsurerRepoPG(pool)
	planRepo := coverage.NewPlanRepoPG(pool)
	tariffRepo := coverage.NewTariffRepoPG(pool)

	transactor := db.NewTransactor(pool)

	// Services
	episodeSvc := encounter.NewService(episodeRepo)
	orderSvc := orders.NewService(orderRepo)
	cases := NewCaseContextAdapter(episodeSvc, orderSvc)
	recordSvc := record.NewService(docRepo, versionStore, cases, transactor)
	diagnosisSvc := diagnosis.NewService(diagnosisRepo, cases, transactor)
	registrySvc := registry.NewService(careUnitRepo, professionalRepo)
	coverageSvc := coverage.NewService(insurerRepo, planRepo, tariffRepo)

	// Handlers
	encounter.NewHandler(episodeSvc).RegisterRoutes(apiV1)
	orders.NewHandler(orderSvc).RegisterRoutes(apiV1)
	record.NewHandler(recordSvc).RegisterRoutes(apiV1)
	diagnosis.NewHandler(diagnosisSvc).RegisterRoutes(apiV1)
	registry.NewHandler(registrySvc).RegisterRoutes(apiV1)
	coverage.NewHandler(coverageSvc).RegisterRoutes(apiV1)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")

		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
