package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ayush/conduit/backend/internal/articles"
	"github.com/ayush/conduit/backend/internal/auth"
	"github.com/ayush/conduit/backend/internal/config"
	"github.com/ayush/conduit/backend/internal/metrics"
	"github.com/ayush/conduit/backend/internal/profiles"
	"github.com/ayush/conduit/backend/internal/server"
	"github.com/ayush/conduit/backend/internal/store"
	"github.com/ayush/conduit/backend/internal/users"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the diagnostics server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}
	return serve(cmd.Context(), cfg, logger.Sugar())
}

func serve(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// ── PostgreSQL ────────────────────────────────────────────
	db, err := openPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	pgStore := store.NewPostgresStore(db)
	if err := pgStore.Migrate(ctx); err != nil {
		return err
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(context.Background())
	auditStore := store.NewAuditStore(mongoClient.Database(cfg.MongoDB))

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()
	tokens := auth.NewTokenManager(cfg.SessionSecret, cfg.SessionTTL, auth.NewSessionStore(rdb))

	// ── MinIO ────────────────────────────────────────────────
	objects, err := store.NewObjectStore(ctx,
		cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		return err
	}

	// ── Metrics ──────────────────────────────────────────────
	recorder, err := metrics.New(serviceName)
	if err != nil {
		return err
	}

	// ── Router ───────────────────────────────────────────────
	router := server.NewRouter(server.Deps{
		Logger:      log,
		Tokens:      tokens,
		Metrics:     recorder,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Auth:        auth.NewHandler(pgStore, tokens, auditStore),
		Articles:    articles.NewHandler(articles.NewService(pgStore, auditStore)),
		Profiles:    profiles.NewHandler(pgStore, auditStore),
		Users:       users.NewHandler(pgStore, objects, auditStore),
		Health: func(ctx context.Context) error {
			if err := pgStore.Ping(ctx); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		},
	})

	// ── Servers ──────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}
	diagSrv := &http.Server{
		Addr:              ":" + cfg.DiagPort,
		Handler:           server.NewDiagRouter(recorder.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 2)
	for _, s := range []*http.Server{srv, diagSrv} {
		go func(s *http.Server) {
			log.Infow("listening", "addr", s.Addr)
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}(s)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Infow("shutting down", "signal", sig.String())
	case err := <-errc:
		log.Errorw("server error", "error", err)
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = diagSrv.Shutdown(shutCtx)
	return srv.Shutdown(shutCtx)
}
