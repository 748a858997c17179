package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/damnyan/caxur/internal/auth"
	"github.com/damnyan/caxur/internal/authz"
	"github.com/damnyan/caxur/internal/config"
	"github.com/damnyan/caxur/internal/domain/repository"
	httpx "github.com/damnyan/caxur/internal/http"
	adminctrl "github.com/damnyan/caxur/internal/http/controllers/admin"
	authctrl "github.com/damnyan/caxur/internal/http/controllers/auth"
	"github.com/damnyan/caxur/internal/observability/logger"
	"github.com/damnyan/caxur/internal/rate"
	"github.com/damnyan/caxur/internal/store/memory"
	"github.com/damnyan/caxur/internal/store/pg"
	"github.com/damnyan/caxur/internal/token"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
		if _, err := os.Stat(cfgPath); err != nil {
			cfgPath = "configs/config.example.yaml"
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.L().Fatal("config load failed", logger.Err(err), logger.String("path", cfgPath))
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	defer func() { _ = logger.Sync() }()
	log := logger.With(logger.Component("main"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Signer. Sin clave privada el proceso queda en modo verify-only:
	// sirve /v1/me y rutas protegidas pero rechaza login y refresh.
	signer, err := token.NewSignerFromFiles(cfg.JWT.Issuer, cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath)
	if err != nil {
		log.Fatal("signer init failed", logger.Err(err))
	}
	if !signer.CanIssue() {
		log.Warn("no private key found, running in verify-only mode",
			logger.String("private_key_path", cfg.JWT.PrivateKeyPath))
	}

	// Store
	var (
		principals repository.PrincipalRepository
		tokens     repository.RefreshTokenRepository
		roles      repository.RoleRepository
		readyCheck func(context.Context) error
		pgStore    *pg.Store
	)
	switch cfg.Storage.Driver {
	case "memory":
		log.Warn("using in-memory store, data will not survive restarts")
		mem := memory.New()
		principals, tokens, roles = mem, mem, mem
	default:
		pgStore, err = pg.New(ctx, cfg.Storage.DSN, pg.Config{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			log.Fatal("postgres init failed", logger.Err(err))
		}
		defer pgStore.Close()
		principals, tokens, roles = pgStore, pgStore, pgStore
		readyCheck = pgStore.Ping
	}

	resolver := authz.NewResolver(roles)
	gate := auth.NewGate(auth.Deps{
		Principals: principals,
		Tokens:     tokens,
		Resolver:   resolver,
		Signer:     signer,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
	})

	// Rate limiter para login/refresh
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		if cfg.Rate.Redis.Addr != "" {
			client := rdb.NewClient(&rdb.Options{Addr: cfg.Rate.Redis.Addr, DB: cfg.Rate.Redis.DB})
			limiter = rate.NewRedisLimiter(client, cfg.Rate.Redis.Prefix, cfg.Rate.Login.Limit, cfg.LoginWindow())
			log.Info("rate limiting via redis", logger.String("addr", cfg.Rate.Redis.Addr))
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.Login.Limit, cfg.LoginWindow())
			log.Info("rate limiting in-memory")
		}
	}

	// Métricas
	metricsCfg := httpx.MetricsConfig{}
	if pgStore != nil {
		metricsCfg.Pool = pgStore.Pool
	}
	metricsHandler, err := httpx.RegisterMetrics(metricsCfg)
	if err != nil {
		log.Fatal("metrics init failed", logger.Err(err))
	}

	// Controllers + router
	ctrls := authctrl.NewControllers(gate, resolver)
	adminTokens := adminctrl.NewTokensController(gate)

	router := httpx.NewRouter(httpx.RouterDeps{
		Gate:           gate,
		Login:          http.HandlerFunc(ctrls.Login.Login),
		Refresh:        http.HandlerFunc(ctrls.Refresh.Refresh),
		Logout:         http.HandlerFunc(ctrls.Logout.Logout),
		LogoutAll:      http.HandlerFunc(ctrls.Logout.LogoutAll),
		Me:             http.HandlerFunc(ctrls.Me.Me),
		AdminRevokeAll: http.HandlerFunc(adminTokens.RevokeAll),
		Metrics:        metricsHandler,
		ReadyCheck:     readyCheck,
		LoginLimiter:   limiter,
	})

	srv := httpx.NewServer(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		return httpx.Shutdown(srv, 15*time.Second)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server exited", logger.Err(err))
	}
	log.Info("bye")
}
