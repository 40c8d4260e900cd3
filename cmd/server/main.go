package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/mollyslab/slabgate/internal/bridge"
	"github.com/mollyslab/slabgate/internal/config"
	"github.com/mollyslab/slabgate/internal/handler"
	"github.com/mollyslab/slabgate/internal/middleware"
	"github.com/mollyslab/slabgate/internal/model"
	"github.com/mollyslab/slabgate/internal/pkg/apperrors"
	"github.com/mollyslab/slabgate/internal/pkg/logger"
	"github.com/mollyslab/slabgate/internal/repository"
	"github.com/mollyslab/slabgate/internal/service"
	"github.com/mollyslab/slabgate/internal/store"
	"github.com/mollyslab/slabgate/internal/stream"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)

	// State persistence (Postgres > Redis > Memory)
	var routerStore store.RouterStore
	var slabStore store.SlabStore
	var db *sqlx.DB
	var redisStore *repository.RedisStore

	if cfg.Database.DSN != "" {
		sqlxDB, err := repository.NewDB(cfg)
		if err == nil {
			logger.Info("connected to postgres")
			routerStore = repository.NewPostgresRouterStore(sqlxDB)
			slabStore = repository.NewPostgresSlabStore(sqlxDB)
			db = sqlxDB
		} else {
			logger.Error("postgres unavailable, trying redis", "error", err)
		}
	}
	if routerStore == nil && cfg.Redis.Addr != "" {
		rs, err := repository.NewRedisStore(cfg)
		if err == nil {
			logger.Info("connected to redis")
			routerStore = rs
			slabStore = rs
			redisStore = rs
		} else {
			logger.Error("redis unavailable, falling back to memory", "error", err)
		}
	}
	if routerStore == nil {
		mem := store.NewMemoryStore()
		routerStore = mem
		slabStore = mem
		logger.Warn("using in-memory state store; all state is lost on restart")
	}

	// Actor registry (config file + optional gorm-backed repo)
	var actorRepo *repository.GormActorRepo
	if cfg.Database.DSN != "" {
		repo, err := repository.NewGormActorRepo(cfg)
		if err == nil {
			actorRepo = repo
		} else {
			logger.Error("actor repo unavailable, config actors only", "error", err)
		}
	}
	var actorManagerRepo service.ActorRepo
	if actorRepo != nil {
		actorManagerRepo = actorRepo
	}
	actorManager := service.NewActorManager(cfg, actorManagerRepo)

	// Audit persistence (Postgres > Redis list > local file only)
	var auditRepo service.AuditRepo
	if db != nil {
		auditRepo = repository.NewPostgresAuditRepo(db)
	} else if redisStore != nil {
		auditRepo = repository.NewRedisAuditRepo(redisStore.Client, cfg.Redis.AuditListKey, cfg.Redis.AuditListMax)
	}
	auditSvc, err := service.NewAuditService("./logs", auditRepo)
	if err != nil {
		log.Fatalf("Failed to initialize audit service: %v", err)
	}

	if pgAudit, ok := auditRepo.(*repository.PostgresAuditRepo); ok && cfg.Database.AuditRetentionDays > 0 {
		retention := time.Duration(cfg.Database.AuditRetentionDays) * 24 * time.Hour
		go func() {
			ticker := time.NewTicker(12 * time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				if err := pgAudit.Cleanup(context.Background(), retention); err != nil {
					logger.Error("audit retention cleanup failed", "error", err)
				}
			}
		}()
	}

	// Idempotency (Redis > Memory)
	var idempotencyStore middleware.IdempotencyStore
	if redisStore != nil {
		ttl := time.Duration(cfg.Redis.IdempotencyTTLSeconds) * time.Second
		idempotencyStore = repository.NewRedisIdempotencyStore(redisStore.Client, ttl)
	} else {
		idempotencyStore = middleware.NewInMemIdempotencyStore()
	}

	// Core services
	hub := stream.NewHub()
	routerSvc := service.NewRouterService(routerStore)
	slabSvc := service.NewSlabService(slabStore, routerSvc, cfg.Router.ConfidenceMode, hub)

	bootstrapRouter(cfg, routerSvc)

	adapter := buildBridgeAdapter(cfg)
	bridgeTimeout := time.Duration(cfg.Bridge.TimeoutMs) * time.Millisecond

	// Handlers
	routerHandler := handler.NewRouterHandler(routerSvc)
	slabHandler := handler.NewSlabHandler(slabSvc)
	bridgeHandler := handler.NewBridgeHandler(adapter, bridgeTimeout)
	auditHandler := handler.NewAuditHandler(auditSvc)
	actorHandler := handler.NewActorHandler(actorManager, actorRepo)

	r := gin.Default()

	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AuditMiddleware(auditSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "slabgate"})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg, actorManager))
	v1.Use(middleware.RateLimitMiddleware(actorManager))
	v1.Use(middleware.IdempotencyMiddleware(idempotencyStore))
	{
		admin := v1.Group("")
		admin.Use(middleware.RequireRole(model.RoleAdmin))
		{
			admin.POST("/router/initialize", routerHandler.Initialize)
			admin.POST("/router/pause", routerHandler.SetPause)
			admin.PUT("/router/threshold", routerHandler.UpdateThreshold)
			admin.POST("/mandates/veto", routerHandler.VetoMandate)
			admin.GET("/audit", auditHandler.List)
		}

		oracle := v1.Group("")
		oracle.Use(middleware.RequireRole(model.RoleOracle))
		{
			oracle.PUT("/oracle/scores/:asset", routerHandler.SetScore)
		}

		v1.GET("/router", routerHandler.GetConfig)
		v1.GET("/oracle/scores/:asset", routerHandler.GetScore)
		v1.GET("/mandates", routerHandler.GetMandate)

		trader := v1.Group("")
		trader.Use(middleware.RequireRole(model.RoleTrader))
		{
			trader.POST("/mandates", routerHandler.MintMandate)
			trader.DELETE("/mandates", routerHandler.RevokeMandate)
			trader.POST("/slabs", slabHandler.InitializeSlab)
			trader.GET("/slabs/:strategy", slabHandler.GetSlab)
			trader.DELETE("/slabs/:strategy", slabHandler.CloseSlab)
			trader.POST("/signals", slabHandler.ExecuteSignal)
			trader.POST("/bridge/transfers", bridgeHandler.SubmitTransfer)
			trader.GET("/bridge/transfers/:id", bridgeHandler.GetTransfer)
			trader.POST("/bridge/transfers/:id/wait", bridgeHandler.WaitFinality)
			trader.GET("/stream", gin.WrapH(hub))
		}
	}

	// Actor registry bootstrap: static-key gated so the first actor can
	// be created before any gateway key exists.
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.AdminMiddleware(cfg))
	{
		adminGroup.POST("/actors", actorHandler.Create)
		adminGroup.GET("/actors", actorHandler.List)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("slabgate started", "port", cfg.Server.Port, "bridge_mode", cfg.Bridge.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	auditSvc.Close()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("server exiting")
}

// bootstrapRouter initializes the mandate authority from config when
// the store is fresh. An already-initialized store wins over config.
func bootstrapRouter(cfg *config.Config, svc *service.RouterService) {
	if cfg.Router.Admin == "" || cfg.Router.OracleAuthority == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := svc.Initialize(ctx, cfg.Router.Admin, cfg.Router.OracleAuthority, cfg.Router.RiskThresholdBps)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrAlreadyInitialized) {
			logger.Info("router already initialized, keeping stored config")
			return
		}
		log.Fatalf("Failed to bootstrap router config: %v", err)
	}
}

func buildBridgeAdapter(cfg *config.Config) bridge.Adapter {
	if cfg.Bridge.Mode != "wormhole" {
		logger.Info("bridge adapter: mock")
		return bridge.NewMockAdapter()
	}

	adapter, err := bridge.NewWormholeAdapter(bridge.WormholeOptions{
		Network:       cfg.Bridge.Network,
		EvmRPCURL:     cfg.Bridge.EvmRPCURL,
		EvmPrivateKey: cfg.Bridge.EvmPrivateKey,
		TokenBridge:   cfg.Bridge.EvmTokenBridge,
		EvmChainID:    cfg.Bridge.EvmChainID,
		GuardianAPI:   cfg.Bridge.GuardianAPI,
		PollInterval:  time.Duration(cfg.Bridge.PollIntervalMs) * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("Failed to initialize wormhole bridge adapter: %v", err)
	}
	logger.Info("bridge adapter: wormhole", "network", cfg.Bridge.Network)
	return adapter
}
