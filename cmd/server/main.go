package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"updown/internal/auth"
	"updown/internal/badge"
	"updown/internal/cache"
	"updown/internal/config"
	cronrunner "updown/internal/cron"
	"updown/internal/db"
	"updown/internal/handler"
	"updown/internal/logger"
	"updown/internal/models"
	"updown/internal/oracle"
	"updown/internal/push"
	gormrepository "updown/internal/repository/gorm"
	"updown/internal/service"
	"updown/internal/slot"
)

func main() {
	cfgPath := os.Getenv("UPDOWN_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("UPDOWN_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	loc, err := time.LoadLocation(cfg.Game.Timezone)
	if err != nil {
		logger.Fatal("invalid game timezone", zap.String("tz", cfg.Game.Timezone), zap.Error(err))
	}

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	redisStore := cache.NewRedisStore(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	store := gormrepository.New(dbConn.Gorm)

	seedAssets(context.Background(), store, cfg.Assets, logger)

	priceOracle := &oracle.Service{
		Live:   oracle.NewClient(&http.Client{Timeout: cfg.Oracle.Timeout}, cfg.Oracle),
		Cache:  redisStore,
		TTL:    cfg.Oracle.CacheTTL,
		Logger: logger,
	}

	hub := push.NewHub(logger)
	badges := &badge.Service{Repo: store, Logger: logger}

	predictionSvc := &service.PredictionService{
		Repo:   store,
		Oracle: priceOracle,
		Push:   hub,
		Logger: logger,
		Loc:    loc,
	}
	evaluator := &service.EvaluatorService{
		Repo:   store,
		Oracle: priceOracle,
		Badges: badges,
		Push:   hub,
		Logger: logger,
		Batch:  cfg.Game.EvaluateBatch,
	}
	rollover := &service.RolloverService{
		Repo:   store,
		Badges: badges,
		Logger: logger,
		Loc:    loc,
	}
	ranking := &service.RankingService{
		Repo: store,
		Loc:  loc,
		TopK: cfg.Game.LeaderboardSize,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	tokens := auth.JWT{Secret: []byte(cfg.Auth.Secret), TokenTTL: cfg.Auth.TokenTTL}
	engine.Use(auth.Middleware(tokens, cfg.Auth.Disabled))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm, Cache: redisStore}
	healthHandler.Register(engine)
	predictionHandler := &handler.PredictionHandler{
		Service: predictionSvc,
		Repo:    store,
		Logger:  logger,
	}
	predictionHandler.Register(engine)
	slotHandler := &handler.SlotHandler{Loc: loc}
	slotHandler.Register(engine)
	leaderboardHandler := &handler.LeaderboardHandler{
		Repo:     store,
		Ranking:  ranking,
		Rollover: rollover,
		TopK:     cfg.Game.LeaderboardSize,
	}
	leaderboardHandler.Register(engine)

	engine.GET("/ws", func(c *gin.Context) {
		hub.Serve(c.Writer, c.Request)
	})

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catch up a rollover missed while the process was down.
	if err := rollover.RunIfDue(ctx); err != nil {
		logger.Warn("startup rollover check failed", zap.Error(err))
	}

	cronRunner := cronrunner.New(logger, ctx)

	_, err = cronRunner.Add(cfg.Cron.Evaluate, func(ctx context.Context) {
		settled, deferred, err := evaluator.EvaluateExpired(ctx)
		if err != nil {
			logger.Warn("cron evaluate failed", zap.Error(err))
			return
		}
		if settled > 0 || deferred > 0 {
			logger.Info("cron evaluate ok", zap.Int("settled", settled), zap.Int("deferred", deferred))
		}
	})
	if err != nil {
		logger.Warn("cron register evaluate failed", zap.Error(err))
	}

	_, err = cronRunner.Add(cfg.Cron.PriceRefresh, func(ctx context.Context) {
		assets, err := store.ListActiveAssets(ctx)
		if err != nil {
			logger.Warn("cron price refresh list failed", zap.Error(err))
			return
		}
		priceOracle.Refresh(ctx, assets)
	})
	if err != nil {
		logger.Warn("cron register price refresh failed", zap.Error(err))
	}

	_, err = cronRunner.Add(cfg.Cron.SlotBroadcast, func(ctx context.Context) {
		now := time.Now()
		for _, class := range slot.Classes() {
			hub.BroadcastSlotUpdate(ctx, class, slot.For(now, class, loc))
		}
	})
	if err != nil {
		logger.Warn("cron register slot broadcast failed", zap.Error(err))
	}

	_, err = cronRunner.Add(cfg.Cron.RolloverCheck, func(ctx context.Context) {
		if err := rollover.RunIfDue(ctx); err != nil {
			logger.Warn("cron rollover check failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Warn("cron register rollover check failed", zap.Error(err))
	}

	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func seedAssets(ctx context.Context, store *gormrepository.Store, seeds []config.AssetSeed, logger *zap.Logger) {
	for _, seed := range seeds {
		symbol := strings.ToUpper(strings.TrimSpace(seed.Symbol))
		if symbol == "" {
			continue
		}
		item := &models.Asset{
			Symbol: symbol,
			Name:   seed.Name,
			Class:  strings.ToLower(strings.TrimSpace(seed.Class)),
			Active: seed.Active,
		}
		if err := store.UpsertAsset(ctx, item); err != nil {
			logger.Warn("asset seed failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
