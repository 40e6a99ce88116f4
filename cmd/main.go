package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petopia/cache"
	"petopia/config"
	"petopia/controllers"
	"petopia/database"
	"petopia/jobs"
	"petopia/logger"
	"petopia/middleware"
	"petopia/repository"
	"petopia/routes"
	"petopia/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("load env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.New(cfg.LogMode, cfg.LogFile)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		return err
	}
	defer func() { _ = db.Client().Disconnect(context.Background()) }()
	if err := database.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	zlog.Info("connected to MongoDB", zap.String("db", cfg.DBName))

	checks := map[string]controllers.Check{
		"mongo": func(ctx context.Context) error { return db.Client().Ping(ctx, nil) },
	}

	var reportCache cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			zlog.Warn("redis unavailable, analytics cache disabled", zap.Error(err))
		} else {
			reportCache = cache.NewRedisCache(rdb, cfg.AnalyticsCacheTTL)
			checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
			zlog.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
		}
	}

	users := repository.NewUserRepository(db)
	categories := repository.NewCategoryRepository(db)
	products := repository.NewProductRepository(db)
	coupons := repository.NewCouponRepository(db)
	orders := repository.NewOrderRepository(db)
	tokens := repository.NewTokenRepository(db)
	reports := repository.NewAnalyticsRepository(db)

	authSvc := service.NewAuthService(users, tokens, cfg.JWTSecret, cfg.JWTTTL)
	analyticsSvc := service.NewAnalyticsService(reports, users, products, orders, reportCache)
	orderSvc := service.NewOrderService(orders, products, coupons, analyticsSvc)

	if cfg.AdminEmail != "" {
		created, err := authSvc.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return err
		}
		if created {
			zlog.Info("admin account created", zap.String("email", cfg.AdminEmail))
		}
	}

	if err := controllers.RegisterValidators(); err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}
	r.Use(
		middleware.RequestID(),
		middleware.Logger(zlog),
		middleware.Recovery(zlog),
	)
	routes.RegisterRoutes(r, routes.Handlers{
		Auth:       controllers.NewAuthController(authSvc),
		Categories: controllers.NewCategoryController(service.NewCategoryService(categories, products)),
		Products:   controllers.NewProductController(service.NewProductService(products, categories)),
		Coupons:    controllers.NewCouponController(service.NewCouponService(coupons)),
		Users:      controllers.NewUserController(service.NewUserService(users)),
		Orders:     controllers.NewOrderController(orderSvc),
		Analytics:  controllers.NewAnalyticsController(analyticsSvc),
		Health:     controllers.NewHealthController(checks),
	}, authSvc)

	sched, err := jobs.New(analyticsSvc, tokens)
	if err != nil {
		return err
	}
	sched.Start()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.CORS(cfg.CORSOrigins)(r),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	zlog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	sched.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	zlog.Info("server exited")
	return nil
}
