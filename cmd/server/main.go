package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/pos-system/internal/config"
	"github.com/iliyamo/pos-system/internal/database"
	"github.com/iliyamo/pos-system/internal/handler"
	"github.com/iliyamo/pos-system/internal/identity"
	"github.com/iliyamo/pos-system/internal/middleware"
	"github.com/iliyamo/pos-system/internal/queue"
	"github.com/iliyamo/pos-system/internal/repository"
	"github.com/iliyamo/pos-system/internal/router"
	"github.com/iliyamo/pos-system/internal/service"
	"github.com/iliyamo/pos-system/internal/token"
	"github.com/iliyamo/pos-system/internal/utils"
)

func main() {
	cfg := config.Load()
	logger := log.New("server")

	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the rate limiter and cache pass through.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	tokens := repository.NewTokenRepo(db)
	orders := repository.NewOrderRepo(db)

	idm := identity.NewManager(users, roles, identity.Config{
		BcryptCost:        cfg.BcryptCost,
		MaxFailedAttempts: cfg.LockoutMaxAttempts,
		LockoutDuration:   cfg.LockoutDuration,
		Policy:            utils.DefaultPasswordPolicy,
	})
	issuer, err := token.New(token.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
		AccessTTL:  cfg.JWT.AccessTTL(),
		RefreshTTL: cfg.JWT.RefreshTTL(),
	}, tokens, idm, users)
	if err != nil {
		logger.Fatalf("token issuer: %v", err)
	}

	authSvc := service.NewAuthService(idm, idm, idm, issuer, tokens)
	orderSvc := service.NewOrderService(orders, queue.NewPublisher(cfg.RabbitURL))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ConsumerEnable {
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.OrderLogDir)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("order consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	auth := middleware.JWTAuth(issuer)
	cacheCfg := config.LoadCacheConfig()
	invalidate := middleware.InvalidateCache(cacheCfg, rdb)

	router.RegisterRoutes(e, handler.NewHealthHandler(db))
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), auth,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterOrders(e, handler.NewOrderHandler(orderSvc), auth, invalidate)
	router.RegisterCatalog(e,
		handler.NewCatalogHandler(
			repository.NewCategoryRepo(db),
			repository.NewProductRepo(db),
			repository.NewLineItemRepo(db),
		),
		auth,
		middleware.NewRedisCache(cacheCfg, rdb),
		invalidate,
	)

	addr := ":" + cfg.Port
	go func() {
		logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
