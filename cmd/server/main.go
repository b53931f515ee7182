package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hr-auth-service/internal/auth"
	"github.com/iliyamo/hr-auth-service/internal/config"
	"github.com/iliyamo/hr-auth-service/internal/database"
	"github.com/iliyamo/hr-auth-service/internal/handler"
	"github.com/iliyamo/hr-auth-service/internal/middleware"
	"github.com/iliyamo/hr-auth-service/internal/queue"
	"github.com/iliyamo/hr-auth-service/internal/repository"
	"github.com/iliyamo/hr-auth-service/internal/router"
	queuepublisher "github.com/iliyamo/hr-auth-service/internal/service"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis is optional: the limiter falls back to an in-process bucket
	// when no server is reachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, using in-process rate limiter")
	}

	// Repositories over the shared connection pool.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	attempts := repository.NewLoginAttemptRepo(db)
	resets := repository.NewResetTokenRepo(db)
	twoFactor := repository.NewTwoFactorRepo(db)
	history := repository.NewLoginHistoryRepo(db)

	publisher := auth.PublisherFunc(queuepublisher.PublishNotification)

	// Core services.
	lockout := auth.NewLockoutTracker(attempts, cfg.LockoutMaxFailures, time.Duration(cfg.LockoutWindowMin)*time.Minute)
	tokenSvc := auth.NewTokenService(users, tokens, cfg.JWTSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays)
	sessionSvc := auth.NewSessionService(users, lockout, tokenSvc, history, cfg.BcryptCost)
	resetSvc := auth.NewResetService(users, resets, publisher, cfg.ResetTokenTTLMin, cfg.BcryptCost)
	twoFactorSvc := auth.NewTwoFactorService(twoFactor, users, publisher, cfg.TOTPIssuer, cfg.TwoFactorCodeTTLMin)

	// The consumer drains auth.notifications and delivers email/SMS
	// codes and reset links. It reconnects on broker failure.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Validator = handler.NewValidator()

	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	authHandler := handler.NewAuthHandler(sessionSvc, cfg.JWTSecret)
	resetHandler := handler.NewPasswordResetHandler(resetSvc)
	twoFactorHandler := handler.NewTwoFactorHandler(twoFactorSvc)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, resetHandler, twoFactorHandler, cfg.JWTSecret, rateLimit)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
