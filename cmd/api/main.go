package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bkp-platform/internal/account"
	"bkp-platform/internal/audit"
	"bkp-platform/internal/auth"
	"bkp-platform/internal/config"
	"bkp-platform/internal/httpapi"
	"bkp-platform/internal/ratelimit"
	"bkp-platform/internal/session"
	"bkp-platform/internal/sso"
	"bkp-platform/internal/upload"
	"bkp-platform/pkg/logger"
	"bkp-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	objects, err := upload.NewS3Store(rootCtx, cfg.S3)
	if err != nil {
		log.Error("s3 init failed", "err", err)
		os.Exit(1)
	}

	var verifier sso.Verifier
	if cfg.SSO.IssuerURL != "" {
		v, err := sso.NewOIDCVerifier(rootCtx, cfg.SSO)
		if err != nil {
			log.Error("oidc init failed", "err", err)
			os.Exit(1)
		}
		verifier = v
	} else {
		// Validate() already refused this combination in production.
		log.Warn("sso issuer not configured, using mock verifier")
		verifier = sso.MockVerifier{}
	}

	auditSvc := audit.NewService(audit.NewPGRepo(db), log)
	accounts := account.NewService(account.NewPGRepository(db), session.NewPGStore(db), tokens, auditSvc)
	uploads := upload.NewService(upload.NewPGRepository(db), objects, auditSvc)
	limiter := ratelimit.NewLoginLimiter(rdb, cfg.Redis.LoginMaxAttempts, cfg.Redis.LoginWindow, log)

	r := httpapi.NewRouter(log, tokens, httpapi.Handlers{
		Accounts: accounts,
		Uploads:  uploads,
		Audit:    auditSvc,
		Limiter:  limiter,
		SSO:      verifier,
		Prod:     cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	// let in-flight audit writes land before exit
	auditSvc.Wait()
}
