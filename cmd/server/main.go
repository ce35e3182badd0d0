package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/config"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/api/handler"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/api/router"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/repository"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/scheduler"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/service"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/database"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/jwt"
	applogger "github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/logger"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mail"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mongodb"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/redis"
)

func main() {
	// 1. config
	cfg, err := config.Load(os.Getenv("REGSVC_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. document store
	ctx := context.Background()
	mc, err := mongodb.NewClient(ctx, &cfg.Mongo, logger)
	if err != nil {
		logger.Fatal("mongo connection failed", zap.Error(err))
	}
	if err := mc.CreateIndexes(ctx); err != nil {
		logger.Fatal("mongo index creation failed", zap.Error(err))
	}

	// 3.1 audit database and its migrations
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB failed", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	// 4. redis is optional: without it job progress is read from the store
	// and rate limiting is off
	var progress service.ProgressStore
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running without progress cache and rate limit", zap.Error(err))
		rdb = nil
	} else {
		progress = rdb
	}

	// 5. mail
	var sender mail.Sender = mail.NewLogSender(logger)
	if cfg.Mail.SMTPHost != "" {
		sender = mail.NewSMTPSender(&cfg.Mail, logger)
	}

	// 6. wiring: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(mc, db)
	svc := service.NewService(cfg, repo, mongodb.NewTransactor(mc), progress, sender, logger)
	h := handler.NewHandler(svc)

	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 7. rollover scheduler
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		actor := model.Actor{ID: "system", Name: "Scheduler", Email: cfg.Mail.From}
		sched = scheduler.New(svc.BatchYear, cfg.Scheduler.Interval, actor, logger)
		sched.Start(ctx)
	}

	// 8. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if sched != nil {
		sched.Stop()
	}

	// background jobs finish their bookkeeping before the stores close
	jobsDone := make(chan struct{})
	go func() {
		svc.Runner.Wait()
		close(jobsDone)
	}()
	select {
	case <-jobsDone:
	case <-shutdownCtx.Done():
		logger.Warn("background jobs still running at shutdown")
	}

	if err := mc.Close(shutdownCtx); err != nil {
		logger.Error("mongo close failed", zap.Error(err))
	}
	sqlDB.Close()
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("server stopped")
}
