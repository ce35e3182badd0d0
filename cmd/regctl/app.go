package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/config"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/repository"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/service"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/database"
	applogger "github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/logger"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mail"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mongodb"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/redis"
)

// App is the regctl command tree.
type App struct {
	root   *cobra.Command
	stdout io.Writer

	configPath string
	actor      model.Actor

	// openServices connects the stores; tests replace it.
	openServices func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*service.Service, func(), error)
	loadConfig   func(path string) (*config.Config, error)
}

func NewApp() *App {
	app := &App{
		stdout:       os.Stdout,
		actor:        model.Actor{ID: "regctl", Name: "regctl"},
		openServices: openServices,
		loadConfig:   config.Load,
	}

	app.root = &cobra.Command{
		Use:           "regctl",
		Short:         "Operator tasks for the regulations service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	app.root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "Path to the config file")
	app.root.PersistentFlags().StringVar(&app.actor.Email, "notify", "", "Mail address that receives job notifications")

	app.root.AddCommand(
		app.newRolloverCmd(),
		app.newSyncCmd(),
		app.newMigrateCmd(),
	)
	return app
}

// WithOutput redirects command output.
func (a *App) WithOutput(w io.Writer) *App {
	a.stdout = w
	a.root.SetOut(w)
	a.root.SetErr(w)
	return a
}

// Execute runs the command line, cancelled on SIGINT or SIGTERM.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs with explicit arguments.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.root.ExecuteContext(ctx)
}

// setup loads config and a logger for a command.
func (a *App) setup() (*config.Config, *zap.Logger, error) {
	cfg, err := a.loadConfig(a.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// openServices connects mongo, the audit database and, when reachable,
// redis, and wires the services the same way the server does.
func openServices(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*service.Service, func(), error) {
	mc, err := mongodb.NewClient(ctx, &cfg.Mongo, logger)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		mc.Close(ctx)
		return nil, nil, err
	}

	var progress service.ProgressStore
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, progress is not cached", zap.Error(err))
		rdb = nil
	} else {
		progress = rdb
	}

	var sender mail.Sender = mail.NewLogSender(logger)
	if cfg.Mail.SMTPHost != "" {
		sender = mail.NewSMTPSender(&cfg.Mail, logger)
	}

	repo := repository.NewRepository(mc, db)
	svc := service.NewService(cfg, repo, mongodb.NewTransactor(mc), progress, sender, logger)

	closeFn := func() {
		svc.Runner.Wait()
		mc.Close(context.Background())
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		if rdb != nil {
			rdb.Close()
		}
	}
	return svc, closeFn, nil
}
