package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sendit/messenger/internal/config"
	"sendit/messenger/internal/handler"
	"sendit/messenger/internal/pkg/auth"
	"sendit/messenger/internal/pkg/notify"
	"sendit/messenger/internal/pkg/otp"
	"sendit/messenger/internal/repository"
	"sendit/messenger/internal/service"
)

const otpIssuer = "SendIt"

type App struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
	rdb    *redis.Client
	server *Server
}

// New connects to the database and Redis, migrates the schema and wires
// the services.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	db, err := repository.NewDB(cfg, gormLogLevel(cfg))
	if err != nil {
		return nil, err
	}

	if err := repository.Migrate(db); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return Build(cfg, log, db, rdb, newGateway(cfg, log)), nil
}

// Build wires the services over already opened backends.
func Build(cfg *config.Config, log *slog.Logger, db *gorm.DB, rdb *redis.Client, gateway notify.Gateway) *App {
	store := repository.NewStore(db)
	challenges := repository.NewChallengeRepository(rdb)
	cache := repository.NewConversationCacheRepository(rdb)

	tokens := auth.NewTokenIssuer(cfg.JWTKey, cfg.TokenTTL)

	identity := service.NewIdentityService(store, auth.NewBcryptVerifier(0), tokens, log)
	login := service.NewLoginService(identity, store.Accounts(), challenges, gateway, otp.NewGenerator(otpIssuer), tokens,
		service.LoginConfig{
			NotifyTimeout: cfg.OTPNotifyTimeout,
			MaxAttempts:   cfg.OTPMaxAttempts,
		}, log)
	conversations := service.NewConversationService(store, cache, log)

	server := NewServer(
		handler.NewUserHandler(identity, login),
		handler.NewChatHandler(conversations),
		handler.RequireOwner(tokens, cfg.AuthRequired),
	)

	return &App{
		cfg:    cfg,
		logger: log,
		db:     db,
		rdb:    rdb,
		server: server,
	}
}

func newGateway(cfg *config.Config, log *slog.Logger) notify.Gateway {
	if cfg.MailDriver == config.MailDriverLog {
		log.Warn("MAIL_DRIVER=log, one-time codes are written to the log")
		return notify.NewLogGateway(log)
	}
	return notify.NewSMTPGateway(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		Timeout:  cfg.OTPNotifyTimeout,
	})
}

func gormLogLevel(cfg *config.Config) logger.LogLevel {
	switch cfg.SlogLevel() {
	case slog.LevelDebug:
		return logger.Info
	case slog.LevelError:
		return logger.Error
	default:
		return logger.Warn
	}
}

func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Run serves HTTP until ctx is cancelled, then releases the backends.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()
	return a.server.Run(ctx, a.cfg.ServerPort)
}

func (a *App) Close() {
	if err := a.rdb.Close(); err != nil {
		a.logger.Warn("failed to close redis", "error", err)
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.logger.Warn("failed to close database", "error", err)
		}
	}
}

// Migrate applies the schema without starting the server.
func Migrate(cfg *config.Config) error {
	db, err := repository.NewDB(cfg, gormLogLevel(cfg))
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	return repository.Migrate(db)
}
