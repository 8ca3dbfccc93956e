// Package app wires the store, limiter and services shared by the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"messenger/config"
	"messenger/internal/redis"
	"messenger/internal/repository"
	"messenger/internal/services"
	"messenger/pkg/database"
	"messenger/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const redisConnectTimeout = 3 * time.Second

type App struct {
	Store    repository.Store
	Auth     *services.AuthService
	Lists    *services.ListService
	Chats    *services.ChatService
	Messages *services.MessageService
	Accounts *services.AccountService

	db    *gorm.DB
	redis *goredis.Client
}

// LoggerMode maps APP_MODE onto the logger's production/development modes.
func LoggerMode(appMode string) string {
	if appMode == "release" {
		return logger.ProductionMode
	}
	return logger.DevelopmentMode
}

// New opens the configured store and, when REDIS_HOST is set, the login limiter.
func New(ctx context.Context, cfg *config.Config, l *logger.Logger) (*App, error) {
	a := &App{}

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		l.Warnf("Using the in-memory store, data is lost on exit")
		a.Store = repository.NewMemoryStore()
	case config.StoreDriverPostgres, "":
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := database.SQLDB(db)
		if err != nil {
			_ = database.Close(db)
			return nil, err
		}
		a.db = db
		a.Store = repository.NewStore(sqlDB)
		l.Infof("Connected to postgres at %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	var limiter services.LoginLimiter = services.NoopLimiter{}
	if cfg.RedisEnabled() {
		client, err := redis.Connect(ctx, redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, redisConnectTimeout)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.redis = client
		limiter = redis.NewLoginLimiter(client, cfg.AuthLimit, time.Duration(cfg.AuthWindowSec)*time.Second)
		l.Infof("Login attempts limited to %d per %ds", cfg.AuthLimit, cfg.AuthWindowSec)
	}

	a.Auth = services.NewAuthService(a.Store, limiter, cfg).WithLogger(l)
	a.Lists = services.NewListService(a.Store)
	a.Chats = services.NewChatService(a.Store)
	a.Messages = services.NewMessageService(a.Store, cfg.MessagePageSize)
	a.Accounts = services.NewAccountService(a.Store)
	return a, nil
}

// Health pings the database and Redis when they are in use.
func (a *App) Health(ctx context.Context) error {
	if a.db != nil {
		if err := database.Ping(ctx, a.db); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, database.Close(a.db))
	}
	return errors.Join(errs...)
}
