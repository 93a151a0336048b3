package app

import (
	"context"
	"errors"
	"fmt"

	"niveshx-api/internal/config"
	"niveshx-api/internal/db"
	"niveshx-api/internal/logger"
	"niveshx-api/internal/mailer"
	"niveshx-api/internal/redis"
	"niveshx-api/internal/store"
	"niveshx-api/internal/store/memstore"
)

type Infra struct {
	DB     *db.DB
	Redis  *redis.Client
	Store  store.Store
	Mailer mailer.Mailer
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	infra := &Infra{}

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		infra.Store = memstore.New()
		logger.Warn("using in-memory document store", nil)
	default:
		database, err := db.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		infra.DB = database
		infra.Store = store.NewPGStore(database)
		logger.Info("database ready", nil)
	}

	redisClient, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	infra.Redis = redisClient
	logger.Info("redis ready", map[string]any{"addr": cfg.RedisAddr})

	if cfg.SMTPEnabled() {
		m, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
		if err != nil {
			_ = infra.Close()
			return nil, fmt.Errorf("smtp mailer: %w", err)
		}
		infra.Mailer = m
	} else {
		logger.Warn("SMTP_HOST not set, emails will only be logged", nil)
		infra.Mailer = mailer.LogMailer{}
	}

	return infra, nil
}

// Close releases the database and redis connections.
func (i *Infra) Close() error {
	var errs []error
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.DB != nil {
		errs = append(errs, i.DB.Close())
	}
	return errors.Join(errs...)
}
