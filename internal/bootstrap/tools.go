package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"portfolio-site/internal/admin"
	"portfolio-site/internal/api"
	"portfolio-site/internal/config"
	"portfolio-site/internal/kv"
	mysqlClient "portfolio-site/internal/platform/mysql"
	rabbitmqClient "portfolio-site/internal/platform/rabbitmq"
	redisClient "portfolio-site/internal/platform/redis"
	"portfolio-site/internal/repository"
)

// Tools is the client-side wiring used by portfolioctl: persisted slots,
// the API client rooted at the site prefix, and where audit events go.
type Tools struct {
	Config   *config.Config
	Store    kv.Store
	API      *api.Client
	Notifier admin.Notifier

	redis *redis.Client
	mq    *amqp.Connection
	mysql *gorm.DB
}

func NewTools(ctx context.Context, cfg *config.Config) (*Tools, error) {
	t := &Tools{Config: cfg}

	var opts []api.Option
	if cfg.Client.TimeoutSeconds > 0 {
		opts = append(opts, api.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Client.TimeoutSeconds) * time.Second,
		}))
	}
	t.API = api.NewClient(cfg.APIBaseURL(), opts...)

	if err := t.openStore(ctx); err != nil {
		_ = t.Close()
		return nil, err
	}
	if err := t.openNotifier(ctx); err != nil {
		_ = t.Close()
		return nil, err
	}
	return t, nil
}

func (t *Tools) openStore(ctx context.Context) error {
	cfg := t.Config
	storeType := kv.StoreType(cfg.Storage.Driver)

	opts := []kv.Option{
		kv.WithFilePath(cfg.Storage.Path),
		kv.WithKeyPrefix(cfg.Storage.KeyPrefix),
	}
	if storeType == kv.StoreTypeRedis {
		client, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		t.redis = client
		opts = append(opts, kv.WithRedisClient(client))
	}

	store, err := kv.NewStore(storeType, opts...)
	if err != nil {
		return fmt.Errorf("open %s store failed: %w", cfg.Storage.Driver, err)
	}
	t.Store = store
	return nil
}

// openNotifier prefers the broker; without one, events go straight to
// MySQL; with neither, they are not recorded.
func (t *Tools) openNotifier(ctx context.Context) error {
	cfg := t.Config
	switch {
	case cfg.RabbitMQ.URL != "":
		conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.AuditQueue)
		if err != nil {
			return err
		}
		t.mq = conn
		t.Notifier = rabbitmqClient.NewAuditPublisher(conn, cfg.RabbitMQ.AuditQueue)
	case cfg.MySQLEnabled():
		db, err := mysqlClient.New(ctx, cfg.MySQLDSN())
		if err != nil {
			return err
		}
		t.mysql = db
		t.Notifier = repository.NewAuditRepository(db)
	}
	return nil
}

func (t *Tools) AdminOptions() []admin.Option {
	if t.Notifier == nil {
		return nil
	}
	return []admin.Option{admin.WithNotifier(t.Notifier)}
}

func (t *Tools) Close() error {
	var closeErr error
	if t.Store != nil {
		if err := t.Store.Close(); err != nil {
			closeErr = err
		}
	}
	if t.redis != nil {
		if err := t.redis.Close(); err != nil {
			closeErr = err
		}
	}
	if t.mq != nil {
		if err := t.mq.Close(); err != nil {
			closeErr = err
		}
	}
	if t.mysql != nil {
		if sqlDB, err := t.mysql.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
