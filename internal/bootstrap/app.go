package bootstrap

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"portfolio-site/internal/api"
	"portfolio-site/internal/config"
	mysqlClient "portfolio-site/internal/platform/mysql"
	rabbitmqClient "portfolio-site/internal/platform/rabbitmq"
	redisClient "portfolio-site/internal/platform/redis"
	"portfolio-site/internal/repository"
	"portfolio-site/internal/rewrite"
	"portfolio-site/internal/worker"
)

// App holds what the site server needs. MySQL, Redis and MQConn are nil
// when not configured.
type App struct {
	Config      *config.Config
	Rewriter    *rewrite.Rewriter
	Backend     *api.Client
	MySQL       *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	AuditRepo   *repository.AuditRepository
	AuditWorker *worker.AuditWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	rw, err := rewrite.New(cfg.Backend.APIPrefix, cfg.Backend.URL)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		Rewriter:  rw,
		Backend:   api.NewClient(cfg.Backend.URL, api.WithHTTPClient(&http.Client{Timeout: 3 * time.Second})),
		StartedAt: time.Now(),
	}

	if err := app.connect(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) connect(ctx context.Context) error {
	cfg := a.Config

	if cfg.Redis.Addr != "" {
		client, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.Redis = client
	}

	if cfg.MySQLEnabled() {
		db, err := mysqlClient.New(ctx, cfg.MySQLDSN())
		if err != nil {
			return err
		}
		a.MySQL = db
		a.AuditRepo = repository.NewAuditRepository(db)
	}

	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.AuditQueue)
		if err != nil {
			return err
		}
		a.MQConn = conn
	}

	if a.MQConn != nil && a.AuditRepo != nil {
		a.AuditWorker = worker.NewAuditWorker(a.MQConn, a.AuditRepo, cfg.RabbitMQ.AuditQueue)
		if err := a.AuditWorker.Start(ctx); err != nil {
			return fmt.Errorf("start audit worker failed: %w", err)
		}
	} else if a.MQConn != nil {
		log.Printf("rabbitmq configured without mysql: audit events stay queued")
	}
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.AuditWorker != nil {
		a.AuditWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
