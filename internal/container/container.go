// Package container builds the application graph once at startup. Nothing in
// it is global: main owns the Container and hands it to the router.
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/eohue/ibookee-web-sub000/config"
	"github.com/eohue/ibookee-web-sub000/internal/application"
	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
	repo "github.com/eohue/ibookee-web-sub000/internal/domain/repository"
	"github.com/eohue/ibookee-web-sub000/internal/infrastructure/mailqueue"
	"github.com/eohue/ibookee-web-sub000/internal/infrastructure/oauth"
	"github.com/eohue/ibookee-web-sub000/internal/infrastructure/postgres"
	"github.com/eohue/ibookee-web-sub000/internal/infrastructure/search"
	"github.com/eohue/ibookee-web-sub000/internal/infrastructure/session"
	"github.com/eohue/ibookee-web-sub000/pkg/helpers"
	"github.com/eohue/ibookee-web-sub000/pkg/password"
)

type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Redis  redis.UniversalClient

	Auth    *application.AuthConfig
	Admin   *application.UserAdmin
	State   *helpers.StateSigner
	Cookies *helpers.Manager

	closers []func()
}

// Build connects every backing service and wires the services on top.
// Postgres and Redis are required. Elasticsearch and RabbitMQ are optional:
// when unreachable the search index and the notifier degrade to no-ops.
func Build(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	pool, err := postgres.NewPool(ctx, cfg.PostgresDSN(), postgres.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLife,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	c.closers = append(c.closers, pool.Close)

	if err := postgres.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		c.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	c.closers = append(c.closers, func() { _ = rdb.Close() })
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	built := New(cfg, logger, Deps{
		Users:    postgres.NewUserRepository(pool),
		Sessions: session.NewRedisStore(rdb),
		Hasher:   password.NewHasher(password.DefaultParams, cfg.HashConcurrency),
		Notifier: c.buildNotifier(),
		Indexer:  c.buildIndexer(),
		Adapters: oauth.NewAdapters(Credentials(cfg), logger),
		Redis:    rdb,
	})
	built.closers = c.closers
	return built, nil
}

// Credentials collects the configured client credentials per provider.
func Credentials(cfg *config.Config) map[entity.Provider]oauth.Credentials {
	out := make(map[entity.Provider]oauth.Credentials, len(entity.FederatedProviders))
	for _, p := range entity.FederatedProviders {
		id, secret := cfg.ProviderCredentials(string(p))
		out[p] = oauth.Credentials{ClientID: id, ClientSecret: secret, RedirectURL: cfg.CallbackURL(string(p))}
	}
	return out
}

func (c *Container) buildNotifier() application.Notifier {
	if !c.Config.MailSendEnabled {
		c.Logger.Info("MAIL_SEND_ENABLED=false; notifications disabled")
		return application.NopNotifier{}
	}
	pub, err := helpers.NewRabbitPublisher(c.Config.RabbitMQURL, c.Config.RabbitMQEmailQueue)
	if err != nil {
		c.Logger.WithError(err).Warn("rabbitmq unavailable; notifications disabled")
		return application.NopNotifier{}
	}
	c.closers = append(c.closers, pub.Close)
	return mailqueue.NewNotifier(pub, c.Config, c.Logger)
}

func (c *Container) buildIndexer() application.UserIndexer {
	addrs := c.Config.ESAddrs()
	if len(addrs) == 0 {
		return application.NopIndexer{}
	}
	es, err := helpers.NewESClient(addrs, c.Config.ElasticsearchUser, c.Config.ElasticsearchPass)
	if err != nil {
		c.Logger.WithError(err).Warn("elasticsearch client init failed; admin search disabled")
		return application.NopIndexer{}
	}
	return search.NewUserIndex(es, c.Config.ESUsersIndex, c.Logger)
}

// Deps are the stores and adapters the services are built on.
type Deps struct {
	Users    repo.UserRepository
	Sessions repo.SessionRepository
	Hasher   application.PasswordHasher
	Notifier application.Notifier
	Indexer  application.UserIndexer
	Adapters []application.ProviderAdapter
	// Redis backs rate limiting; nil disables it.
	Redis redis.UniversalClient
}

// New builds the services from already constructed stores.
func New(cfg *config.Config, logger *logrus.Logger, d Deps) *Container {
	gate := application.NewGate(d.Sessions, d.Users, cfg.SessionTTL, logger)
	local := application.NewLocalAuth(d.Users, d.Hasher, logger, d.Notifier, d.Indexer)
	resolver := application.NewIdentityResolver(d.Users, logger, d.Notifier, d.Indexer, cfg.LinkByEmail)

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Redis:   d.Redis,
		Auth:    application.NewAuthConfig(local, resolver, gate, d.Adapters...),
		Admin:   application.NewUserAdmin(d.Users, gate, d.Indexer, logger),
		State:   helpers.NewStateSigner(cfg.OAuthStateSecret, cfg.OAuthStateTTL),
		Cookies: helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure, cfg.SessionCookieName),
	}
}

// Close releases connections in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
