package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/eohue/ibookee-web-sub000/config"
	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
	repo "github.com/eohue/ibookee-web-sub000/internal/domain/repository"
	"github.com/eohue/ibookee-web-sub000/internal/infrastructure/postgres"
	"github.com/eohue/ibookee-web-sub000/pkg/helpers"
	"github.com/eohue/ibookee-web-sub000/pkg/password"
)

// seed creates the admin account named by SEED_ADMIN_EMAIL, or promotes the
// existing user with that email. An existing password is kept.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	email := strings.ToLower(strings.TrimSpace(cfg.SeedAdminEmail))
	if email == "" || cfg.SeedAdminPassword == "" {
		logger.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.PostgresDSN(), postgres.PoolOptions{MaxConns: 2})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()
	if err := postgres.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}

	users := postgres.NewUserRepository(pool)
	hasher := password.NewHasher(password.DefaultParams, 1)

	u, err := users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		hash, err := hasher.Hash(ctx, cfg.SeedAdminPassword)
		if err != nil {
			logger.WithError(err).Fatal("failed to hash password")
		}
		u = &entity.User{
			Email:        email,
			PasswordHash: hash,
			Role:         entity.RoleAdmin,
			Nickname:     "admin",
			RealName:     "Administrator",
		}
		if err := users.Create(ctx, u); err != nil {
			logger.WithError(err).Fatal("failed to seed admin")
		}
		logger.WithFields(logrus.Fields{"user_id": u.ID, "email": email}).Info("seeded admin user")
	case err != nil:
		logger.WithError(err).Fatal("failed to look up seed user")
	default:
		if u.PasswordHash == "" {
			hash, err := hasher.Hash(ctx, cfg.SeedAdminPassword)
			if err != nil {
				logger.WithError(err).Fatal("failed to hash password")
			}
			if err := users.SetPasswordHash(ctx, u.ID, hash); err != nil {
				logger.WithError(err).Fatal("failed to set password")
			}
		}
		if _, err := users.SetRole(ctx, u.ID, entity.RoleAdmin); err != nil {
			logger.WithError(err).Fatal("failed to promote user")
		}
		logger.WithFields(logrus.Fields{"user_id": u.ID, "email": email}).Info("promoted existing user to admin")
	}
}
