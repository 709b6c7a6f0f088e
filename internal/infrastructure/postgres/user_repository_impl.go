package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
	"github.com/eohue/ibookee-web-sub000/internal/domain/repository"
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

// constraint names from db/migrations
var duplicateErrors = map[string]error{
	"users_email_key":     repository.ErrDuplicateEmail,
	"users_google_id_key": repository.ErrDuplicateProviderID,
	"users_naver_id_key":  repository.ErrDuplicateProviderID,
	"users_kakao_id_key":  repository.ErrDuplicateProviderID,
}

// Optional columns are stored as NULL so the unique indexes ignore them, and
// read back through COALESCE.
const userColumns = `
	id,
	COALESCE(email, ''),
	COALESCE(password_hash, ''),
	COALESCE(google_id, ''),
	COALESCE(naver_id, ''),
	COALESCE(kakao_id, ''),
	role,
	COALESCE(nickname, ''),
	COALESCE(first_name, ''),
	COALESCE(last_name, ''),
	COALESCE(profile_image_url, ''),
	is_verified,
	COALESCE(real_name, ''),
	COALESCE(phone_number, ''),
	created_at,
	updated_at`

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, google_id, naver_id, kakao_id, role,
			nickname, first_name, last_name, profile_image_url, is_verified, real_name, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`, nullable(u.Email), nullable(u.PasswordHash), nullable(u.GoogleID), nullable(u.NaverID), nullable(u.KakaoID),
		string(u.Role), nullable(u.Nickname), nullable(u.FirstName), nullable(u.LastName), nullable(u.ProfileImageURL),
		u.IsVerified, nullable(u.RealName), nullable(u.PhoneNumber))

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if email == "" {
		return nil, repository.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) GetByProviderID(ctx context.Context, p entity.Provider, providerID string) (*entity.User, error) {
	column, ok := providerColumn(p)
	if !ok || providerID == "" {
		return nil, repository.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, providerID)
}

func providerColumn(p entity.Provider) (string, bool) {
	switch p {
	case entity.ProviderGoogle:
		return "google_id", true
	case entity.ProviderNaver:
		return "naver_id", true
	case entity.ProviderKakao:
		return "kakao_id", true
	}
	return "", false
}

// UpdateFederatedProfile only matches while the provider column is empty or
// already holds p.ProviderID; role and verification columns are not in the SET.
func (r *UserRepository) UpdateFederatedProfile(ctx context.Context, id string, p repository.FederatedProfile) (*entity.User, error) {
	column, ok := providerColumn(p.Provider)
	if !ok || p.ProviderID == "" {
		return nil, fmt.Errorf("update federated profile: unsupported provider %q", p.Provider)
	}
	u, err := scanUser(r.db.QueryRow(ctx, `
		UPDATE users
		SET `+column+` = $2,
			email = COALESCE(email, $3),
			first_name = COALESCE($4, first_name),
			last_name = CASE WHEN $4::text IS NULL THEN last_name ELSE $5 END,
			profile_image_url = COALESCE($6, profile_image_url),
			updated_at = NOW()
		WHERE id = $1 AND (`+column+` IS NULL OR `+column+` = $2)
		RETURNING `+userColumns,
		id, p.ProviderID, nullable(p.Email), nullable(p.FirstName), nullable(p.LastName), nullable(p.AvatarURL)))
	if errors.Is(err, repository.ErrNotFound) {
		// either the user is gone or another id of this provider got there first
		_, gerr := r.GetByID(ctx, id)
		switch {
		case gerr == nil:
			return nil, repository.ErrProviderLinked
		case errors.Is(gerr, repository.ErrNotFound):
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("recheck user after profile update: %w", gerr)
	}
	if err != nil {
		return nil, mapWriteError(err)
	}
	return u, nil
}

func (r *UserRepository) SetPasswordHash(ctx context.Context, id, hash string) error {
	res, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, nullable(hash))
	if err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetRole(ctx context.Context, id string, role entity.Role) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `
		UPDATE users SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, string(role)))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("set role: %w", err)
	}
	return u, err
}

func (r *UserRepository) SetVerification(ctx context.Context, id, realName, phone string) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `
		UPDATE users SET is_verified = TRUE, real_name = $2, phone_number = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, nullable(realName), nullable(phone)))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("set verification: %w", err)
	}
	return u, err
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, query, arg))
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var role string
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.GoogleID, &u.NaverID, &u.KakaoID, &role,
		&u.Nickname, &u.FirstName, &u.LastName, &u.ProfileImageURL,
		&u.IsVerified, &u.RealName, &u.PhoneNumber, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.Role = entity.Role(role)
	return u, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if mapped, ok := duplicateErrors[pgErr.ConstraintName]; ok {
			return mapped
		}
		return fmt.Errorf("unique violation on %s: %w", pgErr.ConstraintName, err)
	}
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ repository.UserRepository = (*UserRepository)(nil)
