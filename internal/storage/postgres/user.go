package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/tiendita-pos/internal/domain/auth"
)

var (
	_ auth.UserRepository    = (*UserRepository)(nil)
	_ auth.SessionRepository = (*UserRepository)(nil)
)

// UserRepository stores accounts and their sign-in sessions.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) CreateUser(ctx context.Context, u auth.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, business_name, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.PasswordHash, u.BusinessName, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrEmailTaken
		}
		return errors.Wrap(err, "insert user")
	}
	return nil
}

func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	var u auth.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, business_name, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.BusinessName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, errors.Wrap(err, "select user")
	}
	return &u, nil
}

func (r *UserRepository) GetProfile(ctx context.Context, userID string) (*auth.Profile, error) {
	p := auth.Profile{UserID: userID}
	err := r.pool.QueryRow(ctx,
		`SELECT email, business_name FROM users WHERE id = $1`,
		userID,
	).Scan(&p.Email, &p.BusinessName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, errors.Wrap(err, "select profile")
	}
	return &p, nil
}

func (r *UserRepository) UpdateBusinessName(ctx context.Context, userID, name string) (*auth.Profile, error) {
	p := auth.Profile{UserID: userID}
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET business_name = $2 WHERE id = $1 RETURNING email, business_name`,
		userID, name,
	).Scan(&p.Email, &p.BusinessName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, errors.Wrap(err, "update profile")
	}
	return &p, nil
}

func (r *UserRepository) CreateSession(ctx context.Context, s auth.Session) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, token_hash, created_at) VALUES ($1, $2, $3, $4)`,
		s.ID, s.UserID, s.TokenHash, s.CreatedAt,
	); err != nil {
		return errors.Wrap(err, "insert session")
	}
	return nil
}

func (r *UserRepository) FindSessionByHash(ctx context.Context, hash string) (*auth.Session, error) {
	var s auth.Session
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, token_hash, created_at FROM sessions WHERE token_hash = $1`,
		hash,
	).Scan(&s.ID, &s.UserID, &s.TokenHash, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, errors.Wrap(err, "select session")
	}
	return &s, nil
}

func (r *UserRepository) DeleteSessionByHash(ctx context.Context, hash string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, hash); err != nil {
		return errors.Wrap(err, "delete session")
	}
	return nil
}
