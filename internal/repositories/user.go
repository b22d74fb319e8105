package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-user-auth/internal/logger"
	"github.com/sbilibin2017/gw-user-auth/internal/models"
)

// ErrUserConflict is returned when an insert violates the email or username uniqueness constraint.
var ErrUserConflict = errors.New("user with this email or username already exists")

const userColumns = "id, email, username, password_hash, created_at"

// UserReadRepository looks up users in PostgreSQL.
// All lookups return (nil, nil) when no user matches.
type UserReadRepository struct {
	db *sqlx.DB
}

func NewUserReadRepository(db *sqlx.DB) *UserReadRepository {
	return &UserReadRepository{db: db}
}

func (r *UserReadRepository) GetByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	const query = "SELECT " + userColumns + " FROM users WHERE email = $1 OR username = $2 LIMIT 1"
	return r.getOne(ctx, query, email, username)
}

func (r *UserReadRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = "SELECT " + userColumns + " FROM users WHERE email = $1"
	return r.getOne(ctx, query, email)
}

func (r *UserReadRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	const query = "SELECT " + userColumns + " FROM users WHERE id = $1"
	return r.getOne(ctx, query, id)
}

func (r *UserReadRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	err := pick(ctx, r.db).GetContext(ctx, &user, query, args...)

	logger.Log.Debugw("query",
		"sql", query,
		"args", args,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &user, nil
}

// UserWriteRepository inserts users into PostgreSQL.
type UserWriteRepository struct {
	db *sqlx.DB
}

func NewUserWriteRepository(db *sqlx.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

// Save inserts a new user and returns it with the database-assigned id and creation time.
// A concurrent insert of the same email or username yields ErrUserConflict.
func (r *UserWriteRepository) Save(ctx context.Context, email, username, passwordHash string) (*models.User, error) {
	const query = "INSERT INTO users (email, username, password_hash) VALUES ($1, $2, $3) RETURNING " + userColumns

	var user models.User
	err := pick(ctx, r.db).GetContext(ctx, &user, query, email, username, passwordHash)

	// The hash stays out of the log
	logger.Log.Debugw("query",
		"sql", query,
		"args", []any{email, username},
		"id", user.ID,
		"error", err,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrUserConflict
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &user, nil
}
