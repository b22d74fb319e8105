package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-user-auth/internal/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var userRowColumns = []string{"id", "email", "username", "password_hash", "created_at"}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestUserReadRepository_Mock(t *testing.T) {
	createdAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("GetByEmailOrUsername found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserReadRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1 OR username = $2 LIMIT 1")).
			WithArgs("a@x.com", "alice").
			WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(1, "a@x.com", "alice", "hash", createdAt))

		user, err := repo.GetByEmailOrUsername(ctx, "a@x.com", "alice")
		assert.NoError(t, err)
		if assert.NotNil(t, user) {
			assert.Equal(t, int64(1), user.ID)
			assert.Equal(t, "alice", user.Username)
			assert.Equal(t, "hash", user.PasswordHash)
			assert.Equal(t, createdAt, user.CreatedAt)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetByEmail not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserReadRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
			WithArgs("ghost@x.com").
			WillReturnRows(sqlmock.NewRows(userRowColumns))

		user, err := repo.GetByEmail(ctx, "ghost@x.com")
		assert.NoError(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetByID found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserReadRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(7, "b@x.com", "bob", "hash", createdAt))

		user, err := repo.GetByID(ctx, 7)
		assert.NoError(t, err)
		if assert.NotNil(t, user) {
			assert.Equal(t, "bob", user.Username)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetByID query error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserReadRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WithArgs(int64(7)).
			WillReturnError(errors.New("connection reset"))

		user, err := repo.GetByID(ctx, 7)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("uses request connection", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserReadRepository(db)

		conn, err := db.Connx(ctx)
		require.NoError(t, err)
		defer conn.Close()

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(3, "c@x.com", "carol", "hash", createdAt))

		user, err := repo.GetByID(WithConn(ctx, conn), 3)
		assert.NoError(t, err)
		assert.NotNil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserWriteRepository_Mock(t *testing.T) {
	createdAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("Save", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserWriteRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (email, username, password_hash) VALUES ($1, $2, $3) RETURNING")).
			WithArgs("a@x.com", "alice", "hash").
			WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(1, "a@x.com", "alice", "hash", createdAt))

		user, err := repo.Save(ctx, "a@x.com", "alice", "hash")
		assert.NoError(t, err)
		if assert.NotNil(t, user) {
			assert.Equal(t, int64(1), user.ID)
			assert.Equal(t, createdAt, user.CreatedAt)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Save unique violation", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserWriteRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs("a@x.com", "alice", "hash").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

		user, err := repo.Save(ctx, "a@x.com", "alice", "hash")
		assert.ErrorIs(t, err, ErrUserConflict)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Save other error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserWriteRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs("a@x.com", "alice", "hash").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.NotNullViolation})

		user, err := repo.Save(ctx, "a@x.com", "alice", "hash")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrUserConflict)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func setupUserPostgresContainer(t *testing.T) (*sqlx.DB, func()) {
	t.Helper()

	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "password", "POSTGRES_DB": "testdb", "POSTGRES_USER": "postgres"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp"),
	}

	container, err := tc.GenericContainer(context.Background(), tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, _ := container.Host(context.Background())
	port, _ := container.MappedPort(context.Background(), "5432")

	dsn := fmt.Sprintf("postgres://postgres:password@%s:%d/testdb?sslmode=disable", host, port.Int())

	var db *sqlx.DB
	for i := 0; i < 10; i++ {
		db, err = sqlx.Connect("pgx", dsn)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err)

	require.NoError(t, migrations.Up(context.Background(), db.DB))

	teardown := func() {
		db.Close()
		container.Terminate(context.Background())
	}

	return db, teardown
}

func TestUserRepositories_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	db, teardown := setupUserPostgresContainer(t)
	defer teardown()

	writeRepo := NewUserWriteRepository(db)
	readRepo := NewUserReadRepository(db)
	ctx := context.Background()

	alice, err := writeRepo.Save(ctx, "a@x.com", "alice", "hash1")
	require.NoError(t, err)
	assert.NotZero(t, alice.ID)
	assert.False(t, alice.CreatedAt.IsZero())

	t.Run("ByEmail", func(t *testing.T) {
		user, err := readRepo.GetByEmail(ctx, "a@x.com")
		assert.NoError(t, err)
		if assert.NotNil(t, user) {
			assert.Equal(t, alice.ID, user.ID)
			assert.Equal(t, "hash1", user.PasswordHash)
		}
	})

	t.Run("ByEmailOrUsername matches either field", func(t *testing.T) {
		user, err := readRepo.GetByEmailOrUsername(ctx, "other@x.com", "alice")
		assert.NoError(t, err)
		assert.NotNil(t, user)

		user, err = readRepo.GetByEmailOrUsername(ctx, "a@x.com", "other")
		assert.NoError(t, err)
		assert.NotNil(t, user)
	})

	t.Run("ByID", func(t *testing.T) {
		user, err := readRepo.GetByID(ctx, alice.ID)
		assert.NoError(t, err)
		if assert.NotNil(t, user) {
			assert.Equal(t, "alice", user.Username)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		user, err := readRepo.GetByID(ctx, alice.ID+1000)
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("Duplicate email or username", func(t *testing.T) {
		_, err := writeRepo.Save(ctx, "a@x.com", "bob", "hash2")
		assert.ErrorIs(t, err, ErrUserConflict)

		_, err = writeRepo.Save(ctx, "b@x.com", "alice", "hash2")
		assert.ErrorIs(t, err, ErrUserConflict)
	})

	t.Run("Concurrent inserts", func(t *testing.T) {
		const n = 8
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = writeRepo.Save(ctx, "race@x.com", fmt.Sprintf("racer%d", i), "hash")
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, ErrUserConflict)
			}
		}
		assert.Equal(t, 1, succeeded)
	})
}
