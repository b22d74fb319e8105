package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgresContainer(t *testing.T) (*sql.DB, func()) {
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

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err)

	teardown := func() {
		db.Close()
		container.Terminate(context.Background())
	}

	return db, teardown
}

func TestMigrations_Embedded(t *testing.T) {
	entries, err := Migrations.ReadDir(".")
	assert.NoError(t, err)
	assert.NotEmpty(t, entries)

	body, err := Migrations.ReadFile("00001_create_users.sql")
	assert.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS users")
}

func TestUp_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	db, teardown := setupPostgresContainer(t)
	defer teardown()

	ctx := context.Background()

	assert.NoError(t, Up(ctx, db))
	// Second run must not fail on an initialized database
	assert.NoError(t, Up(ctx, db))

	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.columns WHERE table_name = 'users'`,
	).Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 5, count)

	_, err = db.ExecContext(ctx,
		`INSERT INTO users (email, username, password_hash) VALUES ('a@x.com', 'alice', 'h')`)
	assert.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO users (email, username, password_hash) VALUES ('a@x.com', 'bob', 'h')`)
	assert.Error(t, err, "email must be unique")

	_, err = db.ExecContext(ctx,
		`INSERT INTO users (email, username, password_hash) VALUES ('b@x.com', 'alice', 'h')`)
	assert.Error(t, err, "username must be unique")
}
