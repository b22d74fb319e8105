package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// querier is implemented by both *sqlx.DB and *sqlx.Conn.
type querier interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// contextKey is an unexported type for keys in context
type contextKey struct{}

var connKey = contextKey{}

// WithConn stores a request-scoped connection in the context.
func WithConn(ctx context.Context, conn *sqlx.Conn) context.Context {
	return context.WithValue(ctx, connKey, conn)
}

// ConnFromContext retrieves the connection from the context. Returns nil if not present.
func ConnFromContext(ctx context.Context) *sqlx.Conn {
	conn, _ := ctx.Value(connKey).(*sqlx.Conn)
	return conn
}

// pick returns the request-scoped connection if one is set, otherwise the pool.
func pick(ctx context.Context, db *sqlx.DB) querier {
	if conn := ConnFromContext(ctx); conn != nil {
		return conn
	}
	return db
}
