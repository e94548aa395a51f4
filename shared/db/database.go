package db

import (
	"context"
	"database/sql"
)

// Database is a connection that applies its own schema on Connect.
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	DB() *sql.DB
}
