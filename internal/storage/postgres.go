package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/andyleap/finchconnect/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createConnectionsTable = `
CREATE TABLE IF NOT EXISTS finch_connections (
	slot         SMALLINT PRIMARY KEY DEFAULT 1 CHECK (slot = 1),
	id           UUID NOT NULL,
	access_token TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
)`

type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage connects and makes sure the connections table exists
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createConnectionsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create connections table: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

func (p *PostgresStorage) Close() {
	p.pool.Close()
}

func (p *PostgresStorage) SetConnectionToken(ctx context.Context, token string) error {
	conn := newConnection(token)
	_, err := p.pool.Exec(ctx, `
INSERT INTO finch_connections (slot, id, access_token, created_at)
VALUES (1, $1, $2, $3)
ON CONFLICT (slot) DO UPDATE
SET id = EXCLUDED.id, access_token = EXCLUDED.access_token, created_at = EXCLUDED.created_at`,
		conn.ID, conn.AccessToken, conn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save connection: %w", err)
	}
	return nil
}

func (p *PostgresStorage) GetConnection(ctx context.Context) (*models.Connection, error) {
	var conn models.Connection
	err := p.pool.QueryRow(ctx,
		`SELECT id::text, access_token, created_at FROM finch_connections WHERE slot = 1`,
	).Scan(&conn.ID, &conn.AccessToken, &conn.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return &conn, nil
}
