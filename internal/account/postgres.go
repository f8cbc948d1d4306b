package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the account tables. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id         UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS account_characters (
	account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	data_id    TEXT NOT NULL,
	lives      INTEGER NOT NULL,
	PRIMARY KEY (account_id, data_id)
);

CREATE TABLE IF NOT EXISTS account_demons (
	account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	data_id    TEXT NOT NULL,
	lives      INTEGER NOT NULL,
	PRIMARY KEY (account_id, data_id)
);
`

const (
	charactersTable = "account_characters"
	demonsTable     = "account_demons"
)

// PostgresRepository stores accounts in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Connect opens a pool for databaseURL and checks the connection.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Migrate applies Schema.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply account schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateAccount(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if _, err := r.pool.Exec(ctx, `INSERT INTO accounts (id) VALUES ($1)`, id); err != nil {
		return "", fmt.Errorf("failed to create account: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) AddCharacter(ctx context.Context, accountID, dataID string) (int, error) {
	return r.grant(ctx, charactersTable, accountID, dataID)
}

func (r *PostgresRepository) AddDemon(ctx context.Context, accountID, dataID string) (int, error) {
	return r.grant(ctx, demonsTable, accountID, dataID)
}

func (r *PostgresRepository) grant(ctx context.Context, table, accountID, dataID string) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := requireAccount(ctx, tx, accountID); err != nil {
		return 0, err
	}

	var lives int
	err = tx.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %[1]s (account_id, data_id, lives) VALUES ($1, $2, 1)
		ON CONFLICT (account_id, data_id) DO UPDATE SET lives = %[1]s.lives + 1
		RETURNING lives`, table), accountID, dataID).Scan(&lives)
	if err != nil {
		return 0, fmt.Errorf("failed to grant %s to %s: %w", dataID, accountID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit grant: %w", err)
	}
	return lives, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, accountID string) (bool, error) {
	if uuid.Validate(accountID) != nil {
		return false, nil
	}
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up account: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) HasCharacter(ctx context.Context, accountID, dataID string) (bool, error) {
	return r.owns(ctx, charactersTable, accountID, dataID)
}

func (r *PostgresRepository) HasDemon(ctx context.Context, accountID, dataID string) (bool, error) {
	return r.owns(ctx, demonsTable, accountID, dataID)
}

func (r *PostgresRepository) owns(ctx context.Context, table, accountID, dataID string) (bool, error) {
	if err := requireAccount(ctx, r.pool, accountID); err != nil {
		return false, err
	}
	var owned bool
	err := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE account_id = $1 AND data_id = $2)`, table),
		accountID, dataID,
	).Scan(&owned)
	if err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", dataID, err)
	}
	return owned, nil
}

func (r *PostgresRepository) Snapshot(ctx context.Context, accountID string) (Snapshot, error) {
	if err := requireAccount(ctx, r.pool, accountID); err != nil {
		return Snapshot{}, err
	}
	characters, err := r.lives(ctx, charactersTable, accountID)
	if err != nil {
		return Snapshot{}, err
	}
	demons, err := r.lives(ctx, demonsTable, accountID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{ID: accountID, Characters: characters, Demons: demons}, nil
}

func (r *PostgresRepository) lives(ctx context.Context, table, accountID string) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT data_id, lives FROM %s WHERE account_id = $1`, table), accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var dataID string
		var lives int
		if err := rows.Scan(&dataID, &lives); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		out[dataID] = lives
	}
	return out, rows.Err()
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func requireAccount(ctx context.Context, q querier, accountID string) error {
	if uuid.Validate(accountID) != nil {
		return fmt.Errorf("%w: %s", ErrNoSuchAccount, accountID)
	}
	var id string
	err := q.QueryRow(ctx, `SELECT id::text FROM accounts WHERE id = $1`, accountID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNoSuchAccount, accountID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}
	return nil
}
