package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Postgres stores documents in the user_documents table as JSONB.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Load(ctx context.Context, owner, key string) ([]byte, error) {
	var value []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM user_documents WHERE owner = $1 AND doc_key = $2`,
		owner, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select document: %w", err)
	}
	return value, nil
}

func (p *Postgres) Save(ctx context.Context, owner, key string, value []byte) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO user_documents (owner, doc_key, value, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (owner, doc_key) DO UPDATE SET
		    value = EXCLUDED.value,
		    updated_at = NOW()`,
		owner, key, string(value),
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}
