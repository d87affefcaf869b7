package store

import (
	"context"
	"encoding/json"
	"fmt"

	"combatai/internal/db"
)

type PostgresRepository struct {
	db *db.HDb
}

func NewPostgresRepository(db *db.HDb) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Update(ctx context.Context, owner string, fn UpdateFunc) ([]Fight, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Make sure there is a row to lock for owners seen for the first time.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO battle_list (owner) VALUES ($1) ON CONFLICT (owner) DO NOTHING`, owner)
	if err != nil {
		return nil, fmt.Errorf("create battle list: %w", err)
	}

	var raw []byte
	err = tx.GetContext(ctx, &raw, `SELECT battles FROM battle_list WHERE owner = $1 FOR UPDATE`, owner)
	if err != nil {
		return nil, fmt.Errorf("load battle list: %w", err)
	}

	next, err := fn(decodeBattles(owner, raw))
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("encode battles: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE battle_list SET battles = $2, updated_at = now() WHERE owner = $1`, owner, string(data))
	if err != nil {
		return nil, fmt.Errorf("store battle list: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit battle list: %w", err)
	}
	return next, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
