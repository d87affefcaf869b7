package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const BattlesBucket = "battles"

var ErrBattlesBucketNotFound = errors.New("battles bucket doesn't exist")

type BoltRepository struct {
	DB *bolt.DB
}

func NewBoltRepository(dbPath string) (*BoltRepository, error) {
	err := os.MkdirAll(filepath.Dir(dbPath), 0750)
	if err != nil {
		return nil, fmt.Errorf("failed to create database path: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BattlesBucket))
		if err != nil {
			return fmt.Errorf("failed to create %s bucket: %w", BattlesBucket, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database buckets: %w", err)
	}

	return &BoltRepository{DB: db}, nil
}

func (r *BoltRepository) Update(ctx context.Context, owner string, fn UpdateFunc) ([]Fight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result []Fight
	err := r.DB.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(BattlesBucket))
		if bucket == nil {
			return ErrBattlesBucketNotFound
		}

		battles := decodeBattles(owner, bucket.Get([]byte(owner)))

		next, err := fn(battles)
		if err != nil {
			return err
		}

		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode battles: %w", err)
		}
		if err := bucket.Put([]byte(owner), data); err != nil {
			return fmt.Errorf("store battles: %w", err)
		}

		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *BoltRepository) Close() error {
	//nolint:wrapcheck
	return r.DB.Close()
}

// decodeBattles treats an unreadable stored list as missing so that Hydrate
// replaces it.
func decodeBattles(owner string, data []byte) []Fight {
	if len(data) == 0 {
		return nil
	}

	var battles []Fight
	if err := json.Unmarshal(data, &battles); err != nil {
		slog.Warn("discarding unreadable battle list", "owner", owner, "error", err)
		return nil
	}
	return battles
}
