package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ddlLoaders = make(map[string]DDLLoader)

type HDb struct {
	*sqlx.DB
	DDLLoader
}

func NewHDb(driverName, dataSourceUrl string) (*HDb, error) {
	db, err := sqlx.Connect(driverName, dataSourceUrl)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driverName, err)
	}

	ddlLoader, ok := ddlLoaders[driverName]
	if !ok {
		_ = db.Close()
		return nil, fmt.Errorf("no schema registered for driver %q", driverName)
	}

	return &HDb{db, ddlLoader}, nil
}

// EnsureSchema creates the tables the service needs if they are missing.
func (hdb *HDb) EnsureSchema(ctx context.Context) error {
	for _, stmt := range hdb.DDLLoader.LoadDDL() {
		if _, err := hdb.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

type DDLLoader interface {
	LoadDDL() []string
}
