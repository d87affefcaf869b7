package db

type PgDDLLoader struct {
}

func init() {
	ddlLoaders["postgres"] = &PgDDLLoader{} // lib/pq has no exported driver name constant
}

const BattleListTable = "battle_list"

func (d *PgDDLLoader) LoadDDL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS battle_list (
	owner      TEXT PRIMARY KEY,
	battles    JSONB NOT NULL DEFAULT '[]'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	}
}
