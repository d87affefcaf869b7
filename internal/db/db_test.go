package db

import (
	"context"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDatabaseURL returns the live database used by integration tests and
// skips the test when none is configured.
func testDatabaseURL(t *testing.T) string {
	t.Helper()

	url := os.Getenv("COMBATAI_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("COMBATAI_TEST_DATABASE_URL not set")
	}
	return url
}

func TestPgDDLLoader(t *testing.T) {
	stmts := (&PgDDLLoader{}).LoadDDL()
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS "+BattleListTable)
	assert.Contains(t, stmts[0], "owner      TEXT PRIMARY KEY")
}

func TestNewHDb_UnknownDriver(t *testing.T) {
	_, err := NewHDb("no-such-driver", "whatever")
	assert.Error(t, err)
}

func TestHDb_EnsureSchema(t *testing.T) {
	hdb, err := NewHDb("postgres", testDatabaseURL(t))
	require.NoError(t, err)
	defer hdb.Close()

	ctx := context.Background()
	require.NoError(t, hdb.EnsureSchema(ctx))
	// Applying twice is harmless.
	require.NoError(t, hdb.EnsureSchema(ctx))

	var exists bool
	err = hdb.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, BattleListTable)
	require.NoError(t, err)
	assert.True(t, exists)
}
