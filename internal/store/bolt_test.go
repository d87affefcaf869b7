package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func newBoltRepository(t *testing.T) *BoltRepository {
	t.Helper()

	repo, err := NewBoltRepository(filepath.Join(t.TempDir(), "data", "combatai.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestBoltRepository_Update(t *testing.T) {
	repo := newBoltRepository(t)
	ctx := context.Background()

	got, err := repo.Update(ctx, "owner-1", func(battles []Fight) ([]Fight, error) {
		assert.Nil(t, battles)
		return []Fight{answered("a")}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(got))

	_, err = repo.Update(ctx, "owner-1", func(battles []Fight) ([]Fight, error) {
		assert.Equal(t, []Fight{answered("a")}, battles)
		return battles, nil
	})
	require.NoError(t, err)

	_, err = repo.Update(ctx, "owner-2", func(battles []Fight) ([]Fight, error) {
		assert.Nil(t, battles, "lists are per owner")
		return battles, nil
	})
	require.NoError(t, err)
}

func TestBoltRepository_UpdateErrorKeepsList(t *testing.T) {
	repo := newBoltRepository(t)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := repo.Update(ctx, "owner", func([]Fight) ([]Fight, error) { return []Fight{answered("a")}, nil })
	require.NoError(t, err)

	_, err = repo.Update(ctx, "owner", func([]Fight) ([]Fight, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, err = repo.Update(ctx, "owner", func(battles []Fight) ([]Fight, error) {
		assert.Equal(t, []string{"a"}, ids(battles))
		return battles, nil
	})
	require.NoError(t, err)
}

func TestBoltRepository_UnreadableListIsReset(t *testing.T) {
	repo := newBoltRepository(t)

	err := repo.DB.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BattlesBucket)).Put([]byte("owner"), []byte("{not json"))
	})
	require.NoError(t, err)

	got, err := NewService(repo).Load(context.Background(), "owner")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Response)
}

func TestBoltRepository_CanceledContext(t *testing.T) {
	repo := newBoltRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Update(ctx, "owner", func(battles []Fight) ([]Fight, error) {
		t.Fatal("fn must not run")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_ConcurrentUpdatesAreSerialised(t *testing.T) {
	svc := NewService(newBoltRepository(t))
	ctx := context.Background()

	first, err := svc.Load(ctx, "owner")
	require.NoError(t, err)
	id := first[0].ID

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SetBattle(ctx, "owner", id, Patch{Response: ptr("winner: opponent1. reason: r")})
			assert.NoError(t, err)
			_, err = svc.PushEmpty(ctx, "owner")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.Load(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, id, got[0].ID)
	assert.Empty(t, got[1].Response)
}
