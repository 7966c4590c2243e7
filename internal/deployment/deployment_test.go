package deployment

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickertool/ticker-tool/internal/storage"
)

func newStore(t *testing.T) (*Store, storage.Store) {
	t.Helper()
	kv, err := storage.OpenFile(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)
	return NewStore(kv), kv
}

func TestKey(t *testing.T) {
	assert.Equal(t, "deployed_To_11155111", Key(11155111))
}

func TestSaveOverwritesAndLoads(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	_, ok, err := s.Load(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, 1, Record{Deployer: "0xa", Contract: "0x1"}))
	require.NoError(t, s.Save(ctx, 1, Record{Deployer: "0xa", Contract: "0x2", DeployedAt: time.Unix(1700000000, 0).UTC()}))

	r, ok, err := s.Load(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0x2", r.Contract)
	assert.Equal(t, "1", r.Network)
	assert.True(t, r.DeployedAt.Equal(time.Unix(1700000000, 0)), r.DeployedAt.String())

	_, ok, err = s.Load(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Clear(ctx, 1))
	_, ok, _ = s.Load(ctx, 1)
	assert.False(t, ok)
}

func TestRecordAlwaysCarriesDeployedAt(t *testing.T) {
	ctx := context.Background()
	s, kv := newStore(t)

	require.NoError(t, s.Save(ctx, 3, Record{Deployer: "0xa", Contract: "0x3"}))
	raw, ok, err := kv.Get(ctx, Key(3))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"deployedAt":"0001-01-01T00:00:00Z"`)

	r, ok, err := s.Load(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, r.DeployedAt.IsZero())
}

func TestMalformedRecordIsAbsent(t *testing.T) {
	ctx := context.Background()
	s, kv := newStore(t)

	require.NoError(t, kv.Set(ctx, Key(5), "not-json"))
	_, ok, err := s.Load(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, Key(6), `{"deployer":"0xa"}`))
	_, ok, err = s.Load(ctx, 6)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, s.Save(ctx, 7, Record{}))
}
