// internal/storage/strategy/store_test.go
package strategy

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/ats/internal/core"
)

func sampleConfig(symbol string) core.StrategyConfig {
	return core.StrategyConfig{
		StrategySymbol:   symbol,
		Name:             "Monthly Trendfilter",
		Description:      "10M/50M trend filter",
		InstrumentSymbol: "IUSQ",
		Exchange:         "SMART",
		Currency:         "EUR",
		TargetWeight:     30,
		MinWeight:        25,
		MaxWeight:        35,
	}
}

// exerciseStore runs the CRUD contract every Store implementation must meet.
func exerciseStore(t *testing.T, store Store, prefix string) {
	ctx := context.Background()
	a, b := prefix+"A", prefix+"B"

	_, err := store.Get(ctx, a)
	assert.ErrorIs(t, err, core.ErrConfigNotFound)

	require.NoError(t, store.Put(ctx, sampleConfig(b)))
	require.NoError(t, store.Put(ctx, sampleConfig(a)))

	got, err := store.Get(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, sampleConfig(a), got)

	updated := sampleConfig(a)
	updated.TargetWeight = 32
	updated.Description = ""
	require.NoError(t, store.Put(ctx, updated))
	got, err = store.Get(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 32.0, got.TargetWeight)
	assert.Empty(t, got.Description)

	invalid := sampleConfig(a)
	invalid.MinWeight = 40
	assert.ErrorIs(t, store.Put(ctx, invalid), core.ErrConfigInvalid)

	all, err := store.List(ctx)
	require.NoError(t, err)
	var mine []string
	for _, cfg := range all {
		if cfg.StrategySymbol == a || cfg.StrategySymbol == b {
			mine = append(mine, cfg.StrategySymbol)
		}
	}
	assert.Equal(t, []string{a, b}, mine)

	require.NoError(t, store.Delete(ctx, a))
	_, err = store.Get(ctx, a)
	assert.ErrorIs(t, err, core.ErrConfigNotFound)
	assert.ErrorIs(t, store.Delete(ctx, a), core.ErrConfigNotFound)

	require.NoError(t, store.Delete(ctx, b))
}

func TestMemoryStore_CRUD(t *testing.T) {
	store, err := NewMemoryStore()
	require.NoError(t, err)

	exerciseStore(t, store, "S")
}

func TestMemoryStore_Seeded(t *testing.T) {
	store, err := NewMemoryStore(sampleConfig("S1"), sampleConfig("S2"))
	require.NoError(t, err)

	all, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryStore_SeedRejectsBadConfigs(t *testing.T) {
	_, err := NewMemoryStore(sampleConfig("S1"), sampleConfig("S1"))
	assert.ErrorIs(t, err, core.ErrConfigInvalid)

	missing := sampleConfig("S1")
	missing.InstrumentSymbol = ""
	_, err = NewMemoryStore(missing)
	assert.ErrorIs(t, err, core.ErrConfigMissing)
}

// TestPostgresStore_CRUD needs a reachable database in ATS_TEST_DATABASE_URL.
func TestPostgresStore_CRUD(t *testing.T) {
	url := os.Getenv("ATS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("ATS_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := Connect(ctx, url, 2)
	require.NoError(t, err)
	defer pool.Close()

	store := NewPostgresStore(pool)
	require.NoError(t, store.Migrate(ctx))

	exerciseStore(t, store, "ATS_TEST_")
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://%zz", 1)
	assert.Error(t, err)
}
