package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shajara/domain/tree"
	"shajara/infrastructure/persistence/memory"
	pkgerrors "shajara/pkg/errors"
)

func testStructure() []tree.PersonRecord {
	return []tree.PersonRecord{
		{ID: "a", Name: "Person a", Generation: 1},
		{ID: "b", FatherID: "a", Name: "Person b", SiblingOrder: 1, Generation: 2},
		{ID: "c", FatherID: "a", Name: "Person c", SiblingOrder: 2, Generation: 2},
	}
}

func TestStructureLoader_Load_CacheHit(t *testing.T) {
	source := memory.NewStructureSource(testStructure())
	cache := memory.NewStructureCache()
	cache.Seed("v4", testStructure())
	loader := NewStructureLoader(source, cache, "v4", zap.NewNop(), nil)

	result, err := loader.Load(context.Background())

	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Len(t, result.Structure, 3)
	assert.Equal(t, 0, source.Fetches(), "cache hit must not touch the network")
}

func TestStructureLoader_Load_CacheMissFetchesAndWrites(t *testing.T) {
	source := memory.NewStructureSource(testStructure())
	cache := memory.NewStructureCache()
	loader := NewStructureLoader(source, cache, "v4", zap.NewNop(), nil)

	result, err := loader.Load(context.Background())

	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Len(t, result.Structure, 3)
	assert.Equal(t, 1, source.Fetches())
	assert.Equal(t, "v4", cache.Version(), "fetched snapshot is persisted")
}

func TestStructureLoader_Load_SchemaBumpInvalidatesCache(t *testing.T) {
	source := memory.NewStructureSource(testStructure())
	cache := memory.NewStructureCache()
	cache.Seed("v3", testStructure())
	loader := NewStructureLoader(source, cache, "v4", zap.NewNop(), nil)

	result, err := loader.Load(context.Background())

	require.NoError(t, err)
	assert.False(t, result.FromCache, "stale schema version is a miss")
	assert.Equal(t, 1, source.Fetches())
	assert.Equal(t, "v4", cache.Version())
}

func TestStructureLoader_Load_CacheReadErrorFallsThrough(t *testing.T) {
	source := memory.NewStructureSource(testStructure())
	cache := memory.NewStructureCache()
	cache.Seed("v4", testStructure())
	cache.ReadErr = errors.New("disk corrupt")
	loader := NewStructureLoader(source, cache, "v4", zap.NewNop(), nil)

	result, err := loader.Load(context.Background())

	require.NoError(t, err, "cache corruption is recovered via the network")
	assert.False(t, result.FromCache)
	assert.Len(t, result.Structure, 3)
	assert.Equal(t, 1, source.Fetches())
}

func TestStructureLoader_Load_CacheWriteErrorDoesNotFailLoad(t *testing.T) {
	source := memory.NewStructureSource(testStructure())
	cache := memory.NewStructureCache()
	cache.WriteErr = errors.New("disk full")
	loader := NewStructureLoader(source, cache, "v4", zap.NewNop(), nil)

	result, err := loader.Load(context.Background())

	require.NoError(t, err)
	assert.Len(t, result.Structure, 3)
}

func TestStructureLoader_Load_NetworkFailureReturnsEmptyStructure(t *testing.T) {
	source := memory.NewStructureSource(nil)
	source.Err = errors.New("connection refused")
	loader := NewStructureLoader(source, memory.NewStructureCache(), "v4", zap.NewNop(), nil)

	result, err := loader.Load(context.Background())

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNetwork(err))
	assert.NotNil(t, result.Structure)
	assert.Empty(t, result.Structure)
}

func TestStructureLoader_Load_NilCacheGoesStraightToSource(t *testing.T) {
	source := memory.NewStructureSource(testStructure())
	loader := NewStructureLoader(source, nil, "v4", zap.NewNop(), nil)

	result, err := loader.Load(context.Background())

	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, 1, source.Fetches())
}

func TestStructureLoader_Load_ConcurrentLoadsCollapse(t *testing.T) {
	source := memory.NewStructureSource(testStructure())
	source.Delay = make(chan struct{})
	loader := NewStructureLoader(source, nil, "v4", zap.NewNop(), nil)

	const callers = 8
	var started, wg sync.WaitGroup
	results := make([]LoadResult, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		started.Add(1)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			results[i], errs[i] = loader.Load(context.Background())
		}(i)
	}

	// Let every caller join the in-flight load before releasing it.
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(source.Delay)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Len(t, results[i].Structure, 3)
	}
	assert.Equal(t, 1, source.Fetches(), "concurrent loads share one fetch")
}
