package services

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"shajara/application/ports"
	"shajara/domain/tree"
	pkgerrors "shajara/pkg/errors"
	"shajara/pkg/observability"
)

// LoadResult is the outcome of a structure load.
type LoadResult struct {
	Structure []tree.PersonRecord
	FromCache bool
}

// StructureLoader fetches the minimal-field structure snapshot, serving it
// from the persisted local cache when the schema version matches and
// falling back to the remote source otherwise.
//
// Concurrent Load calls are collapsed into a single fetch: while one load
// is in flight every other caller waits for its result instead of issuing
// a duplicate round-trip.
type StructureLoader struct {
	source        ports.StructureSource
	cache         ports.StructureCache
	schemaVersion string
	logger        *zap.Logger
	metrics       *observability.Metrics
	group         singleflight.Group
}

// NewStructureLoader creates a structure loader. cache may be nil, in which
// case every load goes to the remote source.
func NewStructureLoader(
	source ports.StructureSource,
	cache ports.StructureCache,
	schemaVersion string,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *StructureLoader {
	return &StructureLoader{
		source:        source,
		cache:         cache,
		schemaVersion: schemaVersion,
		logger:        logger,
		metrics:       metrics,
	}
}

// Load returns the structure snapshot. On a remote failure with no usable
// cache it returns an empty structure together with a network error so the
// downstream stages degrade to an empty tree instead of crashing.
func (l *StructureLoader) Load(ctx context.Context) (LoadResult, error) {
	v, err, _ := l.group.Do(l.schemaVersion, func() (interface{}, error) {
		return l.load(ctx)
	})
	if err != nil {
		return LoadResult{Structure: []tree.PersonRecord{}}, err
	}
	return v.(LoadResult), nil
}

func (l *StructureLoader) load(ctx context.Context) (LoadResult, error) {
	if l.cache != nil {
		records, ok, err := l.cache.Read(ctx, l.schemaVersion)
		if err != nil {
			// Corrupt or unreadable cache is recovered locally by falling
			// through to the network; the user never sees this.
			l.logger.Warn("structure cache read failed",
				zap.String("schemaVersion", l.schemaVersion),
				zap.Error(err),
			)
		}
		if ok {
			l.metrics.CacheHit()
			l.logger.Debug("structure served from cache",
				zap.String("schemaVersion", l.schemaVersion),
				zap.Int("records", len(records)),
			)
			return LoadResult{Structure: records, FromCache: true}, nil
		}
	}
	l.metrics.CacheMiss()

	records, err := l.source.FetchStructure(ctx)
	if err != nil {
		l.metrics.StructureFailed()
		return LoadResult{}, pkgerrors.NewNetworkError("structure fetch failed", err)
	}

	if l.cache != nil {
		// Best effort: a failed cache write never fails the load.
		if err := l.cache.Write(ctx, l.schemaVersion, records); err != nil {
			l.logger.Warn("structure cache write failed",
				zap.String("schemaVersion", l.schemaVersion),
				zap.Error(err),
			)
		}
	}

	l.metrics.StructureLoaded()
	l.logger.Info("structure fetched",
		zap.String("schemaVersion", l.schemaVersion),
		zap.Int("records", len(records)),
	)
	return LoadResult{Structure: records}, nil
}
