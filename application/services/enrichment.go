package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"shajara/application/ports"
	"shajara/domain/tree"
	"shajara/pkg/observability"
)

// EnrichmentController watches the viewport and hydrates the nodes that
// come into view. Ids already enriched or in flight are excluded, the rest
// go out as one batched request per debounce window, and at most one batch
// is in flight at a time: a viewport event arriving mid-flight queues a
// re-check instead of firing an overlapping request.
//
// A failed batch clears its in-flight marks without marking anything
// enriched, so those nodes become retryable on the next qualifying
// viewport change. There is no background retry timer; retry pressure is
// naturally throttled to user activity.
type EnrichmentController struct {
	source     ports.DetailSource
	store      *nodeStore
	logger     *zap.Logger
	metrics    *observability.Metrics
	margin     float64
	debounce   time.Duration
	batchLimit int

	// onMerged receives the applied deltas of each successful batch,
	// outside the controller lock. Used for the websocket push.
	onMerged func([]tree.NodeDetail)

	mu          sync.Mutex
	ctx         context.Context
	latest      tree.Viewport
	hasViewport bool
	timer       *time.Timer
	busy        bool
	pending     bool
	inFlight    map[string]bool
	closed      bool
}

// NewEnrichmentController creates a controller bound to the session store.
func NewEnrichmentController(
	source ports.DetailSource,
	store *nodeStore,
	margin float64,
	debounce time.Duration,
	batchLimit int,
	logger *zap.Logger,
	metrics *observability.Metrics,
	onMerged func([]tree.NodeDetail),
) *EnrichmentController {
	return &EnrichmentController{
		source:     source,
		store:      store,
		logger:     logger,
		metrics:    metrics,
		margin:     margin,
		debounce:   debounce,
		batchLimit: batchLimit,
		onMerged:   onMerged,
		ctx:        context.Background(),
		inFlight:   make(map[string]bool),
	}
}

// Start binds the controller to the session lifetime; cancelling ctx aborts
// any in-flight batch.
func (c *EnrichmentController) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctx = ctx
}

// OnViewport records the latest viewport and (re)arms the debounce window.
func (c *EnrichmentController) OnViewport(v tree.Viewport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.latest = v
	c.hasViewport = true

	if c.timer == nil {
		c.timer = time.AfterFunc(c.debounce, c.fire)
	} else {
		c.timer.Reset(c.debounce)
	}
}

// Resync re-evaluates the last known viewport against the current node
// collection. Called once after layout completes so a viewport that was
// already known at mount triggers the first batch.
func (c *EnrichmentController) Resync() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.hasViewport {
		return
	}
	if c.timer == nil {
		c.timer = time.AfterFunc(c.debounce, c.fire)
	} else {
		c.timer.Reset(c.debounce)
	}
}

// Close stops the debounce timer and rejects further viewport events. Any
// batch already in flight finishes but its merge is rejected by the store
// once the session token moves on.
func (c *EnrichmentController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// fire runs at the trailing edge of the debounce window.
func (c *EnrichmentController) fire() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if c.busy {
		c.pending = true
		return
	}

	ids := c.collectLocked()
	if len(ids) == 0 {
		return
	}

	for _, id := range ids {
		c.inFlight[id] = true
	}
	c.busy = true
	go c.runBatch(c.ctx, ids, c.store.Token())
}

// collectLocked computes the visible un-enriched ids not already in
// flight. Caller holds c.mu.
func (c *EnrichmentController) collectLocked() []string {
	rect := c.latest.ExpandedBy(c.margin)
	candidates := c.store.UnenrichedIn(rect)

	ids := candidates[:0]
	for _, id := range candidates {
		if !c.inFlight[id] {
			ids = append(ids, id)
		}
	}
	if c.batchLimit > 0 && len(ids) > c.batchLimit {
		ids = ids[:c.batchLimit]
	}
	return ids
}

func (c *EnrichmentController) runBatch(ctx context.Context, ids []string, token uint64) {
	details, err := c.source.FetchDetails(ctx, ids)

	var applied []tree.NodeDetail
	if err == nil {
		applied = c.store.MergeDetails(token, details)
	}

	c.mu.Lock()
	for _, id := range ids {
		delete(c.inFlight, id)
	}
	c.busy = false

	if err != nil {
		c.metrics.EnrichmentFailed()
		c.logger.Warn("enrichment batch failed",
			zap.Int("requested", len(ids)),
			zap.Error(err),
		)
	} else {
		c.metrics.EnrichmentBatch(len(applied))
		c.logger.Debug("enrichment batch merged",
			zap.Int("requested", len(ids)),
			zap.Int("applied", len(applied)),
		)
	}

	rearm := c.pending && !c.closed
	c.pending = false
	if rearm {
		if c.timer == nil {
			c.timer = time.AfterFunc(0, c.fire)
		} else {
			c.timer.Reset(0)
		}
	}
	onMerged := c.onMerged
	c.mu.Unlock()

	if onMerged != nil && len(applied) > 0 {
		onMerged(applied)
	}
}
