package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shajara/application/ports"
	"shajara/domain/config"
	"shajara/domain/tree"
	pkgerrors "shajara/pkg/errors"
	"shajara/pkg/observability"
)

// TreeSnapshot is the presentation contract: positioned nodes, derived
// connections, and the structure-phase loading/error state. Layout and
// enrichment never block it; enrichment failures never appear here.
type TreeSnapshot struct {
	Nodes       []tree.EnrichedNode
	Connections []tree.ConnectionEdge
	IsLoading   bool
	NetworkErr  error
}

// TreeSession composes the pipeline: one structure load, one layout pass
// per snapshot, then continuous viewport-driven enrichment. It owns the
// canonical node collection; the loader and layout engine are pure with
// respect to it and the controller merges only through the store.
type TreeSession struct {
	id      string
	loader  *StructureLoader
	details ports.DetailSource
	layout  *tree.LayoutEngine
	ctrl    *EnrichmentController
	store   *nodeStore
	cfg     *config.TreeConfig
	logger  *zap.Logger
	metrics *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	// generation is the monotonically increasing session token; the store
	// rejects merges carrying a superseded value.
	generation atomic.Uint64

	mu         sync.Mutex
	isLoading  bool
	networkErr error
}

// NewTreeSession wires a session. onMerged, when non-nil, receives the
// applied deltas of each enrichment batch (used for the websocket push).
func NewTreeSession(
	loader *StructureLoader,
	details ports.DetailSource,
	cfg *config.TreeConfig,
	logger *zap.Logger,
	metrics *observability.Metrics,
	onMerged func([]tree.NodeDetail),
) *TreeSession {
	if cfg == nil {
		cfg = config.DefaultTreeConfig()
	}
	store := newNodeStore()
	id := uuid.New().String()
	return &TreeSession{
		id:      id,
		loader:  loader,
		details: details,
		layout:  tree.NewLayoutEngine(cfg),
		store:   store,
		cfg:     cfg,
		logger:  logger.With(zap.String("sessionID", id)),
		metrics: metrics,
		ctrl: NewEnrichmentController(
			details, store,
			cfg.ViewportMargin, cfg.EnrichDebounce, cfg.EnrichBatchLimit,
			logger, metrics, onMerged,
		),
	}
}

// ID returns the session identifier.
func (s *TreeSession) ID() string {
	return s.id
}

// Start launches the load -> layout -> enrichment pipeline and returns
// immediately; progress is observed through Snapshot.
func (s *TreeSession) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.ctrl.Start(s.ctx)

	s.mu.Lock()
	s.isLoading = true
	s.networkErr = nil
	s.mu.Unlock()

	go s.run(s.generation.Add(1))
}

// Reload re-runs the structure phase with a fresh session token. The
// previous collection keeps serving snapshots until the new layout lands;
// late merges against it are rejected once the token moves.
func (s *TreeSession) Reload() {
	s.mu.Lock()
	s.isLoading = true
	s.networkErr = nil
	s.mu.Unlock()

	go s.run(s.generation.Add(1))
}

func (s *TreeSession) run(token uint64) {
	result, err := s.loader.Load(s.ctx)

	if s.ctx.Err() != nil {
		return
	}
	if token != s.generation.Load() {
		// A newer load superseded this one before it resolved.
		return
	}

	s.mu.Lock()
	s.isLoading = false
	s.networkErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("structure load failed; presenting empty tree", zap.Error(err))
		s.store.Reset(token, tree.LayoutResult{
			Nodes:       []tree.LayoutNode{},
			Connections: []tree.ConnectionEdge{},
		})
		return
	}

	// Layout runs exactly once per structure snapshot, always with the
	// text-only sizing so later photo hydration cannot move nodes.
	started := time.Now()
	layout := s.layout.Compute(result.Structure, false)
	s.metrics.ObserveLayout(time.Since(started))
	for _, diag := range layout.Diagnostics {
		s.logger.Warn("layout invariant repaired", zap.Error(diag))
	}

	s.store.Reset(token, layout)
	s.logger.Info("tree laid out",
		zap.Int("nodes", len(layout.Nodes)),
		zap.Int("connections", len(layout.Connections)),
		zap.Bool("fromCache", result.FromCache),
		zap.Duration("layoutTime", time.Since(started)),
	)

	// If the presentation layer already supplied a viewport, hydrate the
	// visible region right away.
	s.ctrl.Resync()
}

// SetViewport feeds the live viewport into the enrichment controller.
func (s *TreeSession) SetViewport(v tree.Viewport) {
	s.ctrl.OnViewport(v)
}

// Snapshot returns the current presentation state.
func (s *TreeSession) Snapshot() TreeSnapshot {
	nodes, connections := s.store.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	return TreeSnapshot{
		Nodes:       nodes,
		Connections: connections,
		IsLoading:   s.isLoading,
		NetworkErr:  s.networkErr,
	}
}

// Node returns one node by id.
func (s *TreeSession) Node(id string) (tree.EnrichedNode, error) {
	n, ok := s.store.Get(id)
	if !ok {
		return tree.EnrichedNode{}, pkgerrors.NewNotFoundError("person")
	}
	return n, nil
}

// Search matches loaded nodes by name.
func (s *TreeSession) Search(query string, limit int) []tree.EnrichedNode {
	return s.store.Search(query, limit)
}

// EnsureEditable returns the node with its optimistic-locking version
// populated, re-enriching on demand when the version is missing. Edits are
// unsafe without it.
func (s *TreeSession) EnsureEditable(ctx context.Context, id string) (tree.EnrichedNode, error) {
	n, ok := s.store.Get(id)
	if !ok {
		return tree.EnrichedNode{}, pkgerrors.NewNotFoundError("person")
	}
	if n.Editable() {
		return n, nil
	}

	details, err := s.details.FetchDetails(ctx, []string{id})
	if err != nil {
		return tree.EnrichedNode{}, pkgerrors.NewEnrichmentError("detail fetch failed", err)
	}
	s.store.MergeDetails(s.store.Token(), details)

	n, ok = s.store.Get(id)
	if !ok || !n.Editable() {
		return tree.EnrichedNode{}, pkgerrors.NewInternalError("profile has no version counter")
	}
	return n, nil
}

// UpdateProfile applies a profile edit through the remote compare-and-swap
// and merges the confirmed detail record back into the collection.
func (s *TreeSession) UpdateProfile(ctx context.Context, id string, expectedVersion int64, update tree.ProfileUpdate) (tree.EnrichedNode, error) {
	n, err := s.EnsureEditable(ctx, id)
	if err != nil {
		return tree.EnrichedNode{}, err
	}
	if err := n.ValidateForEdit(expectedVersion); err != nil {
		return tree.EnrichedNode{}, err
	}

	detail, err := s.details.UpdateProfile(ctx, id, expectedVersion, update)
	if err != nil {
		return tree.EnrichedNode{}, err
	}
	s.store.MergeDetails(s.store.Token(), []tree.NodeDetail{detail})

	n, _ = s.store.Get(id)
	return n, nil
}

// Close aborts in-flight work and prevents late responses from mutating
// the collection.
func (s *TreeSession) Close() {
	s.generation.Add(1)
	s.store.Revoke() // outstanding merges become no-ops
	s.ctrl.Close()
	if s.cancel != nil {
		s.cancel()
	}
}
