package config

import "time"

// TreeConfig holds the tunable constants of the tree pipeline.
//
// Geometry constants are fixed per release: the layout is a pure function
// of the structure snapshot and these values, so changing them invalidates
// cached expectations about node positions.
type TreeConfig struct {
	// Node box geometry, in canvas units. Layout always uses the
	// text-only height so that photo hydration never moves nodes.
	NodeWidth       float64
	NodeHeightText  float64
	NodeHeightPhoto float64

	// Spacing between sibling boxes and between generation rows.
	SiblingGap    float64
	GenerationGap float64

	// ViewportMargin is the fraction by which the visible rectangle is
	// expanded before the intersection test, pre-fetching just-offscreen
	// nodes to avoid pop-in.
	ViewportMargin float64

	// EnrichDebounce is the quiet window after a viewport change before a
	// detail batch is issued; continuous panning coalesces into one batch.
	EnrichDebounce time.Duration

	// EnrichBatchLimit caps the number of ids in a single detail request.
	EnrichBatchLimit int
}

// DefaultTreeConfig returns the production constants.
func DefaultTreeConfig() *TreeConfig {
	return &TreeConfig{
		NodeWidth:        90,
		NodeHeightText:   60,
		NodeHeightPhoto:  120,
		SiblingGap:       20,
		GenerationGap:    140,
		ViewportMargin:   0.2,
		EnrichDebounce:   150 * time.Millisecond,
		EnrichBatchLimit: 200,
	}
}
