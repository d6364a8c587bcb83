package tree

// PersonRecord holds the minimal per-person fields fetched during the
// structure phase. This is everything the layout engine needs; detail
// fields (photo, bio, version) arrive later through enrichment.
type PersonRecord struct {
	ID string `json:"id"`

	// FatherID is the father-line parent used for layout placement.
	// MotherID is the mother-line parent, used as a fallback when the
	// father-line reference does not resolve. Empty means no parent.
	FatherID string `json:"father_id,omitempty"`
	MotherID string `json:"mother_id,omitempty"`

	// Name is rendered on the text-only tree and powers search.
	Name string `json:"name"`

	// SiblingOrder orders children under the same parent, ascending.
	SiblingOrder int `json:"sibling_order"`

	// Generation is a depth hint from the source (root = 1). Layout
	// computes its own depth; this survives as a cross-check field.
	Generation int `json:"generation"`

	// HID is the hierarchical identifier from the source system and
	// Munasib marks married-in persons. Both are opaque to the pipeline.
	HID     string `json:"hid,omitempty"`
	Munasib bool   `json:"munasib,omitempty"`
}

// IsRoot reports whether the record carries no parent reference at all.
// Records whose references do not resolve within a snapshot are also
// treated as roots, but that is the layout engine's call.
func (p PersonRecord) IsRoot() bool {
	return p.FatherID == "" && p.MotherID == ""
}
