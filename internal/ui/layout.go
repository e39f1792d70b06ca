package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which source and version
	// columns are dropped from package rows.
	LayoutCompactWidth = 70

	// LayoutWideWidth is the minimum width to show per-row update ages.
	LayoutWideWidth = 110
)

// Raw log pane limits.
const (
	// RawLogLines is the number of trailing log lines shown in the raw pane.
	RawLogLines = 200

	// RawLogMinHeight is the smallest raw pane that is still worth drawing.
	RawLogMinHeight = 4
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second
)
