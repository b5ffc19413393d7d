package weft

import "errors"

// Sentinel errors for the pipeline. Frame-fatal errors abort the current
// frame and leave the previously committed tree and the terminal's last
// applied frame intact.
var (
	// ErrTreeTooDeep is returned when widget nesting exceeds the fatal
	// depth threshold. The frame is discarded; no partial commit happens.
	ErrTreeTooDeep = errors.New("widget tree too deep")

	// ErrUnknownWidgetKind is returned when a description carries a kind
	// the pipeline has no layout or paint rule for. Caught before any
	// instance is mutated.
	ErrUnknownWidgetKind = errors.New("unknown widget kind")
)

// Default depth guard thresholds. Every pipeline stage recurses over the
// same tree shape, so the guard runs once, up front, on the description
// tree.
const (
	DefaultWarnDepth  = 200
	DefaultFatalDepth = 500
)
