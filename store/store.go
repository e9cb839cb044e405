package store

import (
	"context"
	"time"
)

/**
 * Marker is the completion record of one stage. WorkDir is the stage's
 * work directory relative to the run work directory, so a marker can be
 * checked against the directory it claims was produced.
 */
type Marker struct {
	WorkDir     string    `json:",omitempty"`
	CompletedAt time.Time `json:",omitempty"`
}

/**
 * Store persists which stages finished, across process runs. It seeds
 * the walker's done set at the start of a run and receives one Set per
 * stage completion.
 */
type Store interface {
	Set(ctx context.Context, stage string, marker *Marker) error
	/**
	 * Get returns the marker for a stage, nil if the stage has no
	 * marker. Absence is not an error.
	 */
	Get(ctx context.Context, stage string) (*Marker, error)
	/**
	 * Remove a stage marker.
	 * removing an unmarked stage would NOT return error
	 */
	Remove(ctx context.Context, stage string) error

	List(ctx context.Context, iterator func(stage string, marker *Marker) bool) error
}
