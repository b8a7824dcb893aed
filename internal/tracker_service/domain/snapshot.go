package domain

import "time"

// SnapshotVersion is the format version written by exports and accepted by
// imports.
const SnapshotVersion = 1

// Snapshot is a full export of all entities and usage records, replayable
// through the bulk merge.
type Snapshot struct {
	Version    int          `json:"version"`
	ExportedAt time.Time    `json:"exported_at"`
	Data       SnapshotData `json:"data"`
}

// SnapshotData carries the entity lists. Each element is the entity's full
// field set as returned by the corresponding GET endpoint.
type SnapshotData struct {
	Operators []*Operator `json:"operators"`
	Services  []*Service  `json:"services"`
	Phones    []*Phone    `json:"phones"`
	Usage     []*Usage    `json:"usage"`
}

// MergeCounts aggregates per-entity-kind outcomes of a snapshot merge.
type MergeCounts struct {
	Created          int64 `json:"created"`
	SkippedDuplicate int64 `json:"skipped_duplicate"`
	FailedValidation int64 `json:"failed_validation"`
}

// MergeReport is the result of a best-effort snapshot import. The merge is
// explicitly non-atomic: per-record failures are counted, not propagated.
type MergeReport struct {
	Operators MergeCounts `json:"operators"`
	Services  MergeCounts `json:"services"`
	Phones    MergeCounts `json:"phones"`
	Usage     MergeCounts `json:"usage"`
}
