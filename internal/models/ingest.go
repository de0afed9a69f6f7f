package models

import "time"

// IngestReport summarizes one ingestion batch run. The latest report is
// persisted to the system KV store for the status endpoint.
type IngestReport struct {
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
	Status        string    `json:"status"` // "ok", "failed", "empty"
	Error         string    `json:"error,omitempty"`
	FetchedBytes  int       `json:"fetched_bytes"`
	SampledLines  int       `json:"sampled_lines"`
	Conformity    float64   `json:"conformity"`
	ParsedRecords int       `json:"parsed_records"`
	DroppedLines  int       `json:"dropped_lines"`
	Funds         int       `json:"funds"`
	Upserts       int       `json:"upserts"`
	ArchiveKey    string    `json:"archive_key,omitempty"`
	DurationMS    int64     `json:"duration_ms"`
}
