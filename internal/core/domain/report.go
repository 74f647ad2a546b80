package domain

import "time"

// UnprocessedDocument records an invoice that could not be processed at all
// (unreadable content). It is excluded from verdict rows but listed on the
// report so the batch keeps going.
type UnprocessedDocument struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Reason     string `json:"reason"`
}

type ReportSummary struct {
	Total         int `json:"total"`
	Compliant     int `json:"compliant"`
	Flagged       int `json:"flagged"`
	LowConfidence int `json:"low_confidence"`
	Unprocessed   int `json:"unprocessed"`
}

// ComplianceReport is the batch result snapshot: verdicts in submission order,
// built once and never mutated afterwards.
type ComplianceReport struct {
	BatchID     string                `json:"batch_id"`
	Verdicts    []Verdict             `json:"verdicts"`
	Unprocessed []UnprocessedDocument `json:"unprocessed,omitempty"`
	Summary     ReportSummary         `json:"summary"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// BatchRef identifies an archived report.
type BatchRef struct {
	BatchID     string    `json:"batch_id"`
	GeneratedAt time.Time `json:"generated_at"`
}
