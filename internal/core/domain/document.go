package domain

import "time"

type DocumentFormat string

const (
	FormatPDF  DocumentFormat = "pdf"
	FormatText DocumentFormat = "text"
)

type DocumentStatus string

const (
	StatusUploaded    DocumentStatus = "uploaded"
	StatusProcessing  DocumentStatus = "processing"
	StatusChecked     DocumentStatus = "checked"
	StatusUnprocessed DocumentStatus = "unprocessed"
)

// RawDocument is an ingested invoice document. Seq is the position within the
// submission batch and fixes the ordering of report rows.
type RawDocument struct {
	ID          string         `json:"id"`
	BatchID     string         `json:"batch_id"`
	Seq         int            `json:"seq"`
	Filename    string         `json:"filename"`
	Format      DocumentFormat `json:"format"`
	StoragePath string         `json:"storage_path"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
