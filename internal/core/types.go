package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvmap/internal/mapping"
	"github.com/JonMunkholm/csvmap/internal/parser"
)

// SchemaInfo contains display information about a schema.
type SchemaInfo struct {
	Key     string   `json:"key"`              // Unique identifier: "people"
	Group   string   `json:"group"`            // Data source: "SFDC", "Anrok", "Builtin"
	Label   string   `json:"label"`            // Display name: "People"
	Table   string   `json:"table,omitempty"`  // Import target, empty when imports are unsupported
	Columns []string `json:"columns"`          // Header row of the CSV template
	Source  string   `json:"source,omitempty"` // "go" for typed schemas, "spec" for declarative ones
}

// FailedRow contains information about a row that could not be mapped.
type FailedRow struct {
	FileName   string                     `json:"fileName,omitempty"`
	LineNumber int                        `json:"line"`
	Reason     string                     `json:"reason"`
	Errors     []*mapping.ConversionError `json:"errors,omitempty"`
	Data       []string                   `json:"data"`
}

// Report is the outcome of one parse or import job.
type Report struct {
	ID        uuid.UUID `json:"id"`
	SchemaKey string    `json:"schema"`
	FileName  string    `json:"fileName,omitempty"`
	Mode      string    `json:"mode"`

	// Columns is the header used for the failed rows export.
	Columns []string `json:"columns,omitempty"`

	TotalRows int64 `json:"totalRows"`
	Valid     int64 `json:"valid"`
	Invalid   int64 `json:"invalid"`
	Skipped   int64 `json:"skipped"`
	Inserted  int64 `json:"inserted,omitempty"`
	BytesRead int64 `json:"bytesRead"`

	// Items holds mapped values in delivery order, capped by configuration.
	Items          []any `json:"items"`
	ItemsTruncated bool  `json:"itemsTruncated,omitempty"`

	FailedRows      []FailedRow `json:"failedRows"`
	FailedTruncated bool        `json:"failedTruncated,omitempty"`

	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}

func (r *Report) applyStats(s parser.Stats) {
	r.TotalRows = s.Read
	r.Valid = s.Valid
	r.Invalid = s.Invalid
	r.Skipped = s.Skipped
}

// JobMode names what a job does with its valid rows.
const (
	ModeParse  = "parse"
	ModeImport = "import"
)
