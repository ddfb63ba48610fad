// Package store persists sheet records behind a common interface with two
// backends: a flat JSON file (default) and SQLite. Both load everything at
// startup and answer lookups with a linear scan over live records.
package store

// Backend identifiers accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Record describes one uploaded sheet. FileName is the unique key;
// ScriptID is generated once at upload and never changes.
type Record struct {
	FileName    string `json:"fileName"`
	ScriptID    string `json:"scriptId"`
	RedirectURL string `json:"redirectUrl"`
	ClientName  string `json:"clientName"`
}

// RecordStore is the persistence contract for sheet records.
type RecordStore interface {
	// Load reads persisted records. A missing file or fresh database is
	// not an error; the store simply starts empty.
	Load() error

	// Upsert inserts or replaces the record keyed by its FileName and
	// persists synchronously before returning.
	Upsert(rec Record) error

	// Remove deletes the record keyed by fileName and persists. Removing
	// an absent record is a no-op.
	Remove(fileName string) error

	// FindByScriptID scans live records for a matching script ID.
	// Returns nil when no record matches.
	FindByScriptID(id string) (*Record, error)

	// FindByClientName scans live records for a matching client name.
	// Returns nil when no record matches.
	FindByClientName(name string) (*Record, error)

	// All returns every live record, ordered by file name.
	All() ([]Record, error)

	// Close releases backend resources.
	Close() error
}
