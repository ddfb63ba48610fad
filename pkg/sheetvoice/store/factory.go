package store

import (
	"fmt"
	"log/slog"
)

// Options selects and configures a record store backend.
type Options struct {
	// Backend is one of BackendJSON (default) or BackendSQLite.
	Backend string

	// Path is the JSON mapping file or the SQLite database file,
	// depending on the backend.
	Path string
}

// Open creates the configured backend and loads persisted records.
func Open(opts Options, logger *slog.Logger) (RecordStore, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("record store path is required")
	}

	var (
		rs  RecordStore
		err error
	)
	switch opts.Backend {
	case "", BackendJSON:
		rs = NewJSONStore(opts.Path, logger)
	case BackendSQLite:
		rs, err = NewSQLiteStore(opts.Path, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown record store backend %q", opts.Backend)
	}

	if err := rs.Load(); err != nil {
		rs.Close()
		return nil, err
	}
	return rs, nil
}
