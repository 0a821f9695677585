package store

import (
	"log"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/dbcdb/pkg/dbc"
	"github.com/ssargent/dbcdb/pkg/schema"
)

// TableStoreConfig holds configuration for the table store
type TableStoreConfig struct {
	DataDir     string               // Directory holding the .dbc files
	Definitions []*schema.Definition // Tables to load
	Workers     int                  // Files decoded in parallel (default 1)
	Logger      *log.Logger          // Defaults to log.Default()
	Debug       bool                 // Log every file as it is decoded
	Observer    DecodeObserver       // Optional decode metrics hook
}

// DecodeObserver is notified after every file decode attempt
type DecodeObserver interface {
	ObserveDecode(table string, records int, duration time.Duration, err error)
}

// Snapshot is one decoded table as produced by a single load
type Snapshot struct {
	Name     string
	Path     string
	LoadID   ksuid.KSUID
	Header   dbc.Header
	Table    *dbc.Table
	LoadedAt time.Time
	Duration time.Duration
}

// LoadFailure records a table whose file could not be decoded
type LoadFailure struct {
	Name string
	Path string
	Err  error
}

// LoadResult summarises a Load call
type LoadResult struct {
	LoadID   ksuid.KSUID
	Loaded   []string      // Tables decoded successfully
	Missing  []string      // Tables without a file in the data directory
	Failed   []LoadFailure // Tables whose file failed to decode
	Duration time.Duration
}

// StoreStats holds statistics about the store
type StoreStats struct {
	Tables   int       `json:"tables"`
	Records  int       `json:"records"`
	LoadID   string    `json:"load_id,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Errors
var (
	ErrTableNotFound  = &StoreError{"table not found"}
	ErrRecordNotFound = &StoreError{"record not found"}
)

// StoreError represents a table store error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}
