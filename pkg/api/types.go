package api

import (
	"context"
	"time"

	"github.com/ssargent/dbcdb/pkg/dbc"
	"github.com/ssargent/dbcdb/pkg/store"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string // Empty disables authentication
}

// ITableStore defines the table store operations the API needs
type ITableStore interface {
	Get(name string) (*store.Snapshot, error)
	List() []*store.Snapshot
	Lookup(name string, key uint32) (*dbc.Record, error)
	Load(ctx context.Context) (*store.LoadResult, error)
	Stats() *store.StoreStats
}

// FieldSummary describes one schema column
type FieldSummary struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Count int    `json:"count,omitempty"`
}

// TableSummary describes a loaded table
type TableSummary struct {
	Name       string         `json:"name"`
	LoadID     string         `json:"load_id"`
	Records    int            `json:"records"`
	Duplicates int            `json:"duplicates"`
	Header     dbc.Header     `json:"header"`
	LoadedAt   time.Time      `json:"loaded_at"`
	DecodeMS   int64          `json:"decode_ms"`
	Fields     []FieldSummary `json:"fields,omitempty"`
}

// RecordPage is a page of records in key order
type RecordPage struct {
	Table   string        `json:"table"`
	Total   int           `json:"total"`
	Offset  int           `json:"offset"`
	Limit   int           `json:"limit"`
	Records []*dbc.Record `json:"records"`
}

// ReloadResponse summarises a reload
type ReloadResponse struct {
	LoadID   string            `json:"load_id"`
	Loaded   []string          `json:"loaded"`
	Missing  []string          `json:"missing,omitempty"`
	Failed   map[string]string `json:"failed,omitempty"`
	Duration string            `json:"duration"`
}

func summarize(snap *store.Snapshot, withFields bool) TableSummary {
	ts := TableSummary{
		Name:       snap.Name,
		LoadID:     snap.LoadID.String(),
		Records:    snap.Table.Len(),
		Duplicates: snap.Table.Duplicates(),
		Header:     snap.Header,
		LoadedAt:   snap.LoadedAt,
		DecodeMS:   snap.Duration.Milliseconds(),
	}
	if withFields {
		for _, f := range snap.Table.Schema().Fields() {
			fs := FieldSummary{Name: f.Name, Type: f.Kind.String()}
			if f.Kind.IsArray() {
				fs.Count = f.Count
			}
			ts.Fields = append(ts.Fields, fs)
		}
	}
	return ts
}
