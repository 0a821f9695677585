package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/dbcdb/pkg/dbc"
	"github.com/ssargent/dbcdb/pkg/schema"
)

// TableStore holds the decoded tables of a data directory. Tables are
// replaced as a whole on every Load and are read-only in between.
type TableStore struct {
	config TableStoreConfig
	logger *log.Logger

	mutex    sync.RWMutex
	tables   map[string]*Snapshot
	loadID   ksuid.KSUID
	loadedAt time.Time
}

// NewTableStore creates a new table store. Nothing is decoded until Load.
func NewTableStore(config TableStoreConfig) (*TableStore, error) {
	if config.DataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &TableStore{
		config: config,
		logger: logger,
		tables: make(map[string]*Snapshot),
	}, nil
}

// Load decodes every configured table whose file exists. Files are decoded
// independently; a file that fails is reported in the result and the
// remaining files are still loaded. The new set of tables replaces the old
// one only if the context was not cancelled.
func (s *TableStore) Load(ctx context.Context) (*LoadResult, error) {
	start := time.Now()
	result := &LoadResult{LoadID: ksuid.New()}

	type job struct {
		def  *schema.Definition
		path string
	}
	var jobs []job
	for _, def := range s.config.Definitions {
		path := filepath.Join(s.config.DataDir, def.FileName())
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			result.Missing = append(result.Missing, def.Name)
			continue
		}
		jobs = append(jobs, job{def: def, path: path})
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		loaded  = make(map[string]*Snapshot, len(jobs))
		workers = make(chan struct{}, s.config.Workers)
	)
	for _, j := range jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			select {
			case workers <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-workers }()

			snap, err := s.decode(j.def, j.path, result.LoadID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, LoadFailure{Name: j.def.Name, Path: j.path, Err: err})
				return
			}
			loaded[j.def.Name] = snap
		}(j)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load cancelled: %w", err)
	}

	for name := range loaded {
		result.Loaded = append(result.Loaded, name)
	}
	sort.Strings(result.Loaded)
	sort.Strings(result.Missing)
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].Name < result.Failed[j].Name })
	result.Duration = time.Since(start)

	for _, f := range result.Failed {
		s.logger.Printf("store: failed to load %s from %s: %v", f.Name, f.Path, f.Err)
	}
	s.logger.Printf("store: load %s: %d loaded, %d missing, %d failed in %s",
		result.LoadID, len(result.Loaded), len(result.Missing), len(result.Failed), result.Duration)

	s.mutex.Lock()
	s.tables = loaded
	s.loadID = result.LoadID
	s.loadedAt = time.Now()
	s.mutex.Unlock()

	return result, nil
}

func (s *TableStore) decode(def *schema.Definition, path string, loadID ksuid.KSUID) (*Snapshot, error) {
	start := time.Now()
	snap, err := LoadFile(path, def)
	duration := time.Since(start)

	records := 0
	if err == nil {
		records = snap.Table.Len()
		snap.LoadID = loadID
	}
	if s.config.Observer != nil {
		s.config.Observer.ObserveDecode(def.Name, records, duration, err)
	}
	if err == nil && s.config.Debug {
		s.logger.Printf("store: decoded %s: %d records (%d duplicate keys) in %s",
			def.Name, records, snap.Table.Duplicates(), duration)
	}
	return snap, err
}

// Get returns the snapshot of the named table
func (s *TableStore) Get(name string) (*Snapshot, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	snap, ok := s.tables[name]
	if !ok {
		return nil, ErrTableNotFound
	}
	return snap, nil
}

// Lookup returns the record stored under key in the named table
func (s *TableStore) Lookup(name string, key uint32) (*dbc.Record, error) {
	snap, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	rec, ok := snap.Table.Get(key)
	if !ok {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

// List returns all loaded tables sorted by name
func (s *TableStore) List() []*Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]*Snapshot, 0, len(s.tables))
	for _, snap := range s.tables {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Stats returns store statistics
func (s *TableStore) Stats() *StoreStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats := &StoreStats{Tables: len(s.tables), LoadedAt: s.loadedAt}
	if !s.loadID.IsNil() {
		stats.LoadID = s.loadID.String()
	}
	for _, snap := range s.tables {
		stats.Records += snap.Table.Len()
	}
	return stats
}
