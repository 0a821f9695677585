package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ssargent/dbcdb/pkg/dbc"
	"github.com/ssargent/dbcdb/pkg/store"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// Server holds the API server state
type Server struct {
	store   ITableStore
	config  ServerConfig
	metrics *Metrics
}

// NewServer creates a new API server
func NewServer(store ITableStore, config ServerConfig, metrics *Metrics) *Server {
	return &Server{
		store:   store,
		config:  config,
		metrics: metrics,
	}
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Get the health status of the API
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleStats returns store statistics
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, s.store.Stats())
}

// handleListTables godoc
//
//	@Summary		List tables
//	@Description	List every loaded table with its header and record count
//	@Tags			tables
//	@Produce		json
//	@Success		200	{array}	TableSummary
//	@Router			/tables [get]
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	snaps := s.store.List()
	out := make([]TableSummary, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, summarize(snap, false))
	}
	sendSuccess(w, out)
}

// handleGetTable godoc
//
//	@Summary		Describe a table
//	@Description	Get a table's header, load information and schema
//	@Tags			tables
//	@Produce		json
//	@Param			name	path		string	true	"Table name"
//	@Success		200		{object}	TableSummary
//	@Failure		404		{object}	map[string]string
//	@Router			/tables/{name} [get]
func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(chi.URLParam(r, "name"))
	if err != nil {
		s.sendStoreError(w, err)
		return
	}
	sendSuccess(w, summarize(snap, true))
}

// handleListRecords godoc
//
//	@Summary		List records
//	@Description	Page through a table's records in ascending key order
//	@Tags			tables
//	@Produce		json
//	@Param			name	path		string	true	"Table name"
//	@Param			offset	query		int		false	"Records to skip"
//	@Param			limit	query		int		false	"Page size (max 1000)"
//	@Success		200		{object}	RecordPage
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Router			/tables/{name}/records [get]
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(chi.URLParam(r, "name"))
	if err != nil {
		s.sendStoreError(w, err)
		return
	}

	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		sendError(w, "Invalid offset", http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", defaultPageLimit)
	if err != nil || limit < 1 {
		sendError(w, "Invalid limit", http.StatusBadRequest)
		return
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	keys := snap.Table.Keys()
	page := RecordPage{
		Table:   snap.Name,
		Total:   len(keys),
		Offset:  offset,
		Limit:   limit,
		Records: []*dbc.Record{},
	}
	if offset < len(keys) {
		end := min(offset+limit, len(keys))
		for _, k := range keys[offset:end] {
			rec, _ := snap.Table.Get(k)
			page.Records = append(page.Records, rec)
		}
	}
	sendSuccess(w, page)
}

// handleGetRecord godoc
//
//	@Summary		Get a record
//	@Description	Get the record stored under an ID
//	@Tags			tables
//	@Produce		json
//	@Param			name	path		string	true	"Table name"
//	@Param			id		path		int		true	"Record ID"
//	@Success		200		{object}	map[string]interface{}
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Router			/tables/{name}/records/{id} [get]
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		sendError(w, "Record ID must be an unsigned 32-bit integer", http.StatusBadRequest)
		return
	}

	rec, err := s.store.Lookup(name, uint32(id))
	// Unknown tables are not counted so the table label stays bounded.
	if !errors.Is(err, store.ErrTableNotFound) {
		s.metrics.RecordLookup(name, err == nil)
	}
	if err != nil {
		s.sendStoreError(w, err)
		return
	}
	sendSuccess(w, rec)
}

// handleReload godoc
//
//	@Summary		Reload tables
//	@Description	Decode every table file again and swap in the result
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	ReloadResponse
//	@Failure		500	{object}	map[string]string
//	@Router			/reload [post]
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	result, err := s.store.Load(ctx)
	s.metrics.RecordReload(err == nil)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to reload tables: %v", err), http.StatusInternalServerError)
		return
	}

	resp := ReloadResponse{
		LoadID:   result.LoadID.String(),
		Loaded:   result.Loaded,
		Missing:  result.Missing,
		Duration: result.Duration.String(),
	}
	if len(result.Failed) > 0 {
		resp.Failed = make(map[string]string, len(result.Failed))
		for _, f := range result.Failed {
			resp.Failed[f.Name] = f.Err.Error()
		}
	}
	sendSuccess(w, resp)
}

func (s *Server) sendStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrTableNotFound):
		sendError(w, "Table not found", http.StatusNotFound)
	case errors.Is(err, store.ErrRecordNotFound):
		sendError(w, "Record not found", http.StatusNotFound)
	default:
		sendError(w, err.Error(), http.StatusInternalServerError)
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
