package dataset

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/edanalytica/gradelens-backend/internal/model"
)

// Source produces raw dataset rows. Implementations exist for CSV and XLSX
// exports and for the Postgres warehouse.
type Source interface {
	Describe() string
	Rows(ctx context.Context) ([]Row, error)
}

// Store owns the table the whole service reads from. Loads are atomic: a
// reload that fails keeps serving the previous table, a reload that succeeds
// swaps the handle and bumps the generation so downstream caches invalidate.
type Store struct {
	source Source
	log    zerolog.Logger

	mu         sync.RWMutex
	table      *Table
	info       model.DatasetInfo
	generation uint64
}

// NewStore creates an empty store reading from source. Call Load before
// serving.
func NewStore(source Source, log zerolog.Logger) *Store {
	return &Store{
		source: source,
		log:    log.With().Str("component", "dataset_store").Logger(),
	}
}

// Load fetches, validates, and normalizes the dataset, then swaps it in.
// Callers treat an error from the first load as fatal; later calls are
// reloads and leave the served table untouched on failure.
func (s *Store) Load(ctx context.Context) error {
	started := time.Now()

	rows, err := s.source.Rows(ctx)
	if err != nil {
		return fmt.Errorf("load dataset from %s: %w", s.source.Describe(), err)
	}
	table, stats := Build(rows)

	s.mu.Lock()
	s.generation++
	s.table = table
	s.info = model.DatasetInfo{
		Source:       s.source.Describe(),
		Rows:         stats.RowsKept,
		RowsDropped:  stats.RowsDropped,
		HasMajorType: table.HasMajorType(),
		Generation:   s.generation,
		LoadedAt:     time.Now(),
	}
	s.mu.Unlock()

	s.log.Info().
		Str("source", s.source.Describe()).
		Int("rows", stats.RowsKept).
		Int("rows_dropped", stats.RowsDropped).
		Dur("took", time.Since(started)).
		Msg("Dataset loaded")
	return nil
}

// Table returns the currently served immutable table.
func (s *Store) Table() *Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// Info describes the currently served dataset.
func (s *Store) Info() model.DatasetInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Generation counts successful loads. Cache keys embed it so a reload
// orphans every previously cached response.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}
