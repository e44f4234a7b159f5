package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edanalytica/gradelens-backend/internal/aggregate"
	"github.com/edanalytica/gradelens-backend/internal/config"
	"github.com/edanalytica/gradelens-backend/internal/dataset"
	"github.com/edanalytica/gradelens-backend/internal/model"
)

// Dataset lifecycle errors.
var ErrReloadInProgress = errors.New("a dataset reload is already running")

// reloadLockTTL bounds how long a crashed reload can block the next one.
const reloadLockTTL = 30 * time.Second

// DatasetService owns the dataset lifecycle: the startup load, admin-driven
// reloads, and the metadata the dashboard bootstraps from.
type DatasetService struct {
	store *dataset.Store
	rdb   *redis.Client // optional; nil disables the cross-replica reload lock
	log   zerolog.Logger
}

// NewDatasetService creates a new DatasetService.
func NewDatasetService(store *dataset.Store, rdb *redis.Client, log zerolog.Logger) *DatasetService {
	return &DatasetService{
		store: store,
		rdb:   rdb,
		log:   log.With().Str("component", "dataset_service").Logger(),
	}
}

// Table returns the currently served table.
func (s *DatasetService) Table() *dataset.Table { return s.store.Table() }

// Info returns provenance of the currently served dataset.
func (s *DatasetService) Info() model.DatasetInfo { return s.store.Info() }

// Generation returns the dataset load counter used in cache keys.
func (s *DatasetService) Generation() uint64 { return s.store.Generation() }

// Meta assembles the filter-widget bootstrap from the current table.
func (s *DatasetService) Meta() *model.DashboardMeta {
	t := s.store.Table()
	_, conflicts := aggregate.StudentRollups(t)
	return &model.DashboardMeta{
		YearMin:         t.YearMin(),
		YearMax:         t.YearMax(),
		Departments:     t.Departments(),
		MajorTypes:      t.MajorTypes(),
		Majors:          t.Majors(),
		Genders:         t.Genders(),
		RollupConflicts: len(conflicts),
		Dataset:         s.store.Info(),
	}
}

// Reload re-reads the source and swaps the table in. When Redis is
// configured, a short-lived lock keeps concurrent reloads from racing. A
// failed reload keeps the previous table serving.
func (s *DatasetService) Reload(ctx context.Context) (model.DatasetInfo, error) {
	if s.rdb != nil {
		lockKey := config.CacheKey.DatasetLockKey()
		ok, err := s.rdb.SetNX(ctx, lockKey, "1", reloadLockTTL).Result()
		if err != nil {
			return model.DatasetInfo{}, fmt.Errorf("acquire reload lock: %w", err)
		}
		if !ok {
			return model.DatasetInfo{}, ErrReloadInProgress
		}
		defer s.rdb.Del(ctx, lockKey)
	}

	if err := s.store.Load(ctx); err != nil {
		s.log.Error().Err(err).Msg("Dataset reload failed, previous table kept")
		return model.DatasetInfo{}, err
	}

	info := s.store.Info()
	s.log.Info().
		Uint64("generation", info.Generation).
		Int("rows", info.Rows).
		Msg("Dataset reloaded")
	return info, nil
}
