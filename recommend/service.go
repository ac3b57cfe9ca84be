// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package recommend

import (
	"context"
	"time"

	"github.com/gorse-io/cinerank/base/log"
	"github.com/gorse-io/cinerank/config"
	"github.com/gorse-io/cinerank/logics"
	"github.com/gorse-io/cinerank/storage"
	"github.com/gorse-io/cinerank/storage/factors"
	"github.com/gorse-io/cinerank/storage/items"
	"github.com/gorse-io/cinerank/storage/ratings"
	"github.com/jellydator/ttlcache/v3"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrUserFactorsNotFound = errors.NotFoundf("user factors")
	ErrItemFactorsNotFound = errors.NotFoundf("item factors")
)

const (
	reloadKey = "reload"
	// catalogRetryInterval throttles lazy loads while item factors are missing.
	catalogRetryInterval = time.Second
)

// Recommendation is a ranked item enriched with metadata. For top rated
// items, Score is the rating given by the user.
type Recommendation struct {
	Rank          int
	ItemId        string
	Title         string
	YearOfRelease int
	Score         float64
}

// Service recommends unseen movies by dot products of latent factors.
type Service struct {
	config   *config.Config
	factors  factors.Database
	ratings  ratings.Database
	items    items.Database
	scorer   *logics.Scorer
	filter   *Filter
	snapshot logics.SnapshotHolder
	loader   singleflight.Group
	cache    *ttlcache.Cache[string, items.Item]

	retryInterval time.Duration
}

// NewService creates a recommendation service. The catalog is loaded on the
// first request unless Reload is called before.
func NewService(cfg *config.Config, factorStore factors.Database, ratingStore ratings.Database, itemStore items.Database) (*Service, error) {
	filter, err := NewFilter(cfg.Recommend.Filter)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Service{
		config:        cfg,
		factors:       factorStore,
		ratings:       ratingStore,
		items:         itemStore,
		scorer:        logics.NewScorer(cfg.Recommend.NumJobs),
		filter:        filter,
		retryInterval: catalogRetryInterval,
		cache: ttlcache.New[string, items.Item](
			ttlcache.WithTTL[string, items.Item](cfg.Cache.ItemTTL),
			ttlcache.WithCapacity[string, items.Item](cfg.Cache.ItemCapacity),
		),
	}, nil
}

// Recommend returns at most n items the user has not rated, ranked by
// predicted preference. A non-positive n means the default number.
func (s *Service) Recommend(ctx context.Context, userId string, n int) ([]Recommendation, error) {
	defer observe(RecommendSeconds, time.Now())
	n = s.resolveN(n)
	// load user factors
	userVector, err := s.getUserFactors(ctx, userId)
	if errors.Is(err, errors.NotFound) {
		return []Recommendation{}, errors.Annotatef(ErrUserFactorsNotFound, "user %s", userId)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	// load item factors
	snapshot, err := s.getSnapshot(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if snapshot.Catalog == nil {
		return []Recommendation{}, errors.Trace(ErrItemFactorsNotFound)
	}
	// exclude rated items
	history, err := s.getUserRatings(ctx, userId)
	if err != nil {
		return nil, errors.Trace(err)
	}
	excluded := logics.BuildExclusionSet(history)
	// rank candidates
	candidates, err := s.scorer.Score(ctx, userVector, snapshot.Catalog, excluded)
	if err != nil {
		return nil, errors.Trace(err)
	}
	top := logics.SelectTopN(candidates, n)
	scored := make([]scoredItem, len(top))
	for i, candidate := range top {
		scored[i] = scoredItem{ItemId: candidate.ItemId, Score: candidate.Score}
	}
	return s.enrich(ctx, scored)
}

// TopRated returns the n items the user rated highest.
func (s *Service) TopRated(ctx context.Context, userId string, n int) ([]Recommendation, error) {
	defer observe(TopRatedSeconds, time.Now())
	n = s.resolveN(n)
	top, err := s.getTopRatings(ctx, userId, n)
	if err != nil {
		return nil, errors.Trace(err)
	}
	scored := make([]scoredItem, len(top))
	for i, rating := range top {
		scored[i] = scoredItem{ItemId: rating.ItemId, Score: rating.Rating}
	}
	return s.enrich(ctx, scored)
}

// Users returns at most n known user ids in ascending order starting from
// offset. A non-positive n returns every user after offset.
func (s *Service) Users(ctx context.Context, offset, n int) ([]string, error) {
	if offset < 0 {
		return nil, errors.NotValidf("offset %d", offset)
	}
	snapshot, err := s.getSnapshot(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if offset >= len(snapshot.UserIds) {
		return []string{}, nil
	}
	end := len(snapshot.UserIds)
	if n > 0 {
		end = min(end, offset+n)
	}
	return append([]string{}, snapshot.UserIds[offset:end]...), nil
}

// Reload reads item factors and user ids again and publishes them at once.
// On failure, the previous snapshot stays active. If item factors are gone,
// an empty snapshot is published and ErrItemFactorsNotFound is returned.
func (s *Service) Reload(ctx context.Context) (*logics.Snapshot, error) {
	v, err, _ := s.loader.Do(reloadKey, func() (any, error) {
		return s.load(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	snapshot := v.(*logics.Snapshot)
	if snapshot.Catalog == nil {
		return snapshot, errors.Trace(ErrItemFactorsNotFound)
	}
	return snapshot, nil
}

// InvalidateItem drops the cached metadata of an item.
func (s *Service) InvalidateItem(itemId string) {
	s.cache.Delete(itemId)
}

// InvalidateItems drops all cached metadata.
func (s *Service) InvalidateItems() {
	s.cache.DeleteAll()
}

// Ping checks that every store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.factors.Ping(ctx); err != nil {
		return errors.Annotate(err, "factor store")
	}
	if err := s.ratings.Ping(ctx); err != nil {
		return errors.Annotate(err, "rating store")
	}
	if err := s.items.Ping(ctx); err != nil {
		return errors.Annotate(err, "item store")
	}
	return nil
}

func (s *Service) resolveN(n int) int {
	if n <= 0 {
		return s.config.Recommend.DefaultN
	}
	return n
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.config.Database.Timeout)
}

func (s *Service) getUserFactors(ctx context.Context, userId string) ([]float64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	vector, err := s.factors.GetUserFactors(ctx, userId)
	return vector, unavailableOnTimeout("factor store", err)
}

func (s *Service) getUserRatings(ctx context.Context, userId string) ([]ratings.Rating, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	history, err := s.ratings.GetUserRatings(ctx, userId)
	return history, unavailableOnTimeout("rating store", err)
}

func (s *Service) getTopRatings(ctx context.Context, userId string, n int) ([]ratings.Rating, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	top, err := s.ratings.GetTopRatings(ctx, userId, n)
	return top, unavailableOnTimeout("rating store", err)
}

// getSnapshot returns the published snapshot, loading it if none was published
// or the last load found no item factors. Missing item factors are looked up
// again at most once per retry interval.
func (s *Service) getSnapshot(ctx context.Context) (*logics.Snapshot, error) {
	if snapshot := s.snapshot.Load(); snapshot != nil {
		if snapshot.Catalog != nil || time.Since(snapshot.LoadedAt) < s.retryInterval {
			return snapshot, nil
		}
	}
	v, err, _ := s.loader.Do(reloadKey, func() (any, error) {
		return s.load(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return v.(*logics.Snapshot), nil
}

func (s *Service) load(ctx context.Context) (*logics.Snapshot, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	catalog, err := s.factors.GetItemFactors(ctx)
	if err != nil && !errors.Is(err, errors.NotFound) {
		log.Logger().Error("failed to load item factors", zap.Error(err))
		return nil, unavailableOnTimeout("factor store", err)
	}
	userIds, err := s.factors.GetUserIds(ctx)
	if err != nil {
		log.Logger().Error("failed to load user ids", zap.Error(err))
		return nil, unavailableOnTimeout("factor store", err)
	}
	snapshot := &logics.Snapshot{
		Catalog:  catalog,
		UserIds:  userIds,
		LoadedAt: time.Now(),
	}
	s.snapshot.Swap(snapshot)
	LoadSeconds.Observe(time.Since(start).Seconds())
	CatalogItems.Set(float64(snapshot.NumItems()))
	if catalog == nil {
		log.Logger().Warn("item factors not found")
	} else {
		log.Logger().Info("load item factors",
			zap.Int("n_items", snapshot.NumItems()),
			zap.Int("n_users", snapshot.NumUsers()),
			zap.Duration("used_time", time.Since(start)))
	}
	return snapshot, nil
}

type scoredItem struct {
	ItemId string
	Score  float64
}

// enrich attaches metadata to ranked items. Items without usable metadata or
// rejected by the filter are dropped and later items move up. Only an
// unreachable store fails the whole list.
func (s *Service) enrich(ctx context.Context, scored []scoredItem) ([]Recommendation, error) {
	results := make([]Recommendation, 0, len(scored))
	for _, si := range scored {
		item, err := s.getItem(ctx, si.ItemId)
		if storage.IsUnavailable(err) {
			return nil, errors.Trace(err)
		} else if errors.Is(err, errors.NotFound) {
			log.Logger().Debug("item metadata not found", zap.String("item_id", si.ItemId))
			MissingItemsTotal.Inc()
			continue
		} else if err != nil {
			log.Logger().Warn("failed to load item metadata", zap.String("item_id", si.ItemId), zap.Error(err))
			MissingItemsTotal.Inc()
			continue
		}
		if !s.filter.Keep(item) {
			continue
		}
		results = append(results, Recommendation{
			Rank:          len(results) + 1,
			ItemId:        si.ItemId,
			Title:         item.Title,
			YearOfRelease: item.YearOfRelease,
			Score:         si.Score,
		})
	}
	return results, nil
}

func (s *Service) getItem(ctx context.Context, itemId string) (items.Item, error) {
	if entry := s.cache.Get(itemId); entry != nil {
		ItemCacheHitsTotal.Inc()
		return entry.Value(), nil
	}
	ItemCacheMissesTotal.Inc()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	item, err := s.items.GetItem(ctx, itemId)
	if err != nil {
		return items.Item{}, unavailableOnTimeout("item store", err)
	}
	s.cache.Set(itemId, item, ttlcache.DefaultTTL)
	return item, nil
}

func unavailableOnTimeout(backend string, err error) error {
	if storage.IsTimeout(err) {
		return storage.Unavailable(backend, err)
	}
	return err
}
