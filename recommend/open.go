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
	"github.com/gorse-io/cinerank/storage"
	"github.com/gorse-io/cinerank/storage/factors"
	"github.com/gorse-io/cinerank/storage/items"
	"github.com/gorse-io/cinerank/storage/ratings"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// readyTimeout bounds how long OpenService waits for a store to answer.
const readyTimeout = 30 * time.Second

// OpenService connects to the configured stores and creates a service owning
// them. Stores that do not answer within readyTimeout fail the call.
func OpenService(ctx context.Context, cfg *config.Config) (service *Service, err error) {
	var opened []interface{ Close() error }
	defer func() {
		if err != nil {
			for _, closer := range opened {
				_ = closer.Close()
			}
		}
	}()
	factorStore, err := factors.Open(cfg.Database.FactorStore)
	if err != nil {
		return nil, errors.Annotate(err, "factor store")
	}
	opened = append(opened, factorStore)
	ratingStore, err := ratings.Open(cfg.Database.RatingStore, cfg.Database.RatingCollection, cfg.Database.SQLOptions()...)
	if err != nil {
		return nil, errors.Annotate(err, "rating store")
	}
	opened = append(opened, ratingStore)
	itemStore, err := items.Open(cfg.Database.GetItemStore())
	if err != nil {
		return nil, errors.Annotate(err, "item store")
	}
	opened = append(opened, itemStore)
	for _, store := range []struct {
		name   string
		url    string
		pinger storage.Pinger
	}{
		{"factor store", cfg.Database.FactorStore, factorStore},
		{"rating store", cfg.Database.RatingStore, ratingStore},
		{"item store", cfg.Database.GetItemStore(), itemStore},
	} {
		if err = storage.WaitReady(ctx, store.name, store.pinger, readyTimeout); err != nil {
			return nil, errors.Trace(err)
		}
		log.Logger().Info("connect to store",
			zap.String("store", store.name),
			zap.String("url", log.RedactURL(store.url)))
	}
	if err = ratingStore.Init(); err != nil {
		return nil, errors.Annotate(err, "rating store")
	}
	return NewService(cfg, factorStore, ratingStore, itemStore)
}

// Close closes the stores of the service.
func (s *Service) Close() error {
	var errs []error
	for _, closer := range []interface{ Close() error }{s.factors, s.ratings, s.items} {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Trace(errs[0])
	}
	return nil
}
