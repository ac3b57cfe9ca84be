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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cinerank",
		Subsystem: "recommend",
		Name:      "recommend_seconds",
	})
	TopRatedSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cinerank",
		Subsystem: "recommend",
		Name:      "top_rated_seconds",
	})
	LoadSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cinerank",
		Subsystem: "recommend",
		Name:      "load_seconds",
	})
	CatalogItems = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cinerank",
		Subsystem: "recommend",
		Name:      "catalog_items",
	})
	MissingItemsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cinerank",
		Subsystem: "recommend",
		Name:      "missing_items_total",
		Help:      "Number of ranked items dropped for lack of metadata.",
	})
	ItemCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cinerank",
		Subsystem: "recommend",
		Name:      "item_cache_hits_total",
	})
	ItemCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cinerank",
		Subsystem: "recommend",
		Name:      "item_cache_misses_total",
	})
)

func observe(histogram prometheus.Histogram, start time.Time) {
	histogram.Observe(time.Since(start).Seconds())
}
