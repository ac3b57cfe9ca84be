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


package factors

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GetUserFactorsSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cinerank",
		Subsystem: "factors",
		Name:      "get_user_factors_seconds",
	})
	GetItemFactorsSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cinerank",
		Subsystem: "factors",
		Name:      "get_item_factors_seconds",
	})
	GetUserIdsSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cinerank",
		Subsystem: "factors",
		Name:      "get_user_ids_seconds",
	})
)

func observe(histogram prometheus.Histogram, start time.Time) {
	histogram.Observe(time.Since(start).Seconds())
}
