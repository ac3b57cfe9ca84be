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


package logics

import (
	"context"
	"math"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/cinerank/base/log"
	"github.com/gorse-io/cinerank/common/floats"
	"github.com/gorse-io/cinerank/common/parallel"
	"github.com/gorse-io/cinerank/storage/factors"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// minChunkSize is the smallest number of items scored by one job.
const minChunkSize = 1024

var SkippedItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cinerank",
	Subsystem: "scoring",
	Name:      "skipped_items_total",
	Help:      "Number of catalog items skipped while scoring.",
}, []string{"reason"})

// Candidate is an item scored for a user.
type Candidate struct {
	ItemId string
	Score  float64
}

// Scorer computes dot products between a user and every item in a catalog.
type Scorer struct {
	numJobs int
}

func NewScorer(numJobs int) *Scorer {
	return &Scorer{numJobs: numJobs}
}

// Score returns candidates for every item not in excluded, in catalog order.
// Items whose dimension differs from the user vector are skipped.
func (s *Scorer) Score(ctx context.Context, userVector []float64, catalog *factors.Catalog, excluded mapset.Set[string]) ([]Candidate, error) {
	n := catalog.Len()
	if n == 0 {
		return []Candidate{}, nil
	}
	numChunks := min(max(s.numJobs, 1), (n+minChunkSize-1)/minChunkSize)
	if numChunks == 1 {
		return s.scoreRange(userVector, catalog, excluded, 0, n), nil
	}
	chunks := parallel.Split(lo.Range(n), numChunks)
	results := make([][]Candidate, len(chunks))
	err := parallel.Parallel(ctx, len(chunks), s.numJobs, func(_, jobId int) error {
		chunk := chunks[jobId]
		results[jobId] = s.scoreRange(userVector, catalog, excluded, chunk[0], chunk[len(chunk)-1]+1)
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return lo.Flatten(results), nil
}

func (s *Scorer) scoreRange(userVector []float64, catalog *factors.Catalog, excluded mapset.Set[string], begin, end int) []Candidate {
	candidates := make([]Candidate, 0, end-begin)
	for i := begin; i < end; i++ {
		itemId := catalog.ItemId(i)
		if excluded != nil && excluded.Contains(itemId) {
			continue
		}
		itemVector := catalog.Vector(i)
		if len(itemVector) != len(userVector) {
			log.Logger().Warn("dimension mismatch",
				zap.String("item_id", itemId),
				zap.Int("expected", len(userVector)),
				zap.Int("actual", len(itemVector)))
			SkippedItemsTotal.WithLabelValues("dimension_mismatch").Inc()
			continue
		}
		score := floats.Dot(userVector, itemVector)
		if math.IsNaN(score) || math.IsInf(score, 0) {
			SkippedItemsTotal.WithLabelValues("non_finite").Inc()
			continue
		}
		candidates = append(candidates, Candidate{ItemId: itemId, Score: score})
	}
	return candidates
}
