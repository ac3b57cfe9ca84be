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


package ratings

import (
	"context"
	"time"

	"github.com/gorse-io/cinerank/storage"
	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

// Redis keeps the ratings of each user in a sorted set keyed by item id.
// Dates are not kept and equal ratings are ordered by item id.
type Redis struct {
	client *redis.Client
	prefix string
}

func (r *Redis) Init() error {
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return storage.Unavailable("redis", r.client.Ping(ctx).Err())
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) GetUserRatings(ctx context.Context, userId string) ([]Rating, error) {
	defer observe(GetUserRatingsSeconds, time.Now())
	members, err := r.client.ZRangeWithScores(ctx, r.prefix+userId, 0, -1).Result()
	if err != nil {
		return nil, storage.Unavailable("redis", err)
	}
	return r.toRatings(userId, members), nil
}

func (r *Redis) GetTopRatings(ctx context.Context, userId string, n int) ([]Rating, error) {
	defer observe(GetTopRatingsSeconds, time.Now())
	if n <= 0 {
		return []Rating{}, nil
	}
	members, err := r.client.ZRangeWithScores(ctx, r.prefix+userId, 0, -1).Result()
	if err != nil {
		return nil, storage.Unavailable("redis", err)
	}
	ratings := r.toRatings(userId, members)
	SortRatings(ratings)
	if len(ratings) > n {
		ratings = ratings[:n]
	}
	return ratings, nil
}

func (r *Redis) BatchInsertRatings(ctx context.Context, ratings []Rating) error {
	if len(ratings) == 0 {
		return nil
	}
	p := r.client.Pipeline()
	for userId, group := range lo.GroupBy(ratings, func(rating Rating) string { return rating.UserId }) {
		members := lo.Map(group, func(rating Rating, _ int) redis.Z {
			return redis.Z{Member: rating.ItemId, Score: rating.Rating}
		})
		p.ZAdd(ctx, r.prefix+userId, members...)
	}
	_, err := p.Exec(ctx)
	return errors.Trace(storage.Unavailable("redis", err))
}

func (r *Redis) toRatings(userId string, members []redis.Z) []Rating {
	ratings := make([]Rating, 0, len(members))
	for _, member := range members {
		ratings = append(ratings, Rating{
			UserId: userId,
			ItemId: member.Member.(string),
			Rating: member.Score,
		})
	}
	return ratings
}
