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
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/gorse-io/cinerank/storage"
	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

// Redis keeps latent factors in the layout written by the training job.
type Redis struct {
	client *redis.Client
}

func (r *Redis) Ping(ctx context.Context) error {
	return storage.Unavailable("redis", r.client.Ping(ctx).Err())
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) GetUserFactors(ctx context.Context, userId string) ([]float64, error) {
	defer observe(GetUserFactorsSeconds, time.Now())
	fields, err := r.client.HGetAll(ctx, UserFactorsPrefix+userId).Result()
	if err != nil {
		return nil, storage.Unavailable("redis", err)
	}
	if len(fields) == 0 {
		return nil, errors.NotFoundf("factors of user %s", userId)
	}
	raw, exist := fields[FeaturesField]
	if !exist {
		return nil, errors.NotFoundf("features of user %s", userId)
	}
	var features []float64
	if err = json.Unmarshal([]byte(raw), &features); err != nil {
		return nil, storage.Corrupted("features of user "+userId, err)
	}
	return features, nil
}

func (r *Redis) GetItemFactors(ctx context.Context) (*Catalog, error) {
	defer observe(GetItemFactorsSeconds, time.Now())
	data, err := r.client.Get(ctx, ItemFactors).Bytes()
	if err == redis.Nil {
		return nil, errors.NotFoundf("item factors")
	} else if err != nil {
		return nil, storage.Unavailable("redis", err)
	}
	catalog := NewCatalog()
	if err = json.Unmarshal(data, catalog); err != nil {
		return nil, storage.Corrupted("item factors", err)
	}
	return catalog, nil
}

func (r *Redis) GetUserIds(ctx context.Context) ([]string, error) {
	defer observe(GetUserIdsSeconds, time.Now())
	userIds, err := r.client.SMembers(ctx, UserIds).Result()
	if err != nil {
		return nil, storage.Unavailable("redis", err)
	}
	sort.Strings(userIds)
	return userIds, nil
}

func (r *Redis) SetUserFactors(ctx context.Context, userId string, features []float64) error {
	data, err := json.Marshal(features)
	if err != nil {
		return errors.Trace(err)
	}
	return storage.Unavailable("redis", r.client.HSet(ctx, UserFactorsPrefix+userId, FeaturesField, data).Err())
}

func (r *Redis) SetItemFactors(ctx context.Context, catalog *Catalog) error {
	data, err := json.Marshal(catalog)
	if err != nil {
		return errors.Trace(err)
	}
	return storage.Unavailable("redis", r.client.Set(ctx, ItemFactors, data, 0).Err())
}

func (r *Redis) AddUserIds(ctx context.Context, userIds ...string) error {
	if len(userIds) == 0 {
		return nil
	}
	members := lo.Map(userIds, func(userId string, _ int) any { return userId })
	return storage.Unavailable("redis", r.client.SAdd(ctx, UserIds, members...).Err())
}
