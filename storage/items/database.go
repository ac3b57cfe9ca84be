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


package items

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gorse-io/cinerank/base/log"
	"github.com/gorse-io/cinerank/storage"
	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	// ItemPrefix is the prefix of metadata hashes, one per item.
	ItemPrefix = "movie:"

	TitleField         = "title"
	YearOfReleaseField = "year_of_release"
)

// Item is the metadata of a movie.
type Item struct {
	ItemId        string
	Title         string
	YearOfRelease int
	// Fields holds every field stored for the item.
	Fields map[string]string `json:",omitempty"`
}

type Database interface {
	Ping(ctx context.Context) error
	Close() error
	GetItem(ctx context.Context, itemId string) (Item, error)
	BatchInsertItems(ctx context.Context, items []Item) error
}

// Open a connection to a metadata store.
func Open(path string) (Database, error) {
	if storage.IsRedis(path) {
		client, err := storage.OpenRedis(path)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return &Redis{client: client}, nil
	}
	return nil, errors.Errorf("Unknown database: %s", path)
}

type Redis struct {
	client *redis.Client
}

func (r *Redis) Ping(ctx context.Context) error {
	return storage.Unavailable("redis", r.client.Ping(ctx).Err())
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// GetItem returns the metadata of an item. Items without a title are not found.
func (r *Redis) GetItem(ctx context.Context, itemId string) (Item, error) {
	defer func(start time.Time) {
		GetItemSeconds.Observe(time.Since(start).Seconds())
	}(time.Now())
	fields, err := r.client.HGetAll(ctx, ItemPrefix+itemId).Result()
	if err != nil {
		return Item{}, storage.Unavailable("redis", err)
	}
	title, exist := fields[TitleField]
	if !exist {
		return Item{}, errors.NotFoundf("item %s", itemId)
	}
	item := Item{ItemId: itemId, Title: title, Fields: fields}
	item.YearOfRelease = parseYear(itemId, fields[YearOfReleaseField])
	return item, nil
}

// parseYear reads a year of release. Years are stored as floats by some
// loaders, and unknown years ("NULL" in movie titles) become 0.
func parseYear(itemId, year string) int {
	year = strings.TrimSpace(year)
	if year == "" || year == "NULL" {
		return 0
	}
	value, err := strconv.ParseFloat(year, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		log.Logger().Warn("invalid year of release", zap.String("item_id", itemId), zap.String("year", year))
		return 0
	}
	return int(value)
}

func (r *Redis) BatchInsertItems(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	p := r.client.Pipeline()
	for _, item := range items {
		values := lo.MapValues(item.Fields, func(value string, _ string) any { return value })
		values[TitleField] = item.Title
		if item.YearOfRelease != 0 {
			values[YearOfReleaseField] = strconv.Itoa(item.YearOfRelease)
		}
		p.HSet(ctx, ItemPrefix+item.ItemId, values)
	}
	_, err := p.Exec(ctx)
	return storage.Unavailable("redis", err)
}
