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
	"bytes"
	"context"
	"encoding/json"

	"github.com/gorse-io/cinerank/storage"
	"github.com/juju/errors"
)

const (
	UserFactorsPrefix = "user_factors:"
	ItemFactors       = "item_factors"
	UserIds           = "user_ids"

	// FeaturesField is the hash field holding the latent vector of a user.
	FeaturesField = "features"
)

// Catalog maps item ids to latent factors. Iteration follows insertion order,
// which is the document order of the stored JSON object.
type Catalog struct {
	ids     []string
	vectors [][]float64
	index   map[string]int
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// Add inserts an item. Re-adding an item replaces its vector but keeps its position.
func (c *Catalog) Add(itemId string, vector []float64) {
	if i, exist := c.index[itemId]; exist {
		c.vectors[i] = vector
		return
	}
	c.index[itemId] = len(c.ids)
	c.ids = append(c.ids, itemId)
	c.vectors = append(c.vectors, vector)
}

// Len returns the number of items. A nil catalog is empty.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ids)
}

// ItemId returns the id of the i-th item.
func (c *Catalog) ItemId(i int) string {
	return c.ids[i]
}

// Vector returns the factors of the i-th item.
func (c *Catalog) Vector(i int) []float64 {
	return c.vectors[i]
}

// Get returns the factors of an item.
func (c *Catalog) Get(itemId string) ([]float64, bool) {
	if c == nil {
		return nil, false
	}
	i, exist := c.index[itemId]
	if !exist {
		return nil, false
	}
	return c.vectors[i], true
}

// ItemIds returns item ids in catalog order.
func (c *Catalog) ItemIds() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.ids...)
}

func (c *Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range c.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, errors.Trace(err)
		}
		value, err := json.Marshal(c.vectors[i])
		if err != nil {
			return nil, errors.Trace(err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *Catalog) UnmarshalJSON(data []byte) error {
	c.ids, c.vectors, c.index = nil, nil, make(map[string]int)
	decoder := json.NewDecoder(bytes.NewReader(data))
	token, err := decoder.Token()
	if err != nil {
		return errors.Trace(err)
	}
	if token == nil {
		return nil
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return errors.NotValidf("item factors must be a JSON object")
	}
	for decoder.More() {
		token, err = decoder.Token()
		if err != nil {
			return errors.Trace(err)
		}
		itemId, ok := token.(string)
		if !ok {
			return errors.NotValidf("item id %v", token)
		}
		var vector []float64
		if err = decoder.Decode(&vector); err != nil {
			return errors.Annotatef(err, "factors of item %s", itemId)
		}
		c.Add(itemId, vector)
	}
	if _, err = decoder.Token(); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// Database is the read contract on precomputed latent factors. Absent data is
// reported with a NotFound error and is never retried; failures to reach the
// store match storage.ErrUnavailable.
type Database interface {
	Ping(ctx context.Context) error
	Close() error
	GetUserFactors(ctx context.Context, userId string) ([]float64, error)
	GetItemFactors(ctx context.Context) (*Catalog, error)
	GetUserIds(ctx context.Context) ([]string, error)
	SetUserFactors(ctx context.Context, userId string, features []float64) error
	SetItemFactors(ctx context.Context, catalog *Catalog) error
	AddUserIds(ctx context.Context, userIds ...string) error
}

// Open a connection to a factor store.
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
