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
	"encoding/json"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestCatalogOrder(t *testing.T) {
	catalog := NewCatalog()
	err := json.Unmarshal([]byte(`{"30":[1,2],"10":[3,4],"20":[5,6]}`), catalog)
	assert.NoError(t, err)
	assert.Equal(t, 3, catalog.Len())
	assert.Equal(t, []string{"30", "10", "20"}, catalog.ItemIds())
	assert.Equal(t, []float64{3, 4}, catalog.Vector(1))
	vector, exist := catalog.Get("20")
	assert.True(t, exist)
	assert.Equal(t, []float64{5, 6}, vector)
	_, exist = catalog.Get("40")
	assert.False(t, exist)

	data, err := json.Marshal(catalog)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"30":[1,2],"10":[3,4],"20":[5,6]}`, string(data))
	assert.Equal(t, `{"30":[1,2],"10":[3,4],"20":[5,6]}`, string(data))
}

func TestCatalogReplace(t *testing.T) {
	catalog := NewCatalog()
	catalog.Add("1", []float64{1})
	catalog.Add("2", []float64{2})
	catalog.Add("1", []float64{3})
	assert.Equal(t, []string{"1", "2"}, catalog.ItemIds())
	assert.Equal(t, []float64{3}, catalog.Vector(0))
}

func TestCatalogInvalid(t *testing.T) {
	catalog := NewCatalog()
	err := json.Unmarshal([]byte(`[1,2,3]`), catalog)
	assert.True(t, errors.Is(err, errors.NotValid))
	err = json.Unmarshal([]byte(`{"1":"abc"}`), catalog)
	assert.Error(t, err)
	err = json.Unmarshal([]byte(`{}`), catalog)
	assert.NoError(t, err)
	assert.Zero(t, catalog.Len())
}

func TestNilCatalog(t *testing.T) {
	var catalog *Catalog
	assert.Zero(t, catalog.Len())
	assert.Nil(t, catalog.ItemIds())
	_, exist := catalog.Get("1")
	assert.False(t, exist)
}

func TestOpen(t *testing.T) {
	_, err := Open("mongodb://localhost:27017")
	assert.Error(t, err)
}
