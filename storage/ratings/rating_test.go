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
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestSortRatings(t *testing.T) {
	ratings := []Rating{
		{ItemId: "a", Rating: 3},
		{ItemId: "b", Rating: 5},
		{ItemId: "c", Rating: 3},
		{ItemId: "d", Rating: 5},
	}
	SortRatings(ratings)
	assert.Equal(t, []string{"b", "d", "a", "c"}, []string{ratings[0].ItemId, ratings[1].ItemId, ratings[2].ItemId, ratings[3].ItemId})
}

func TestParseDate(t *testing.T) {
	date, err := ParseDate("2005-09-06")
	assert.NoError(t, err)
	assert.Equal(t, 2005, date.Year())
	assert.Equal(t, 6, date.Day())
	date, err = ParseDate("  ")
	assert.NoError(t, err)
	assert.Nil(t, date)
	_, err = ParseDate("yesterday-ish")
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestOpenUnknown(t *testing.T) {
	_, err := Open("cassandra://localhost", "")
	assert.Error(t, err)
}
