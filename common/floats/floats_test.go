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


package floats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDot(t *testing.T) {
	assert.Equal(t, 6.0, Dot([]float64{2}, []float64{3}))
	assert.Equal(t, 3.0, Dot([]float64{1, 0, 2}, []float64{3, 1, 0}))
	assert.Equal(t, 0.0, Dot(nil, nil))
	assert.Equal(t, -4.5, Dot([]float64{1.5, -1}, []float64{-1, 3}))
	assert.Panics(t, func() { Dot([]float64{1}, nil) })
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite([]float64{1, 2, 3}))
	assert.True(t, IsFinite(nil))
	assert.False(t, IsFinite([]float64{1, math.NaN()}))
	assert.False(t, IsFinite([]float64{math.Inf(-1)}))
}
