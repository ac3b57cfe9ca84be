// Copyright 2025 gorse Project Authors
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


package parallel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnlimited(t *testing.T) {
	limiter := NewRateLimiter(0)
	for i := 0; i < 1000; i++ {
		assert.Equal(t, int64(1), limiter.TakeAvailable(1))
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(10)
	taken := int64(0)
	for i := 0; i < 20; i++ {
		taken += limiter.TakeAvailable(1)
	}
	assert.GreaterOrEqual(t, taken, int64(10))
	assert.Less(t, taken, int64(20))
}
