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
	"github.com/juju/ratelimit"
)

// RateLimiter hands out tokens without blocking.
type RateLimiter interface {
	// TakeAvailable takes up to count tokens and returns the number taken.
	TakeAvailable(count int64) int64
}

// NewRateLimiter creates a limiter refilled with rps tokens per second. A
// non-positive rps means unlimited.
func NewRateLimiter(rps int) RateLimiter {
	if rps <= 0 {
		return &Unlimited{}
	}
	return ratelimit.NewBucketWithRate(float64(rps), int64(rps))
}

type Unlimited struct{}

func (n *Unlimited) TakeAvailable(count int64) int64 {
	return count
}
