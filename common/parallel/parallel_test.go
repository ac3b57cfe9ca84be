// Copyright 2021 gorse Project Authors
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
	"context"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestParallel(t *testing.T) {
	a := lo.Range(10000)
	b := make([]int, len(a))
	workerIds := make([]int, len(a))
	// multiple threads
	err := Parallel(context.Background(), len(a), 4, func(workerId, jobId int) error {
		b[jobId] = a[jobId]
		workerIds[jobId] = workerId
		time.Sleep(time.Microsecond)
		return nil
	})
	assert.NoError(t, err)
	workersSet := mapset.NewSet(workerIds...)
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, 4, workersSet.Cardinality())
	// single thread
	err = Parallel(context.Background(), len(a), 1, func(workerId, jobId int) error {
		b[jobId] = a[jobId]
		workerIds[jobId] = workerId
		return nil
	})
	assert.NoError(t, err)
	workersSet = mapset.NewSet(workerIds...)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, workersSet.Cardinality())
}

func TestParallelError(t *testing.T) {
	err := Parallel(context.Background(), 100, 4, func(workerId, jobId int) error {
		if jobId == 42 {
			return errors.New("job failed")
		}
		return nil
	})
	assert.Error(t, err)

	err = Parallel(context.Background(), 100, 4, func(workerId, jobId int) error {
		if jobId == 7 {
			panic("boom")
		}
		return nil
	})
	assert.Error(t, err)
}

func TestParallelCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Parallel(ctx, 100, 4, func(workerId, jobId int) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	err = Parallel(ctx, 100, 1, func(workerId, jobId int) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplit(t *testing.T) {
	a := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	b := Split(a, 3)
	assert.Equal(t, [][]int{{1, 2, 3, 4}, {5, 6, 7}, {8, 9, 10}}, b)

	a = []int{1, 2, 3}
	b = Split(a, 5)
	assert.Equal(t, [][]int{{1}, {2}, {3}}, b)

	assert.Nil(t, Split([]int{}, 3))
	assert.Equal(t, [][]int{{1, 2}}, Split([]int{1, 2}, 0))
}
