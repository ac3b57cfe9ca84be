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


package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

type failingPinger struct {
	calls int
}

func (p *failingPinger) Ping(context.Context) error {
	p.calls++
	return errors.New("connection refused")
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func TestOpenRedis(t *testing.T) {
	server, err := miniredis.Run()
	assert.NoError(t, err)
	defer server.Close()

	client, err := OpenRedis(RedisPrefix + server.Addr())
	assert.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Set(context.Background(), "key", "value", 0).Err())
	server.CheckGet(t, "key", "value")

	_, err = OpenRedis("http://" + server.Addr())
	assert.Error(t, err)
}

func TestWaitReady(t *testing.T) {
	server, err := miniredis.Run()
	assert.NoError(t, err)
	defer server.Close()
	client, err := OpenRedis(RedisPrefix + server.Addr())
	assert.NoError(t, err)
	defer client.Close()
	assert.NoError(t, WaitReady(context.Background(), "redis", redisPinger{client}, time.Second))

	pinger := &failingPinger{}
	err = WaitReady(context.Background(), "redis", pinger, 300*time.Millisecond)
	assert.True(t, IsUnavailable(err))
	assert.GreaterOrEqual(t, pinger.calls, 1)
}
