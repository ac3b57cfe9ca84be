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
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorse-io/cinerank/base/log"
	"github.com/juju/errors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OpenRedis creates an instrumented Redis client from a redis:// or rediss:// URL.
// No connection is made until the first command.
func OpenRedis(path string) (*redis.Client, error) {
	opt, err := redis.ParseURL(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	client := redis.NewClient(opt)
	if err = redisotel.InstrumentTracing(client); err != nil {
		log.Logger().Warn("failed to instrument redis client", zap.Error(err))
	}
	return client, nil
}

// Pinger is implemented by every store handle.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitReady pings a store until it answers, backing off exponentially. It gives up
// after maxElapsed and returns an error matching ErrUnavailable.
func WaitReady(ctx context.Context, name string, db Pinger, maxElapsed time.Duration) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		pingCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
		if err := db.Ping(pingCtx); err != nil {
			log.Logger().Warn("store is not ready", zap.String("store", name), zap.Error(err))
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(maxElapsed))
	return Unavailable(name, err)
}
