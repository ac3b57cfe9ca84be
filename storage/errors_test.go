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


package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net"
	"syscall"
	"testing"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestUnavailable(t *testing.T) {
	assert.NoError(t, Unavailable("redis", nil))

	err := Unavailable("redis", context.DeadlineExceeded)
	assert.True(t, IsUnavailable(err))
	assert.True(t, IsTimeout(err))
	assert.False(t, errors.Is(err, errors.NotFound))
	assert.Equal(t, "redis unavailable: context deadline exceeded", err.Error())

	// survives tracing and double wrapping
	traced := errors.Trace(Unavailable("mongo", Unavailable("mongo", errors.New("connection refused"))))
	assert.True(t, IsUnavailable(traced))
	assert.False(t, IsTimeout(traced))

	assert.False(t, IsUnavailable(errors.NotFoundf("user 1")))
}

func TestCorrupted(t *testing.T) {
	assert.NoError(t, Corrupted("item factors", nil))
	err := errors.Trace(Corrupted("item factors", errors.NotValidf("item id 1")))
	assert.ErrorIs(t, err, ErrCorrupted)
	assert.False(t, errors.Is(err, errors.NotValid))
	assert.False(t, IsUnavailable(err))
	assert.Contains(t, err.Error(), "corrupted item factors")
}

func TestUnavailableOnConnection(t *testing.T) {
	assert.NoError(t, UnavailableOnConnection("sqlite", nil))
	assert.True(t, IsUnavailable(UnavailableOnConnection("mysql", driver.ErrBadConn)))
	assert.True(t, IsUnavailable(UnavailableOnConnection("mysql", sql.ErrConnDone)))
	assert.True(t, IsUnavailable(UnavailableOnConnection("mysql", context.DeadlineExceeded)))
	assert.True(t, IsUnavailable(UnavailableOnConnection("postgres", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED})))
	assert.True(t, IsUnavailable(UnavailableOnConnection("sqlite", errors.New("sql: database is closed"))))
	err := UnavailableOnConnection("sqlite", errors.New("no such table: ratings"))
	assert.Error(t, err)
	assert.False(t, IsUnavailable(err))
}

func TestAppendURLParams(t *testing.T) {
	url, err := AppendURLParams("sqlite:///tmp/ratings.db", []lo.Tuple2[string, string]{
		{A: "_pragma", B: "busy_timeout(10000)"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "sqlite:///tmp/ratings.db?_pragma=busy_timeout%2810000%29", url)
}

func TestAppendMySQLParams(t *testing.T) {
	dsn, err := AppendMySQLParams("cinerank:pass@tcp(localhost:3306)/cinerank", map[string]string{
		"sql_mode": "ANSI",
	})
	assert.NoError(t, err)
	assert.Contains(t, dsn, "sql_mode=ANSI")
	_, err = AppendMySQLParams("not a dsn", nil)
	assert.Error(t, err)
}

func TestPrefixes(t *testing.T) {
	assert.True(t, IsRedis("redis://127.0.0.1:6379/0"))
	assert.True(t, IsRedis("rediss://127.0.0.1:6379/0"))
	assert.False(t, IsRedis("mongodb://127.0.0.1:27017/"))
	assert.True(t, IsMongo("mongodb+srv://cluster0.example.com/netflix"))
}
