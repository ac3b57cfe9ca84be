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
	"context"
	"sort"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/araddon/dateparse"
	"github.com/gorse-io/cinerank/base/log"
	"github.com/gorse-io/cinerank/storage"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DefaultCollection is the collection (or table) holding ratings.
const DefaultCollection = "ratings"

// Rating is a rating given by a user to an item.
type Rating struct {
	UserId    string     `json:"UserId"`
	ItemId    string     `json:"ItemId"`
	Rating    float64    `json:"Rating"`
	Timestamp *time.Time `json:"Timestamp,omitempty"`
}

// SortRatings sorts ratings by value in descending order. Equal ratings keep their order.
func SortRatings(ratings []Rating) {
	sort.SliceStable(ratings, func(i, j int) bool {
		return ratings[i].Rating > ratings[j].Rating
	})
}

// ParseDate parses a date in any layout recognized by dateparse.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil, errors.NewNotValid(err, "date "+s)
	}
	return &t, nil
}

// Database is the read contract on rating history. A user without ratings has
// an empty history, not an error.
type Database interface {
	Init() error
	Ping(ctx context.Context) error
	Close() error
	GetUserRatings(ctx context.Context, userId string) ([]Rating, error)
	GetTopRatings(ctx context.Context, userId string, n int) ([]Rating, error)
	BatchInsertRatings(ctx context.Context, ratings []Rating) error
}

// Open a connection to a rating store. Ratings are read from the given
// collection, or table for SQL databases. Options tune SQL connection pools.
func Open(path, collection string, opts ...storage.Option) (Database, error) {
	var err error
	option := storage.NewOptions(opts...)
	if collection == "" {
		collection = DefaultCollection
	}
	if strings.HasPrefix(path, storage.MySQLPrefix) {
		name := path[len(storage.MySQLPrefix):]
		if name, err = storage.AppendMySQLParams(name, map[string]string{
			"sql_mode":  "'ONLY_FULL_GROUP_BY,STRICT_TRANS_TABLES,ERROR_FOR_DIVISION_BY_ZERO,NO_ENGINE_SUBSTITUTION'",
			"parseTime": "true",
		}); err != nil {
			return nil, errors.Trace(err)
		}
		database := &SQLDatabase{driver: MySQL, table: collection}
		if database.client, err = otelsql.Open("mysql", name,
			otelsql.WithAttributes(attribute.String("db.system", "mysql")),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		storage.ApplySQLPool(database.client, option)
		database.gormDB, err = gorm.Open(mysql.New(mysql.Config{Conn: database.client}), storage.NewGORMConfig(""))
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if strings.HasPrefix(path, storage.PostgresPrefix) || strings.HasPrefix(path, storage.PostgreSQLPrefix) {
		database := &SQLDatabase{driver: Postgres, table: collection}
		if database.client, err = otelsql.Open("postgres", path,
			otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		storage.ApplySQLPool(database.client, option)
		database.gormDB, err = gorm.Open(postgres.New(postgres.Config{Conn: database.client}), storage.NewGORMConfig(""))
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if strings.HasPrefix(path, storage.SQLitePrefix) {
		if path, err = storage.AppendURLParams(path, []lo.Tuple2[string, string]{
			{A: "_pragma", B: "busy_timeout(10000)"},
			{A: "_pragma", B: "journal_mode(wal)"},
		}); err != nil {
			return nil, errors.Trace(err)
		}
		name := path[len(storage.SQLitePrefix):]
		database := &SQLDatabase{driver: SQLite, table: collection}
		if database.client, err = otelsql.Open("sqlite", name,
			otelsql.WithAttributes(attribute.String("db.system", "sqlite")),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		storage.ApplySQLPool(database.client, option)
		database.gormDB, err = gorm.Open(sqlite.Dialector{Conn: database.client}, storage.NewGORMConfig(""))
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if storage.IsMongo(path) {
		database := &MongoDB{collection: collection}
		opts := options.Client()
		opts.Monitor = otelmongo.NewMonitor()
		opts.ApplyURI(path)
		if database.client, err = mongo.Connect(context.Background(), opts); err != nil {
			return nil, errors.Trace(err)
		}
		// parse DSN and extract database name
		if cs, err := connstring.ParseAndValidate(path); err != nil {
			return nil, errors.Trace(err)
		} else {
			database.dbName = cs.Database
		}
		return database, nil
	} else if storage.IsRedis(path) {
		client, err := storage.OpenRedis(path)
		if err != nil {
			return nil, errors.Trace(err)
		}
		log.Logger().Warn("redis is used as rating store for testing only")
		return &Redis{client: client, prefix: collection + ":"}, nil
	}
	return nil, errors.Errorf("Unknown database: %s", path)
}
