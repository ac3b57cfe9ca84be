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
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gorse-io/cinerank/storage"
	"github.com/juju/errors"
	_ "github.com/lib/pq"
	"github.com/samber/lo"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

type SQLDriver int

const (
	MySQL SQLDriver = iota
	Postgres
	SQLite
)

func (d SQLDriver) String() string {
	switch d {
	case MySQL:
		return "mysql"
	case Postgres:
		return "postgres"
	default:
		return "sqlite"
	}
}

// SQLRating is the row layout of the rating table. Rows with equal ratings are
// ordered by Id, which follows insertion order.
type SQLRating struct {
	Id         int64      `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerId string     `gorm:"column:customer_id;type:varchar(256);index:customer_rating,priority:1"`
	MovieId    string     `gorm:"column:movie_id;type:varchar(256)"`
	Rating     float64    `gorm:"column:rating;index:customer_rating,priority:2"`
	Date       *time.Time `gorm:"column:date"`
}

// SQLDatabase keeps ratings in MySQL, Postgres or SQLite.
type SQLDatabase struct {
	gormDB *gorm.DB
	client *sql.DB
	driver SQLDriver
	table  string
}

func (d *SQLDatabase) Init() error {
	return errors.Trace(d.gormDB.Table(d.table).AutoMigrate(&SQLRating{}))
}

func (d *SQLDatabase) Ping(ctx context.Context) error {
	return storage.Unavailable(d.driver.String(), d.client.PingContext(ctx))
}

func (d *SQLDatabase) Close() error {
	return d.client.Close()
}

func (d *SQLDatabase) GetUserRatings(ctx context.Context, userId string) ([]Rating, error) {
	defer observe(GetUserRatingsSeconds, time.Now())
	var rows []SQLRating
	if err := d.gormDB.WithContext(ctx).Table(d.table).
		Where("customer_id = ?", userId).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, storage.UnavailableOnConnection(d.driver.String(), err)
	}
	return lo.Map(rows, toRating), nil
}

func (d *SQLDatabase) GetTopRatings(ctx context.Context, userId string, n int) ([]Rating, error) {
	defer observe(GetTopRatingsSeconds, time.Now())
	if n <= 0 {
		return []Rating{}, nil
	}
	var rows []SQLRating
	if err := d.gormDB.WithContext(ctx).Table(d.table).
		Where("customer_id = ?", userId).
		Order("rating desc, id").
		Limit(n).
		Find(&rows).Error; err != nil {
		return nil, storage.UnavailableOnConnection(d.driver.String(), err)
	}
	return lo.Map(rows, toRating), nil
}

func (d *SQLDatabase) BatchInsertRatings(ctx context.Context, ratings []Rating) error {
	if len(ratings) == 0 {
		return nil
	}
	rows := lo.Map(ratings, func(rating Rating, _ int) SQLRating {
		return SQLRating{
			CustomerId: rating.UserId,
			MovieId:    rating.ItemId,
			Rating:     rating.Rating,
			Date:       rating.Timestamp,
		}
	})
	return storage.UnavailableOnConnection(d.driver.String(), d.gormDB.WithContext(ctx).Table(d.table).Create(&rows).Error)
}

func toRating(row SQLRating, _ int) Rating {
	rating := Rating{
		UserId: row.CustomerId,
		ItemId: row.MovieId,
		Rating: row.Rating,
	}
	if row.Date != nil {
		t := row.Date.UTC()
		rating.Timestamp = &t
	}
	return rating
}
