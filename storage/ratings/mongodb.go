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
	"strconv"
	"time"

	"github.com/gorse-io/cinerank/storage"
	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB reads ratings from documents of the form
// {customer_id: int, movie_id: int|string, rating: number, date: date|string}.
type MongoDB struct {
	client     *mongo.Client
	dbName     string
	collection string
}

// Init creates the rating collection and its index.
func (db *MongoDB) Init() error {
	ctx := context.Background()
	d := db.client.Database(db.dbName)
	collections, err := d.ListCollectionNames(ctx, bson.M{"name": db.collection})
	if err != nil {
		return storage.Unavailable("mongodb", err)
	}
	if len(collections) == 0 {
		if err = d.CreateCollection(ctx, db.collection); err != nil {
			return errors.Trace(err)
		}
	}
	_, err = d.Collection(db.collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "rating", Value: -1}},
	})
	return errors.Trace(err)
}

func (db *MongoDB) Ping(ctx context.Context) error {
	return storage.Unavailable("mongodb", db.client.Ping(ctx, nil))
}

// Close connection to MongoDB.
func (db *MongoDB) Close() error {
	return db.client.Disconnect(context.Background())
}

func (db *MongoDB) GetUserRatings(ctx context.Context, userId string) ([]Rating, error) {
	defer observe(GetUserRatingsSeconds, time.Now())
	customerId, err := parseCustomerId(userId)
	if err != nil {
		return nil, err
	}
	c := db.client.Database(db.dbName).Collection(db.collection)
	r, err := c.Find(ctx, bson.M{"customer_id": customerId},
		options.Find().SetProjection(bson.M{"movie_id": 1, "rating": 1, "date": 1}))
	if err != nil {
		return nil, storage.Unavailable("mongodb", err)
	}
	return decodeRatings(ctx, userId, r)
}

func (db *MongoDB) GetTopRatings(ctx context.Context, userId string, n int) ([]Rating, error) {
	defer observe(GetTopRatingsSeconds, time.Now())
	if n <= 0 {
		return []Rating{}, nil
	}
	customerId, err := parseCustomerId(userId)
	if err != nil {
		return nil, err
	}
	c := db.client.Database(db.dbName).Collection(db.collection)
	opt := options.Find()
	opt.SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "_id", Value: 1}})
	opt.SetLimit(int64(n))
	r, err := c.Find(ctx, bson.M{"customer_id": customerId}, opt)
	if err != nil {
		return nil, storage.Unavailable("mongodb", err)
	}
	return decodeRatings(ctx, userId, r)
}

func (db *MongoDB) BatchInsertRatings(ctx context.Context, ratings []Rating) error {
	if len(ratings) == 0 {
		return nil
	}
	documents := make([]any, 0, len(ratings))
	for _, rating := range ratings {
		customerId, err := parseCustomerId(rating.UserId)
		if err != nil {
			return err
		}
		document := bson.M{"customer_id": customerId, "rating": rating.Rating}
		if movieId, err := strconv.ParseInt(rating.ItemId, 10, 64); err == nil {
			document["movie_id"] = movieId
		} else {
			document["movie_id"] = rating.ItemId
		}
		if rating.Timestamp != nil {
			document["date"] = primitive.NewDateTimeFromTime(*rating.Timestamp)
		}
		documents = append(documents, document)
	}
	c := db.client.Database(db.dbName).Collection(db.collection)
	_, err := c.InsertMany(ctx, documents, options.InsertMany().SetOrdered(true))
	return storage.Unavailable("mongodb", err)
}

func parseCustomerId(userId string) (int64, error) {
	customerId, err := strconv.ParseInt(userId, 10, 64)
	if err != nil {
		return 0, errors.NewNotValid(err, "user id "+userId)
	}
	return customerId, nil
}

func decodeRatings(ctx context.Context, userId string, r *mongo.Cursor) ([]Rating, error) {
	defer r.Close(ctx)
	ratings := make([]Rating, 0)
	for r.Next(ctx) {
		var document bson.M
		if err := r.Decode(&document); err != nil {
			return nil, errors.Trace(err)
		}
		itemId, err := canonicalId(document["movie_id"])
		if err != nil {
			return nil, storage.Corrupted("movie id of rating", err)
		}
		value, err := toFloat(document["rating"])
		if err != nil {
			return nil, storage.Corrupted("rating", err)
		}
		rating := Rating{UserId: userId, ItemId: itemId, Rating: value}
		switch date := document["date"].(type) {
		case primitive.DateTime:
			t := date.Time().UTC()
			rating.Timestamp = &t
		case string:
			// dates imported from CSV are kept as strings
			if rating.Timestamp, err = ParseDate(date); err != nil {
				return nil, storage.Corrupted("date of rating", err)
			}
		}
		ratings = append(ratings, rating)
	}
	if err := r.Err(); err != nil {
		return nil, storage.Unavailable("mongodb", err)
	}
	return ratings, nil
}

// canonicalId converts a stored identifier into the string form used to key factors.
func canonicalId(v any) (string, error) {
	switch id := v.(type) {
	case string:
		return id, nil
	case int32:
		return strconv.FormatInt(int64(id), 10), nil
	case int64:
		return strconv.FormatInt(id, 10), nil
	case float64:
		if id == float64(int64(id)) {
			return strconv.FormatInt(int64(id), 10), nil
		}
		return strconv.FormatFloat(id, 'f', -1, 64), nil
	default:
		return "", errors.NotValidf("identifier %v", v)
	}
}

func toFloat(v any) (float64, error) {
	switch value := v.(type) {
	case int32:
		return float64(value), nil
	case int64:
		return float64(value), nil
	case float64:
		return value, nil
	case primitive.Decimal128:
		return strconv.ParseFloat(value.String(), 64)
	default:
		return 0, errors.NotValidf("rating %v", v)
	}
}
