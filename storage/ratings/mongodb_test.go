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
	"os"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MongoTestSuite struct {
	baseTestSuite
}

func (suite *MongoTestSuite) SetupTest() {
	var err error
	suite.Database, err = Open(os.Getenv("MONGO_URI")+"cinerank_test?authSource=admin", "ratings")
	suite.NoError(err)
	mongo := suite.Database.(*MongoDB)
	suite.NoError(mongo.client.Database(mongo.dbName).Collection(mongo.collection).Drop(context.Background()))
	suite.NoError(suite.Database.Init())
	suite.preservesDates = true
}

func (suite *MongoTestSuite) TearDownTest() {
	suite.NoError(suite.Database.Close())
}

func (suite *MongoTestSuite) TestMixedTypes() {
	ctx := context.Background()
	mongo := suite.Database.(*MongoDB)
	c := mongo.client.Database(mongo.dbName).Collection(mongo.collection)
	_, err := c.InsertMany(ctx, []any{
		bson.M{"customer_id": int32(7), "movie_id": int32(1), "rating": int32(4), "date": "2005-09-06"},
		bson.M{"customer_id": int64(7), "movie_id": "2", "rating": 3.5},
		bson.M{"customer_id": 7.0, "movie_id": 3.0, "rating": int64(2)},
	})
	suite.NoError(err)
	ratings, err := suite.Database.GetTopRatings(ctx, "7", 10)
	suite.NoError(err)
	suite.Len(ratings, 3)
	suite.Equal(Rating{UserId: "7", ItemId: "1", Rating: 4, Timestamp: suite.date(6)}, ratings[0])
	suite.Equal("2", ratings[1].ItemId)
	suite.Equal("3", ratings[2].ItemId)

	_, err = suite.Database.GetUserRatings(ctx, "abc")
	suite.True(errors.Is(err, errors.NotValid))
}

func TestMongoDB(t *testing.T) {
	if os.Getenv("MONGO_URI") == "" {
		t.Skip("MONGO_URI is not set")
	}
	suite.Run(t, new(MongoTestSuite))
}

func TestCanonicalId(t *testing.T) {
	for _, c := range []struct {
		value    any
		expected string
	}{
		{"tt0111161", "tt0111161"},
		{int32(42), "42"},
		{int64(42), "42"},
		{42.0, "42"},
		{4.5, "4.5"},
	} {
		id, err := canonicalId(c.value)
		assert.NoError(t, err)
		assert.Equal(t, c.expected, id)
	}
	_, err := canonicalId(true)
	assert.True(t, errors.Is(err, errors.NotValid))

	value, err := toFloat(int32(3))
	assert.NoError(t, err)
	assert.Equal(t, 3.0, value)
	_, err = toFloat(primitive.Null{})
	assert.Error(t, err)
}
