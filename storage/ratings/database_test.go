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
	"time"

	"github.com/stretchr/testify/suite"
)

type baseTestSuite struct {
	suite.Suite
	Database Database
	// preservesDates is false for stores that drop rating dates.
	preservesDates bool
}

func (suite *baseTestSuite) date(day int) *time.Time {
	t := time.Date(2005, 9, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func (suite *baseTestSuite) insertRatings() {
	ctx := context.Background()
	err := suite.Database.BatchInsertRatings(ctx, []Rating{
		{UserId: "1", ItemId: "10", Rating: 3, Timestamp: suite.date(1)},
		{UserId: "1", ItemId: "20", Rating: 5, Timestamp: suite.date(2)},
		{UserId: "1", ItemId: "30", Rating: 4, Timestamp: suite.date(3)},
		{UserId: "1", ItemId: "40", Rating: 5, Timestamp: suite.date(4)},
		{UserId: "2", ItemId: "10", Rating: 1, Timestamp: suite.date(5)},
	})
	suite.NoError(err)
}

func (suite *baseTestSuite) TestGetUserRatings() {
	suite.insertRatings()
	ctx := context.Background()
	ratings, err := suite.Database.GetUserRatings(ctx, "1")
	suite.NoError(err)
	suite.Len(ratings, 4)
	itemIds := make([]string, 0, len(ratings))
	for _, rating := range ratings {
		suite.Equal("1", rating.UserId)
		itemIds = append(itemIds, rating.ItemId)
	}
	suite.ElementsMatch([]string{"10", "20", "30", "40"}, itemIds)

	// user without ratings
	ratings, err = suite.Database.GetUserRatings(ctx, "3")
	suite.NoError(err)
	suite.NotNil(ratings)
	suite.Empty(ratings)
}

func (suite *baseTestSuite) TestGetTopRatings() {
	suite.insertRatings()
	ctx := context.Background()
	ratings, err := suite.Database.GetTopRatings(ctx, "1", 3)
	suite.NoError(err)
	suite.Len(ratings, 3)
	suite.Equal("20", ratings[0].ItemId)
	suite.Equal(5.0, ratings[0].Rating)
	suite.Equal("40", ratings[1].ItemId)
	suite.Equal(5.0, ratings[1].Rating)
	suite.Equal("30", ratings[2].ItemId)
	suite.Equal(4.0, ratings[2].Rating)
	if suite.preservesDates {
		suite.Equal(suite.date(2).Unix(), ratings[0].Timestamp.Unix())
	}

	// fewer ratings than requested
	ratings, err = suite.Database.GetTopRatings(ctx, "2", 10)
	suite.NoError(err)
	suite.Len(ratings, 1)
	suite.Equal(1.0, ratings[0].Rating)

	ratings, err = suite.Database.GetTopRatings(ctx, "1", 0)
	suite.NoError(err)
	suite.Empty(ratings)

	ratings, err = suite.Database.GetTopRatings(ctx, "3", 10)
	suite.NoError(err)
	suite.Empty(ratings)
}
