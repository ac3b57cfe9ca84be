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


package factors

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorse-io/cinerank/storage"
	"github.com/juju/errors"
	"github.com/stretchr/testify/suite"
)

type RedisTestSuite struct {
	suite.Suite
	server   *miniredis.Miniredis
	Database Database
}

func (suite *RedisTestSuite) SetupTest() {
	var err error
	suite.server, err = miniredis.Run()
	suite.NoError(err)
	suite.Database, err = Open("redis://" + suite.server.Addr() + "/")
	suite.NoError(err)
}

func (suite *RedisTestSuite) TearDownTest() {
	suite.NoError(suite.Database.Close())
	suite.server.Close()
}

func (suite *RedisTestSuite) TestUserFactors() {
	ctx := context.Background()
	err := suite.Database.SetUserFactors(ctx, "1", []float64{1, 2, 3})
	suite.NoError(err)
	features, err := suite.Database.GetUserFactors(ctx, "1")
	suite.NoError(err)
	suite.Equal([]float64{1, 2, 3}, features)

	// layout written by the training job
	suite.server.HSet(UserFactorsPrefix+"2", FeaturesField, "[0.5, -1.5]")
	features, err = suite.Database.GetUserFactors(ctx, "2")
	suite.NoError(err)
	suite.Equal([]float64{0.5, -1.5}, features)

	_, err = suite.Database.GetUserFactors(ctx, "3")
	suite.True(errors.Is(err, errors.NotFound))

	suite.server.HSet(UserFactorsPrefix+"4", "bias", "1")
	_, err = suite.Database.GetUserFactors(ctx, "4")
	suite.True(errors.Is(err, errors.NotFound))

	suite.server.HSet(UserFactorsPrefix+"5", FeaturesField, "not json")
	_, err = suite.Database.GetUserFactors(ctx, "5")
	suite.ErrorIs(err, storage.ErrCorrupted)
	suite.False(errors.Is(err, errors.NotValid))
}

func (suite *RedisTestSuite) TestItemFactors() {
	ctx := context.Background()
	_, err := suite.Database.GetItemFactors(ctx)
	suite.True(errors.Is(err, errors.NotFound))

	suite.NoError(suite.server.Set(ItemFactors, `{"9":[1,0],"3":[0,1],"5":[1,1]}`))
	catalog, err := suite.Database.GetItemFactors(ctx)
	suite.NoError(err)
	suite.Equal([]string{"9", "3", "5"}, catalog.ItemIds())

	catalog.Add("7", []float64{2, 2})
	suite.NoError(suite.Database.SetItemFactors(ctx, catalog))
	catalog, err = suite.Database.GetItemFactors(ctx)
	suite.NoError(err)
	suite.Equal([]string{"9", "3", "5", "7"}, catalog.ItemIds())

	suite.NoError(suite.server.Set(ItemFactors, `[1, 2]`))
	_, err = suite.Database.GetItemFactors(ctx)
	suite.ErrorIs(err, storage.ErrCorrupted)
	suite.False(errors.Is(err, errors.NotValid))
}

func (suite *RedisTestSuite) TestUserIds() {
	ctx := context.Background()
	userIds, err := suite.Database.GetUserIds(ctx)
	suite.NoError(err)
	suite.Empty(userIds)
	suite.NoError(suite.Database.AddUserIds(ctx, "3", "1", "2"))
	suite.NoError(suite.Database.AddUserIds(ctx))
	userIds, err = suite.Database.GetUserIds(ctx)
	suite.NoError(err)
	suite.Equal([]string{"1", "2", "3"}, userIds)
}

func (suite *RedisTestSuite) TestUnavailable() {
	ctx := context.Background()
	suite.NoError(suite.Database.Ping(ctx))
	suite.server.Close()
	_, err := suite.Database.GetUserFactors(ctx, "1")
	suite.ErrorIs(err, storage.ErrUnavailable)
	_, err = suite.Database.GetItemFactors(ctx)
	suite.ErrorIs(err, storage.ErrUnavailable)
	suite.ErrorIs(suite.Database.Ping(ctx), storage.ErrUnavailable)
	// restart so that TearDownTest can close it again
	suite.NoError(suite.server.Restart())
}

func TestRedis(t *testing.T) {
	suite.Run(t, new(RedisTestSuite))
}
