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
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"
)

type RedisTestSuite struct {
	baseTestSuite
	server *miniredis.Miniredis
}

func (suite *RedisTestSuite) SetupTest() {
	var err error
	suite.server, err = miniredis.Run()
	suite.NoError(err)
	suite.Database, err = Open("redis://"+suite.server.Addr()+"/", "")
	suite.NoError(err)
	suite.NoError(suite.Database.Init())
}

func (suite *RedisTestSuite) TearDownTest() {
	suite.NoError(suite.Database.Close())
	suite.server.Close()
}

func (suite *RedisTestSuite) TestLayout() {
	suite.insertRatings()
	score, err := suite.server.ZScore("ratings:1", "30")
	suite.NoError(err)
	suite.Equal(4.0, score)
	suite.NoError(suite.Database.Ping(context.Background()))
}

func TestRedis(t *testing.T) {
	suite.Run(t, new(RedisTestSuite))
}
