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


package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/gorse-io/cinerank/base/log"
	"github.com/gorse-io/cinerank/recommend"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var recommendCommand = &cobra.Command{
	Use:   "recommend <user-id>",
	Short: "Recommend movies to a user.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("n")
		return withService(cmd, func(ctx context.Context, service *recommend.Service) error {
			recommendations, err := service.Recommend(ctx, args[0], n)
			if err != nil {
				return errors.Trace(err)
			}
			return renderRecommendations(recommendations, "Score")
		})
	},
}

var topRatedCommand = &cobra.Command{
	Use:   "top-rated <user-id>",
	Short: "Show movies rated highest by a user.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("n")
		return withService(cmd, func(ctx context.Context, service *recommend.Service) error {
			recommendations, err := service.TopRated(ctx, args[0], n)
			if err != nil {
				return errors.Trace(err)
			}
			return renderRecommendations(recommendations, "Rating")
		})
	},
}

var usersCommand = &cobra.Command{
	Use:   "users",
	Short: "List users with latent factors.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, _ := cmd.Flags().GetInt("offset")
		n, _ := cmd.Flags().GetInt("n")
		return withService(cmd, func(ctx context.Context, service *recommend.Service) error {
			userIds, err := service.Users(ctx, offset, n)
			if err != nil {
				return errors.Trace(err)
			}
			for _, userId := range userIds {
				fmt.Println(userId)
			}
			return nil
		})
	},
}

func init() {
	recommendCommand.Flags().IntP("n", "n", 10, "number of recommended movies")
	topRatedCommand.Flags().IntP("n", "n", 10, "number of movies")
	usersCommand.Flags().Int("offset", 0, "offset of the first user")
	usersCommand.Flags().IntP("n", "n", 50, "number of users")
	rootCommand.AddCommand(recommendCommand, topRatedCommand, usersCommand)
}

func withService(cmd *cobra.Command, f func(ctx context.Context, service *recommend.Service) error) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// keep tables readable
	if debug, _ := cmd.Flags().GetBool("debug"); !debug {
		log.CloseLogger()
	}
	ctx := cmd.Context()
	service, err := recommend.OpenService(ctx, conf)
	if err != nil {
		return errors.Trace(err)
	}
	defer service.Close()
	return f(ctx, service)
}

func renderRecommendations(recommendations []recommend.Recommendation, scoreName string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Rank", "Movie", "Title", "Year", scoreName)
	for _, r := range recommendations {
		if err := table.Append([]string{
			strconv.Itoa(r.Rank),
			r.ItemId,
			r.Title,
			strconv.Itoa(r.YearOfRelease),
			strconv.FormatFloat(r.Score, 'f', 4, 64),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}
