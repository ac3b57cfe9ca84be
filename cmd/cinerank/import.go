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
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gorse-io/cinerank/base/log"
	"github.com/gorse-io/cinerank/storage/items"
	"github.com/gorse-io/cinerank/storage/ratings"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const batchSize = 1000

var importCommand = &cobra.Command{
	Use:   "import",
	Short: "Import ratings or movies from CSV files.",
}

var importRatingsCommand = &cobra.Command{
	Use:   "ratings <csv>",
	Short: "Import ratings (customer_id,movie_id,rating[,date]).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		database, err := ratings.Open(conf.Database.RatingStore, conf.Database.RatingCollection, conf.Database.SQLOptions()...)
		if err != nil {
			return errors.Trace(err)
		}
		defer database.Close()
		if err = database.Init(); err != nil {
			return errors.Trace(err)
		}
		ctx := cmd.Context()
		batch := make([]ratings.Rating, 0, batchSize)
		count, err := importCSV(cmd, args[0], "Importing ratings", func(record []string) error {
			rating, err := parseRating(record)
			if err != nil {
				return errors.Trace(err)
			}
			batch = append(batch, rating)
			if len(batch) == batchSize {
				if err = database.BatchInsertRatings(ctx, batch); err != nil {
					return errors.Trace(err)
				}
				batch = batch[:0]
			}
			return nil
		})
		if err != nil {
			return errors.Trace(err)
		}
		if err = database.BatchInsertRatings(ctx, batch); err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("import ratings", zap.Int("n_ratings", count))
		return nil
	},
}

var importItemsCommand = &cobra.Command{
	Use:   "items <csv>",
	Short: "Import movies (movie_id,year_of_release,title).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		database, err := items.Open(conf.Database.GetItemStore())
		if err != nil {
			return errors.Trace(err)
		}
		defer database.Close()
		ctx := cmd.Context()
		sep, _ := cmd.Flags().GetString("sep")
		batch := make([]items.Item, 0, batchSize)
		count, err := importCSV(cmd, args[0], "Importing movies", func(record []string) error {
			item, err := parseItem(record, separator(sep))
			if err != nil {
				return errors.Trace(err)
			}
			batch = append(batch, item)
			if len(batch) == batchSize {
				if err = database.BatchInsertItems(ctx, batch); err != nil {
					return errors.Trace(err)
				}
				batch = batch[:0]
			}
			return nil
		})
		if err != nil {
			return errors.Trace(err)
		}
		if err = database.BatchInsertItems(ctx, batch); err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("import movies", zap.Int("n_movies", count))
		return nil
	},
}

func init() {
	importCommand.PersistentFlags().Bool("header", false, "skip the first line")
	importCommand.PersistentFlags().String("sep", ",", "field separator")
	importCommand.AddCommand(importRatingsCommand, importItemsCommand)
	rootCommand.AddCommand(importCommand)
}

// importCSV feeds every record of a CSV file to handle and returns the number of records.
func importCSV(cmd *cobra.Command, path, description string, handle func(record []string) error) (int, error) {
	header, _ := cmd.Flags().GetBool("header")
	sep, _ := cmd.Flags().GetString("sep")
	file, err := os.Open(path)
	if err != nil {
		return 0, errors.Trace(err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return 0, errors.Trace(err)
	}
	pbReader := progressbar.NewReader(file, progressbar.DefaultBytes(info.Size(), description))
	return readCSV(&pbReader, sep, header, handle)
}

func readCSV(r io.Reader, sep string, header bool, handle func(record []string) error) (int, error) {
	reader := csv.NewReader(r)
	reader.Comma = separator(sep)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	count := 0
	for lineNumber := 1; ; lineNumber++ {
		record, err := reader.Read()
		if err == io.EOF {
			return count, nil
		} else if err != nil {
			return count, errors.Trace(err)
		}
		if header && lineNumber == 1 {
			continue
		}
		if err = handle(record); err != nil {
			return count, errors.Annotatef(err, "line %d", lineNumber)
		}
		count++
	}
}

func parseRating(record []string) (ratings.Rating, error) {
	if len(record) < 3 {
		return ratings.Rating{}, errors.NotValidf("rating record %v", record)
	}
	rating := ratings.Rating{
		UserId: strings.TrimSpace(record[0]),
		ItemId: strings.TrimSpace(record[1]),
	}
	if rating.UserId == "" || rating.ItemId == "" {
		return ratings.Rating{}, errors.NotValidf("rating record %v", record)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return ratings.Rating{}, errors.NewNotValid(err, "rating "+record[2])
	}
	rating.Rating = value
	if len(record) > 3 {
		if rating.Timestamp, err = ratings.ParseDate(record[3]); err != nil {
			return ratings.Rating{}, errors.Trace(err)
		}
	}
	return rating, nil
}

// separator returns the first rune of sep, or a comma if sep is empty.
func separator(sep string) rune {
	for _, r := range sep {
		return r
	}
	return ','
}

// parseItem parses a line of movie titles. Titles may contain unquoted
// separators, so the fields after the year are joined back with sep.
func parseItem(record []string, sep rune) (items.Item, error) {
	if len(record) < 3 {
		return items.Item{}, errors.NotValidf("movie record %v", record)
	}
	item := items.Item{
		ItemId: strings.TrimSpace(record[0]),
		Title:  strings.Join(record[2:], string(sep)),
	}
	if item.ItemId == "" {
		return items.Item{}, errors.NotValidf("movie record %v", record)
	}
	if year := strings.TrimSpace(record[1]); year != "" && year != "NULL" {
		value, err := strconv.Atoi(year)
		if err != nil {
			return items.Item{}, errors.NewNotValid(err, "year "+year)
		}
		item.YearOfRelease = value
	}
	return item, nil
}

