// Copyright 2021 gorse Project Authors
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


package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorse-io/cinerank/storage"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration for the recommender.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Server    ServerConfig    `mapstructure:"server"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// DatabaseConfig is the configuration for the stores.
type DatabaseConfig struct {
	FactorStore      string        `mapstructure:"factor_store" validate:"required"`
	RatingStore      string        `mapstructure:"rating_store" validate:"required"`
	ItemStore        string        `mapstructure:"item_store"`
	RatingCollection string        `mapstructure:"rating_collection" validate:"required"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxOpenConns     int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// RecommendConfig is the configuration for recommendation.
type RecommendConfig struct {
	DefaultN int    `mapstructure:"default_n" validate:"gt=0"`
	NumJobs  int    `mapstructure:"num_jobs" validate:"gt=0"`
	Filter   string `mapstructure:"filter"`
}

// CacheConfig is the configuration for the item metadata cache.
type CacheConfig struct {
	ItemCapacity uint64        `mapstructure:"item_capacity" validate:"gt=0"`
	ItemTTL      time.Duration `mapstructure:"item_ttl" validate:"gte=0"`
}

// ServerConfig is the configuration for the REST server.
type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	RateLimit int    `mapstructure:"rate_limit" validate:"gte=0"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			FactorStore:      "redis://127.0.0.1:6379/0",
			RatingStore:      "mongodb://127.0.0.1:27017/netflix",
			RatingCollection: "ratings",
			Timeout:          storage.DefaultTimeout,
		},
		Recommend: RecommendConfig{
			DefaultN: 10,
			NumJobs:  1,
		},
		Cache: CacheConfig{
			ItemCapacity: 10000,
			ItemTTL:      time.Hour,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8087,
		},
		Tracing: TracingConfig{
			Exporter: "otlp",
			Sampler:  "always",
			Ratio:    1,
		},
	}
}

// GetItemStore returns the metadata store, which is the factor store unless set.
func (config *DatabaseConfig) GetItemStore() string {
	if config.ItemStore == "" {
		return config.FactorStore
	}
	return config.ItemStore
}

// SQLOptions returns the connection pool options of SQL rating stores.
func (config *DatabaseConfig) SQLOptions() []storage.Option {
	return []storage.Option{
		storage.WithMaxOpenConns(config.MaxOpenConns),
		storage.WithMaxIdleConns(config.MaxIdleConns),
		storage.WithConnMaxLifetime(config.ConnMaxLifetime),
	}
}

func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.NewNotValid(err, "config")
	}
	if !storage.IsRedis(config.Database.FactorStore) {
		return errors.NotValidf("factor store %s", config.Database.FactorStore)
	}
	if !storage.IsRedis(config.Database.GetItemStore()) {
		return errors.NotValidf("item store %s", config.Database.GetItemStore())
	}
	return nil
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [database]
	v.SetDefault("database.factor_store", defaultConfig.Database.FactorStore)
	v.SetDefault("database.rating_store", defaultConfig.Database.RatingStore)
	v.SetDefault("database.item_store", defaultConfig.Database.ItemStore)
	v.SetDefault("database.rating_collection", defaultConfig.Database.RatingCollection)
	v.SetDefault("database.timeout", defaultConfig.Database.Timeout)
	v.SetDefault("database.max_open_conns", defaultConfig.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultConfig.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", defaultConfig.Database.ConnMaxLifetime)
	// [recommend]
	v.SetDefault("recommend.default_n", defaultConfig.Recommend.DefaultN)
	v.SetDefault("recommend.num_jobs", defaultConfig.Recommend.NumJobs)
	v.SetDefault("recommend.filter", defaultConfig.Recommend.Filter)
	// [cache]
	v.SetDefault("cache.item_capacity", defaultConfig.Cache.ItemCapacity)
	v.SetDefault("cache.item_ttl", defaultConfig.Cache.ItemTTL)
	// [server]
	v.SetDefault("server.host", defaultConfig.Server.Host)
	v.SetDefault("server.port", defaultConfig.Server.Port)
	v.SetDefault("server.rate_limit", defaultConfig.Server.RateLimit)
	// [tracing]
	v.SetDefault("tracing.enable_tracing", defaultConfig.Tracing.EnableTracing)
	v.SetDefault("tracing.exporter", defaultConfig.Tracing.Exporter)
	v.SetDefault("tracing.collector_endpoint", defaultConfig.Tracing.CollectorEndpoint)
	v.SetDefault("tracing.sampler", defaultConfig.Tracing.Sampler)
	v.SetDefault("tracing.ratio", defaultConfig.Tracing.Ratio)
}

type binding struct {
	key string
	env string
}

func bindEnv(v *viper.Viper) {
	bindings := []binding{
		{"database.factor_store", "CINERANK_FACTOR_STORE"},
		{"database.rating_store", "CINERANK_RATING_STORE"},
		{"database.item_store", "CINERANK_ITEM_STORE"},
		{"database.rating_collection", "CINERANK_RATING_COLLECTION"},
		{"recommend.num_jobs", "CINERANK_NUM_JOBS"},
		{"server.port", "CINERANK_SERVER_PORT"},
		{"server.host", "CINERANK_SERVER_HOST"},
	}
	for _, binding := range bindings {
		// BindEnv fails only without a key
		_ = v.BindEnv(binding.key, binding.env)
	}
}

// LoadConfig loads configuration from a TOML file. Environment variables
// override the file and defaults fill what neither sets. An empty path loads
// defaults and environment variables only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	bindEnv(v)
	v.SetEnvPrefix("CINERANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigType("toml")
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}
