// Copyright 2022 gorse Project Authors
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

package log

import (
	"net/url"
	"os"
	"strings"

	"github.com/emicklei/go-restful/v3"
	"github.com/go-sql-driver/mysql"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	flagLogPath       = "log-path"
	flagLogMaxSize    = "log-max-size"
	flagLogMaxAge     = "log-max-age"
	flagLogMaxBackups = "log-max-backups"

	requestIdHeader = "X-Request-ID"
	timeLayout      = "2006-01-02 15:04:05.999999"
)

var logger = zap.Must(zap.NewDevelopment())

// Logger returns the process logger.
func Logger() *zap.Logger {
	return logger
}

// ResponseLogger tags the process logger with the request id of a REST call.
func ResponseLogger(resp *restful.Response) *zap.Logger {
	return logger.With(zap.String("request_id", resp.Header().Get(requestIdHeader)))
}

// CloseLogger silences everything below fatal.
func CloseLogger() {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.FatalLevel)
	logger = zap.Must(cfg.Build())
}

// AddFlags registers the log file flags read by SetLogger.
func AddFlags(flagSet *pflag.FlagSet) {
	flagSet.String(flagLogPath, "", "path of log file")
	flagSet.Int(flagLogMaxSize, 100, "maximum size in megabytes of the log file")
	flagSet.Int(flagLogMaxAge, 0, "maximum number of days to retain old log files")
	flagSet.Int(flagLogMaxBackups, 0, "maximum number of old log files to retain")
}

// SetLogger replaces the process logger. Debug mode writes colored console
// lines at debug level, otherwise JSON at info level. Logs always go to
// stdout and also to a rotated file if --log-path is set.
func SetLogger(flagSet *pflag.FlagSet, debug bool) {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}
	core := zapcore.NewCore(newEncoder(debug), zap.CombineWriteSyncers(newWriters(flagSet)...), level)
	logger = zap.New(core)
}

func newEncoder(debug bool) zapcore.Encoder {
	if debug {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
		return zapcore.NewConsoleEncoder(cfg)
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	return zapcore.NewJSONEncoder(cfg)
}

func newWriters(flagSet *pflag.FlagSet) []zapcore.WriteSyncer {
	writers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if !flagSet.Changed(flagLogPath) {
		return writers
	}
	path, _ := flagSet.GetString(flagLogPath)
	maxSize, _ := flagSet.GetInt(flagLogMaxSize)
	maxAge, _ := flagSet.GetInt(flagLogMaxAge)
	maxBackups, _ := flagSet.GetInt(flagLogMaxBackups)
	return append(writers, zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize,
		MaxAge:     maxAge,
		MaxBackups: maxBackups,
	}))
}

const mysqlPrefix = "mysql://"

// RedactURL masks credentials of a store URL before it is logged. Unparsable
// URLs are returned unchanged.
func RedactURL(rawURL string) string {
	mask := func(s string) string { return strings.Repeat("x", len(s)) }
	if dsn, ok := strings.CutPrefix(rawURL, mysqlPrefix); ok {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return rawURL
		}
		cfg.User, cfg.Passwd = mask(cfg.User), mask(cfg.Passwd)
		return mysqlPrefix + cfg.FormatDSN()
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.User == nil {
		return rawURL
	}
	if password, ok := parsed.User.Password(); ok {
		parsed.User = url.UserPassword(mask(parsed.User.Username()), mask(password))
	} else {
		parsed.User = url.User(mask(parsed.User.Username()))
	}
	return parsed.String()
}

// GetErrorHandler reports OpenTelemetry failures through the process logger.
func GetErrorHandler() otel.ErrorHandler {
	return otel.ErrorHandlerFunc(func(err error) {
		Logger().Error("opentelemetry failure", zap.Error(err))
	})
}
