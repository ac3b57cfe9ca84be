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


package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorse-io/cinerank/base/log"
	"github.com/gorse-io/cinerank/recommend"
	"github.com/gorse-io/cinerank/server"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Serve recommendations over REST APIs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		// setup trace provider
		tp, err := conf.Tracing.NewTracerProvider()
		if err != nil {
			return errors.Annotate(err, "failed to create trace provider")
		}
		otel.SetTracerProvider(tp)
		otel.SetErrorHandler(log.GetErrorHandler())
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		service, err := recommend.OpenService(ctx, conf)
		if err != nil {
			return errors.Trace(err)
		}
		defer service.Close()
		// item factors may be written after startup
		if _, err = service.Reload(ctx); err != nil {
			log.Logger().Warn("failed to load item factors", zap.Error(err))
		}

		s := server.NewRestServer(conf, service)
		if err = s.Serve(ctx); err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("stop cinerank successfully")
		return nil
	},
}

func init() {
	rootCommand.AddCommand(serveCommand)
}
