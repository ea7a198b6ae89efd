package main

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wiless/coverage"
	"github.com/wiless/coverage/metrics"
	"github.com/wiless/coverage/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the coverage HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		shutdown, err := initTracing(ctx, appConfig.Trace)
		if err != nil {
			return err
		}
		defer shutdownWithTimeout(shutdown)

		collector, err := metrics.NewCollector(prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}
		svc := coverage.NewService()
		svc.Metrics = collector
		if appConfig.Workers > 0 {
			svc.Workers = appConfig.Workers
		}

		if appConfig.MetricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", collector.Handler())
			metricsSrv := &http.Server{Addr: appConfig.MetricsAddr, Handler: mux}
			go func() {
				log.Infof("metrics on %s/metrics", appConfig.MetricsAddr)
				if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.WithError(err).Error("metrics server")
				}
			}()
			defer metricsSrv.Close()
		}

		srv := server.New(svc, appConfig.Grid, log.StandardLogger(), collector)
		return srv.ListenAndServe(ctx, appConfig.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "API listen address")
	serveCmd.Flags().String("metrics-addr", ":9090", "Prometheus listen address, empty to disable")
	_ = viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("metricsAddr", serveCmd.Flags().Lookup("metrics-addr"))
}
