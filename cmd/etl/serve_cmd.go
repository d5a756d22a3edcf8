package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/iota-uz/sigos-etl/modules/reports/presentation/controllers"
	"github.com/iota-uz/sigos-etl/pkg/configuration"
)

func newServeCmd() *cobra.Command {
	var waitDownloads bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline API and loaded report data over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf := configuration.Use()
			logger := conf.Logger()

			repo := buildRepository(conf)
			defer repo.Close()
			etl := buildETL(conf, repo, waitDownloads)

			r := mux.NewRouter()
			controllers.NewReportsAPIController(etl, repo, logger).Register(r)
			r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

			srv := &http.Server{
				Addr:         conf.SocketAddress,
				Handler:      r,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Minute,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Infof("server: listening on %s", conf.SocketAddress)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info("server: shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&waitDownloads, "wait-downloads", false, "announce portal date windows and wait for fresh exports on triggered runs")
	return cmd
}
