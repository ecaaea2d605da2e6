package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload form",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, parser, aggregated := newForm(cfg, logger)
		h := &handler{
			form:       f,
			parser:     parser,
			mode:       cfg.Backend.Mode,
			aggregated: aggregated,
			logger:     logger.Named("http"),
		}
		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router(h),
			ReadHeaderTimeout: 10 * time.Second,
		}
		logger.Info("serving upload form",
			zap.String("addr", cfg.Server.Addr),
			zap.String("backend", cfg.Backend.URL),
			zap.String("mode", cfg.Backend.Mode))
		return listenAndServe(cmd.Context(), srv)
	},
}

// listenAndServe runs srv until it fails or the process is interrupted.
func listenAndServe(ctx context.Context, srv *http.Server) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down", zap.String("addr", srv.Addr))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
