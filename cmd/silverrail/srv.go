package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"silverrail/internal/blobstore"
	"silverrail/internal/config"
	"silverrail/internal/server"
	"silverrail/internal/store"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the silverrail API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}
			if cfg.MediaRoot == "" {
				return fmt.Errorf("media root is required")
			}

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			logger.Info("opening database", "path", cfg.DBPath)
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			blobs, err := blobstore.NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
			if err != nil {
				return err
			}

			srv, err := server.New(st, blobs, server.Options{
				Addr:           addr,
				DBPath:         cfg.DBPath,
				MediaRoot:      cfg.MediaRoot,
				Uploads:        cfg.Uploads,
				Throttle:       cfg.Throttle,
				MetricsEnabled: cfg.Metrics.Enabled,
				Logger:         logger,
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe()
		},
	}
}
