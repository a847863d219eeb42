/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/webservice-umg/apiserver/config"
	"github.com/webservice-umg/apiserver/internal/db"
	"github.com/webservice-umg/apiserver/internal/logging"
	"github.com/webservice-umg/apiserver/internal/services"
	"github.com/webservice-umg/apiserver/internal/storage"
)

// exportCmd uploads a JSON snapshot of all users to object storage.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Upload a JSON snapshot of all users to object storage",
	Long: `Reads every user and writes exports/usuarios-<timestamp>.json to the
bucket selected by EXPORT_BACKEND (minio or gcs). Usage:

	usuarios export
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		logger := logging.Init(cfg.Log.Level, cfg.Log.Format)
		ctx := logger.WithContext(cmd.Context())

		handle, err := db.Open(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer handle.Close()
		if err := handle.EnsureSchema(ctx); err != nil {
			return err
		}

		objects, err := storage.NewFromConfig(ctx, cfg.Export)
		if err != nil {
			return err
		}
		defer objects.Close()

		exporter := services.NewExporter(services.NewUserService(handle, nil), objects)
		key, count, err := exporter.Export(ctx)
		if err != nil {
			return err
		}
		logger.Info().
			Str("bucket", objects.Bucket()).
			Str("key", key).
			Int("count", count).
			Msg("export uploaded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
