/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/webservice-umg/apiserver/config"
	"github.com/webservice-umg/apiserver/internal/db"
	"github.com/webservice-umg/apiserver/internal/logging"
)

// schemaCmd represents the schema command.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage the database schema",
}

var schemaUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Create the usuarios table if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		logger := logging.Init(cfg.Log.Level, cfg.Log.Format)

		handle, err := db.Open(cmd.Context(), cfg.Database.URL)
		if err != nil {
			return err
		}
		defer handle.Close()

		if err := handle.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		logger.Info().Str("dialect", string(handle.Dialect())).Msg("schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaUpCmd)
}
