/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/webservice-umg/apiserver/config"
	"github.com/webservice-umg/apiserver/internal/logging"
	"github.com/webservice-umg/apiserver/internal/mq"
)

// eventsCmd groups commands for the user lifecycle event channel.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect user lifecycle events",
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Log every event published on EVENTS_CHANNEL until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		logger := logging.Init(cfg.Log.Level, cfg.Log.Format)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logger.WithContext(ctx)

		broker, err := mq.NewFromConfig(ctx, cfg.Events)
		if err != nil {
			return err
		}
		defer broker.Close()

		logger.Info().Str("channel", cfg.Events.Channel).Msg("watching events")
		err = broker.Subscribe(ctx, cfg.Events.Channel, func(ctx context.Context, msg mq.Message) error {
			logger.Info().
				Str("id", msg.ID).
				Str("type", msg.Attributes["type"]).
				Bytes("payload", msg.Data).
				Msg("event")
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsWatchCmd)
}
