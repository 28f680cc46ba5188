/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/landreg/apiserver/config"
	"github.com/landreg/apiserver/internal/logger"
	"github.com/landreg/apiserver/internal/mq"
	"github.com/landreg/apiserver/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tailChannels []string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect published land events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Subscribe to event channels and log every event",
	Long: `Subscribes to the given channels (all of them by default) and logs each event until interrupted.

	landreg events tail --channel land.sale.approved --channel land.sale.declined
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log, err := logger.New(cfg.Env, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer func() {
			_ = log.Sync()
		}()

		broker, err := mq.Open(cmd.Context(), cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is not configured")
		}
		defer broker.Close()

		channels := tailChannels
		if len(channels) == 0 {
			channels = types.EventChannels
		}

		g, ctx := errgroup.WithContext(cmd.Context())
		for _, channel := range channels {
			g.Go(func() error {
				log.Info("subscribed", zap.String("channel", channel))
				return broker.Subscribe(ctx, channel, logEvent(log, channel))
			})
		}
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
	eventsTailCmd.Flags().StringSliceVar(&tailChannels, "channel", nil, "channel to subscribe to (repeatable)")
}

// logEvent acknowledges every message, including ones that do not decode.
func logEvent(log *zap.Logger, channel string) mq.Handler {
	return func(ctx context.Context, msg mq.Message) error {
		var event types.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Warn("undecodable event", zap.String("channel", channel), zap.String("message_id", msg.ID), zap.Error(err))
			return nil
		}
		log.Info("event",
			zap.String("channel", channel),
			zap.String("message_id", msg.ID),
			zap.String("type", event.Type),
			zap.Int64("land_id", event.LandID),
			zap.Int64("sell_land_id", event.SellLandID),
			zap.Int64("owner_id", event.OwnerID),
			zap.Int64("listing_id", event.ListingID),
			zap.Float64("price", event.Price),
			zap.Time("occurred_at", event.OccurredAt),
		)
		return nil
	}
}
