package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"ai-docview/pkg/events"
	pktNats "ai-docview/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print document events from NATS as they happen",
	Long: `events subscribes to the document event stream (events.document.*) on
the NATS server named by NATS_URL. Poll progress from other docview
processes and ready/deleted events from the document service show up here.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		url := app.Config.Events.NatsURL
		if url == "" {
			return errors.New("NATS_URL is not set")
		}

		sub, err := pktNats.NewSubscriber(url)
		if err != nil {
			return err
		}
		defer sub.Close()

		ctx := cmd.Context()
		err = sub.Subscribe(ctx, pktNats.SubjectPrefix+"document.>", func(ctx context.Context, e events.Event) error {
			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"type":        e.EventType(),
					"data":        e.Payload(),
					"occurred_at": e.Timestamp(),
				})
			}
			fmt.Printf("%s %-18s %v\n",
				color.HiBlackString(e.Timestamp().Format(time.TimeOnly)),
				color.CyanString(e.EventType()),
				e.Payload()["document_id"])
			return nil
		})
		if err != nil {
			return err
		}

		color.Green("Listening on %s (Ctrl-C to stop)", url)
		<-ctx.Done()
		return nil
	},
}

func init() {
	eventsCmd.Flags().Bool("json", false, "print one JSON event per line")
	rootCmd.AddCommand(eventsCmd)
}
