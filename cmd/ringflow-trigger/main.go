// Package main provides a CLI for injecting trigger events, mainly for
// local development and operational replays.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ringflow/ringflow/pkg/cmd"
	"github.com/ringflow/ringflow/pkg/events"
	"github.com/ringflow/ringflow/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "ringflow-trigger",
		Usage:                 "Publish a trigger event onto the bus",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus type (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:     "user-id",
				Usage:    "User whose workflows should be considered",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "assistant-id",
				Usage: "Assistant the trigger is aimed at",
			},
			&cli.StringFlag{
				Name:     "event",
				Usage:    "Trigger event name (e.g. call_ended)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "payload",
				Usage: "Trigger payload as inline JSON",
				Value: "{}",
			},
			&cli.StringFlag{
				Name:  "payload-file",
				Usage: "Path to a JSON file with the trigger payload (overrides --payload)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), "text")

			logger := log.WithModule("trigger_cli")

			payload, err := loadPayload(command)
			if err != nil {
				return err
			}

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), "trigger-cli", logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			trigger := events.TriggerReceived{
				BaseEvent:   events.NewBaseEvent(events.TriggerReceivedEvent, ""),
				UserID:      command.String("user-id"),
				AssistantID: command.String("assistant-id"),
				Event:       command.String("event"),
				Payload:     payload,
			}

			err = eventBus.PublishTrigger(ctx, &trigger)
			if err != nil {
				return fmt.Errorf("failed to publish trigger: %w", err)
			}

			logger.InfoContext(ctx, "Trigger published", "trigger_id", trigger.ID, "event", trigger.Event)

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func loadPayload(command *cli.Command) (map[string]any, error) {
	raw := []byte(command.String("payload"))

	if file := command.String("payload-file"); file != "" {
		body, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file: %w", err)
		}

		raw = body
	}

	var payload map[string]any

	err := json.Unmarshal(raw, &payload)
	if err != nil {
		return nil, fmt.Errorf("invalid payload JSON: %w", err)
	}

	return payload, nil
}
