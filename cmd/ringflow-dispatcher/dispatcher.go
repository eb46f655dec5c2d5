// Package main provides the Ringflow dispatcher service. It consumes
// trigger events from the bus, claims each one exactly once, and runs the
// matching workflows.
package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/ringflow/ringflow/pkg/cmd"
	"github.com/ringflow/ringflow/pkg/dedupe"
	"github.com/ringflow/ringflow/pkg/eventbus"
	"github.com/ringflow/ringflow/pkg/events"
	"github.com/ringflow/ringflow/pkg/otelhelper"
	"github.com/ringflow/ringflow/pkg/persistence"
	"github.com/ringflow/ringflow/pkg/protocol"
	"github.com/ringflow/ringflow/pkg/workflow"
)

type DispatcherConfig struct {
	ID       string
	RedisURL string
	Tracing  bool
}

type Dispatcher struct {
	id           string
	eventBus     eventbus.EventBus
	deduplicator *dedupe.Deduplicator
	manager      *workflow.Manager
	logger       *slog.Logger
}

func NewDispatcher(
	ctx context.Context,
	config DispatcherConfig,
	logger *slog.Logger,
	p persistence.Persistence,
	eventBus eventbus.EventBus,
) (*Dispatcher, error) {
	registry := cmd.NewRegistry(logger, p)

	opts := []workflow.ExecutorOption{workflow.WithEventBus(eventBus)}

	if config.Tracing {
		tracer, err := otelhelper.NewTracer(ctx, "ringflow-dispatcher")
		if err != nil {
			return nil, err
		}

		opts = append(opts, workflow.WithTracer(tracer))
	}

	executor := workflow.NewExecutor(logger, registry, opts...)
	repository := workflow.NewRepository(p)
	manager := workflow.NewManager(logger, repository, executor, protocol.NoopExtractor{})

	var deduplicator *dedupe.Deduplicator

	if config.RedisURL != "" {
		redisOpts, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, err
		}

		deduplicator = dedupe.NewDeduplicator(redis.NewClient(redisOpts))
	}

	return &Dispatcher{
		id:           config.ID,
		eventBus:     eventBus,
		deduplicator: deduplicator,
		manager:      manager,
		logger:       logger,
	}, nil
}

// Run consumes trigger events until interrupted.
func (d *Dispatcher) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d.logger.Info("Dispatcher started, waiting for triggers")

	err := d.eventBus.SubscribeTriggers(ctx, d.handleTrigger)
	if err != nil {
		return err
	}

	<-ctx.Done()

	d.logger.Info("Dispatcher shutting down")

	if d.deduplicator != nil {
		if err := d.deduplicator.Close(); err != nil {
			d.logger.Error("Failed to close deduplicator", "error", err)
		}
	}

	return nil
}

func (d *Dispatcher) handleTrigger(ctx context.Context, trigger *events.TriggerReceived) error {
	logger := d.logger.With("trigger_id", trigger.ID, "event", trigger.Event, "user_id", trigger.UserID)

	if d.deduplicator != nil {
		first, err := d.deduplicator.FirstAttempt(ctx, trigger.ID)
		if err != nil {
			// Claim failures nack so the message is retried once Redis
			// recovers.
			return err
		}

		if !first {
			logger.Info("Trigger already processed, skipping")

			return nil
		}
	}

	logger.Info("Processing trigger")

	return d.manager.TriggerWorkflows(ctx, trigger.UserID, trigger.AssistantID, trigger.Event, trigger.Payload)
}
