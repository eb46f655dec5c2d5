// Package dedupe guards trigger processing against redelivery. Kafka gives
// at-least-once; a Redis SETNX per trigger id narrows that to at-most-once
// within the key's lifetime.
package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "ringflow:trigger:"
	defaultTTL = 24 * time.Hour
)

type Deduplicator struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDeduplicator(client *redis.Client) *Deduplicator {
	return &Deduplicator{
		client: client,
		ttl:    defaultTTL,
	}
}

// WithTTL overrides how long processed trigger ids are remembered.
func (d *Deduplicator) WithTTL(ttl time.Duration) *Deduplicator {
	d.ttl = ttl

	return d
}

// FirstAttempt reports whether this trigger id has not been seen before,
// claiming it atomically when so.
func (d *Deduplicator) FirstAttempt(ctx context.Context, triggerID string) (bool, error) {
	claimed, err := d.client.SetNX(ctx, keyPrefix+triggerID, time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim trigger %s: %w", triggerID, err)
	}

	return claimed, nil
}

func (d *Deduplicator) Close() error {
	return d.client.Close()
}
