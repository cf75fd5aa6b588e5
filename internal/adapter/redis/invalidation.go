package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

const optionInvalidationChannel = "option:invalidate"

type invalidation struct {
	Namespace string `json:"ns"`
	Name      string `json:"name"`
}

func (c *OptionCache) publishInvalidation(ctx context.Context, namespace, name string) error {
	if c.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(invalidation{Namespace: namespace, Name: name})
	if err != nil {
		return fmt.Errorf("failed to marshal option invalidation: %w", err)
	}
	if err := c.rdb.Publish(ctx, optionInvalidationChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish option invalidation: %w", err)
	}
	return nil
}

// Subscribe drops L1 entries that other processes changed. It blocks until
// ctx is done and returns immediately when there is no Redis client.
func (c *OptionCache) Subscribe(ctx context.Context) {
	if c.rdb == nil {
		return
	}

	pubsub := c.rdb.Subscribe(ctx, optionInvalidationChannel)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			c.handleInvalidation(msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

func (c *OptionCache) handleInvalidation(payload string) {
	var inv invalidation
	if err := json.Unmarshal([]byte(payload), &inv); err != nil || inv.Name == "" {
		slog.Warn("Ignoring malformed option invalidation", "payload", payload)
		return
	}
	c.mem.invalidate(optionCacheKey(inv.Namespace, inv.Name))
	slog.Debug("Option cache invalidated via pub/sub", "namespace", inv.Namespace, "option", inv.Name)
}
