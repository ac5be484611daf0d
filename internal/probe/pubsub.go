package probe

import (
	"context"
	"fmt"
	"time"
)

const (
	// nonceAttribute tags round-trip messages so the pull side can tell its
	// own message from whatever else the subscription holds.
	nonceAttribute = "crossgrant-nonce"

	pullBatchSize        = 10
	pullRetryDelay       = 500 * time.Millisecond
	maxForeignMessageLog = 100
)

// runPubSubCheck publishes a uniquely tagged message to the configured topic
// and pulls from the paired subscription until that message comes back.
// Everything pulled is acked, including messages from other producers.
func (r *Runner) runPubSubCheck(ctx context.Context) CheckResult {
	started := time.Now()
	project := r.cfg.TargetProjectID
	nonce := newNonce()
	payload := []byte(fmt.Sprintf("crossgrant probe %s", nonce))

	messageID, err := r.pubsub.Publish(ctx, project, r.cfg.TopicID, payload, map[string]string{
		nonceAttribute: nonce,
	})
	if err != nil {
		return failed(CheckPubSub, started, err)
	}

	foreign := 0
	for {
		messages, pullErr := r.pubsub.Pull(ctx, project, r.cfg.SubscriptionID, pullBatchSize)
		if pullErr != nil {
			return failed(CheckPubSub, started, pullErr)
		}

		ackIDs := make([]string, 0, len(messages))
		found := false
		for _, message := range messages {
			ackIDs = append(ackIDs, message.AckID)
			if message.Attributes[nonceAttribute] == nonce {
				found = true
			} else {
				foreign++
			}
		}
		if ackErr := r.pubsub.Acknowledge(ctx, project, r.cfg.SubscriptionID, ackIDs); ackErr != nil {
			return failed(CheckPubSub, started, ackErr)
		}

		if found {
			return passed(CheckPubSub, started, map[string]any{
				"topic":            r.cfg.TopicID,
				"subscription":     r.cfg.SubscriptionID,
				"message_id":       messageID,
				"round_trip":       time.Since(started).Round(time.Millisecond).String(),
				"foreign_messages": foreign,
			})
		}
		if foreign > maxForeignMessageLog {
			return failed(CheckPubSub, started, fmt.Errorf(
				"published message %s not seen after draining %d other messages", messageID, foreign))
		}

		select {
		case <-ctx.Done():
			return failed(CheckPubSub, started, fmt.Errorf(
				"published message %s not received before deadline (%d other messages seen): %w",
				messageID, foreign, ctx.Err()))
		case <-time.After(pullRetryDelay):
		}
	}
}
