package consumer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/nmarin/marketloop-backend/pkg/logger"
)

const (
	objectDeleteEvent    = "OBJECT_DELETE"
	payloadFormatJSONAPI = "JSON_API_V1"
)

type pendingDeletionRepo interface {
	Clear(ctx context.Context, objectKey string) error
	PruneImageRows(ctx context.Context, objectKey string) (int64, error)
}

// DeletionConsumer watches Pub/Sub for storage OBJECT_DELETE notifications.
// When an object is gone from the host, the pending-deletion marker is
// cleared and any listing image rows still pointing at it are pruned.
type DeletionConsumer struct {
	repo         pendingDeletionRepo
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewDeletionConsumer wires the dependencies for out-of-band media cleanup.
func NewDeletionConsumer(repo pendingDeletionRepo, subscription *pubsub.Subscriber, logg *logger.Logger) (*DeletionConsumer, error) {
	if repo == nil {
		return nil, errors.New("pending deletion repository is required")
	}
	if subscription == nil {
		return nil, errors.New("media deletion subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &DeletionConsumer{
		repo:         repo,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run processes deletion notifications until the context is canceled.
func (c *DeletionConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *DeletionConsumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	attrs := parseAttributes(msg.Attributes)
	logCtx := c.logg.WithFields(ctx, c.buildLogFields(msg.ID, attrs, nil))

	if attrs.EventType != objectDeleteEvent {
		c.logg.Info(logCtx, "skipping non-delete event")
		return processResult{ack: true}
	}
	if attrs.PayloadFormat != payloadFormatJSONAPI {
		c.logg.Warn(logCtx, "unsupported payload format")
		return processResult{ack: true}
	}

	payload, err := decodePayload(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode payload", err)
		return processResult{ack: true}
	}

	var object storagePayload
	if err := json.Unmarshal(payload, &object); err != nil {
		fields := c.buildLogFields(msg.ID, attrs, nil)
		fields["payload_preview"] = previewBytes(payload, 800)
		fields["payload_len"] = len(payload)
		logCtx = c.logg.WithFields(ctx, fields)
		c.logg.Error(logCtx, "failed to unmarshal payload", err)
		return processResult{ack: true}
	}

	if strings.TrimSpace(object.Name) == "" {
		c.logg.Error(logCtx, "payload missing object name", fmt.Errorf("empty name"))
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(ctx, c.buildLogFields(msg.ID, attrs, &object))

	if err := c.repo.Clear(logCtx, object.Name); err != nil {
		return c.handleDBError(logCtx, err)
	}

	pruned, err := c.repo.PruneImageRows(logCtx, object.Name)
	if err != nil {
		return c.handleDBError(logCtx, err)
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{"image_rows_pruned": pruned})
	c.logg.Info(logCtx, "processed media deletion event")
	return processResult{ack: true}
}

func (c *DeletionConsumer) handleDBError(ctx context.Context, err error) processResult {
	c.logg.Error(ctx, "media deletion db error", err)
	if isTransientDBError(err) {
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *DeletionConsumer) buildLogFields(messageID string, attrs storageAttributes, payload *storagePayload) map[string]any {
	fields := map[string]any{
		"message_id": messageID,
		"event_type": attrs.EventType,
		"bucket":     attrs.BucketID,
	}
	if payload != nil {
		fields["object_key"] = payload.Name
		if fields["bucket"] == "" {
			fields["bucket"] = payload.Bucket
		}
	}
	return fields
}

func parseAttributes(attrs map[string]string) storageAttributes {
	return storageAttributes{
		EventType:     attrs["eventType"],
		BucketID:      attrs["bucketId"],
		ObjectID:      attrs["objectId"],
		PayloadFormat: attrs["payloadFormat"],
	}
}

type storageAttributes struct {
	EventType     string
	BucketID      string
	ObjectID      string
	PayloadFormat string
}

type storagePayload struct {
	Name       string `json:"name"`
	Bucket     string `json:"bucket"`
	Generation string `json:"generation"`
	Size       string `json:"size"`
}

func decodePayload(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("payload empty")
	}
	if decoded, err := base64.StdEncoding.DecodeString(string(data)); err == nil {
		return decoded, nil
	}
	return data, nil
}

func isTransientDBError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func previewBytes(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "...(truncated)"
}
