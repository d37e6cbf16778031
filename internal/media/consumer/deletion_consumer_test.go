package consumer

import (
	"context"
	"encoding/base64"
	"io"
	"testing"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmarin/marketloop-backend/pkg/logger"
)

type fakePendingRepo struct {
	cleared  []string
	pruned   []string
	clearErr error
}

func (r *fakePendingRepo) Clear(_ context.Context, objectKey string) error {
	if r.clearErr != nil {
		return r.clearErr
	}
	r.cleared = append(r.cleared, objectKey)
	return nil
}

func (r *fakePendingRepo) PruneImageRows(_ context.Context, objectKey string) (int64, error) {
	r.pruned = append(r.pruned, objectKey)
	return 1, nil
}

func testConsumer(repo *fakePendingRepo) *DeletionConsumer {
	return &DeletionConsumer{
		repo: repo,
		logg: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}
}

func deleteMessage(data []byte) *pubsub.Message {
	return &pubsub.Message{
		ID:   "msg-1",
		Data: data,
		Attributes: map[string]string{
			"eventType":     "OBJECT_DELETE",
			"bucketId":      "marketloop-media",
			"objectId":      "listings/a.jpg",
			"payloadFormat": "JSON_API_V1",
		},
	}
}

func TestProcessObjectDelete(t *testing.T) {
	repo := &fakePendingRepo{}
	c := testConsumer(repo)

	payload := []byte(`{"name":"listings/a.jpg","bucket":"marketloop-media","generation":"1","size":"1024"}`)
	result := c.process(context.Background(), deleteMessage(payload))

	assert.True(t, result.ack)
	assert.False(t, result.nack)
	assert.Equal(t, []string{"listings/a.jpg"}, repo.cleared)
	assert.Equal(t, []string{"listings/a.jpg"}, repo.pruned)
}

func TestProcessBase64Payload(t *testing.T) {
	repo := &fakePendingRepo{}
	c := testConsumer(repo)

	raw := []byte(`{"name":"listings/b.jpg","bucket":"marketloop-media"}`)
	encoded := []byte(base64.StdEncoding.EncodeToString(raw))
	result := c.process(context.Background(), deleteMessage(encoded))

	assert.True(t, result.ack)
	assert.Equal(t, []string{"listings/b.jpg"}, repo.cleared)
}

func TestProcessSkipsOtherEvents(t *testing.T) {
	repo := &fakePendingRepo{}
	c := testConsumer(repo)

	msg := deleteMessage([]byte(`{"name":"listings/a.jpg"}`))
	msg.Attributes["eventType"] = "OBJECT_FINALIZE"
	result := c.process(context.Background(), msg)

	assert.True(t, result.ack)
	assert.Empty(t, repo.cleared)
	assert.Empty(t, repo.pruned)
}

func TestProcessAcksBadPayloads(t *testing.T) {
	repo := &fakePendingRepo{}
	c := testConsumer(repo)

	cases := []struct {
		name string
		msg  *pubsub.Message
	}{
		{"empty payload", deleteMessage(nil)},
		{"not json", deleteMessage([]byte("not json at all"))},
		{"missing name", deleteMessage([]byte(`{"bucket":"marketloop-media"}`))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := c.process(context.Background(), tc.msg)
			assert.True(t, result.ack, "malformed messages must not redeliver")
			assert.False(t, result.nack)
		})
	}
	assert.Empty(t, repo.cleared)
}

func TestProcessNacksTransientDBErrors(t *testing.T) {
	repo := &fakePendingRepo{clearErr: context.DeadlineExceeded}
	c := testConsumer(repo)

	payload := []byte(`{"name":"listings/a.jpg"}`)
	result := c.process(context.Background(), deleteMessage(payload))

	assert.True(t, result.nack)
	assert.False(t, result.ack)
}

func TestNewDeletionConsumerValidation(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	_, err := NewDeletionConsumer(nil, nil, logg)
	require.Error(t, err)

	_, err = NewDeletionConsumer(&fakePendingRepo{}, nil, logg)
	require.Error(t, err)
}
