package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ideatracker/domain/events"
)

type fakeBus struct {
	calls  []*eventbridge.PutEventsInput
	failed int32
	err    error
}

func (f *fakeBus) PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	out := &eventbridge.PutEventsOutput{FailedEntryCount: f.failed}
	for range in.Entries {
		entry := types.PutEventsResultEntry{EventId: aws.String("evt")}
		if f.failed > 0 {
			entry = types.PutEventsResultEntry{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("boom")}
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

func saved(n int) []events.DomainEvent {
	ts := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	out := make([]events.DomainEvent, n)
	for i := range out {
		out[i] = events.NewIdeaSaved("u1", fmt.Sprint(i), "Idea", true, ts)
	}
	return out
}

func TestPublisher_Publish(t *testing.T) {
	bus := &fakeBus{}
	p := NewPublisher(bus, "ideas-bus", zap.NewNop())

	require.NoError(t, p.Publish(context.Background(), saved(1)[0]))

	require.Len(t, bus.calls, 1)
	entry := bus.calls[0].Entries[0]
	assert.Equal(t, "ideas-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, Source, aws.ToString(entry.Source))
	assert.Equal(t, events.EventTypeIdeaCreated, aws.ToString(entry.DetailType))

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "u1", detail["user_id"])
	assert.Equal(t, "0", detail["idea_id"])
}

func TestPublisher_BatchesByTen(t *testing.T) {
	bus := &fakeBus{}
	p := NewPublisher(bus, "ideas-bus", zap.NewNop())

	require.NoError(t, p.PublishBatch(context.Background(), saved(23)))

	require.Len(t, bus.calls, 3)
	assert.Len(t, bus.calls[0].Entries, 10)
	assert.Len(t, bus.calls[2].Entries, 3)
}

func TestPublisher_Failures(t *testing.T) {
	t.Run("client error", func(t *testing.T) {
		p := NewPublisher(&fakeBus{err: errors.New("throttled")}, "b", zap.NewNop())
		assert.ErrorContains(t, p.Publish(context.Background(), saved(1)[0]), "throttled")
	})

	t.Run("failed entries", func(t *testing.T) {
		p := NewPublisher(&fakeBus{failed: 1}, "b", zap.NewNop())
		assert.ErrorContains(t, p.Publish(context.Background(), saved(1)[0]), "1 events failed")
	})
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher(zap.NewNop())
	assert.NoError(t, p.PublishBatch(context.Background(), saved(2)))
}
