package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
)

type fakeRedis struct {
	channel  string
	messages [][]byte
	err      error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.channel = channel
	f.messages = append(f.messages, message.([]byte))
	cmd.SetVal(1)
	return cmd
}

func TestRedisForwarder_ForwardsRaffleEvents(t *testing.T) {
	client := &fakeRedis{}
	bus := NewMemoryBus()
	NewRedisForwarder(client, "raffle.events").Register(bus)

	evt := NewDrawCompletedEvent(domain.DrawResult{
		TenantID:        "t1",
		PeriodID:        7,
		WinnerAccountID: "acc-1",
		WinningTicket:   42,
		TotalTickets:    100,
	})
	require.NoError(t, bus.Publish(context.Background(), evt))

	require.Len(t, client.messages, 1)
	assert.Equal(t, "raffle.events", client.channel)

	var decoded Event
	require.NoError(t, json.Unmarshal(client.messages[0], &decoded))
	assert.Equal(t, DrawCompleted, decoded.Type)

	payload, err := DecodePayload[DrawCompletedPayloadV1](decoded.Payload)
	require.NoError(t, err)
	assert.Equal(t, int64(42), payload.WinningTicket)
	assert.Equal(t, "acc-1", payload.WinnerAccountID)
}

func TestRedisForwarder_PublishError(t *testing.T) {
	client := &fakeRedis{err: errors.New("connection refused")}
	f := NewRedisForwarder(client, "raffle.events")

	err := f.Handle(context.Background(), NewWagerPollCompletedEvent("t1", 1, 3, 2, 40))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgRedisPublish)
}

func TestRedisForwarder_IgnoresUnrelatedEvents(t *testing.T) {
	client := &fakeRedis{}
	bus := NewMemoryBus()
	NewRedisForwarder(client, "raffle.events").Register(bus)

	require.NoError(t, bus.Publish(context.Background(), Event{Version: EventSchemaVersion, Type: Type("other")}))
	assert.Empty(t, client.messages)
}

func TestEvent_GetMetadataValue(t *testing.T) {
	evt := NewPeriodStartedEvent(domain.RafflePeriod{ID: 3, TenantID: "t9"})
	assert.Equal(t, "t9", evt.GetMetadataValue(MetadataKeyTenantID))
	assert.Nil(t, evt.GetMetadataValue("missing"))
	assert.Nil(t, Event{}.GetMetadataValue(MetadataKeyTenantID))
}
