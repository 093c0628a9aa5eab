package discord

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/event"
)

type fakeSender struct {
	channels []string
	embeds   []*discordgo.MessageEmbed
	err      error
}

func (f *fakeSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channels = append(f.channels, channelID)
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{}, f.err
}

func sampleDraw() domain.DrawResult {
	return domain.DrawResult{
		TenantID:          "brandish",
		PeriodID:          7,
		WinnerAccountID:   "acc-42",
		WinningTicket:     131,
		TotalTickets:      500,
		TotalParticipants: 12,
		ServerSeed:        "abc123",
		ClientSeed:        "brandish:7",
		Nonce:             1,
		ProofHash:         "deadbeef",
		Prize:             "Steam gift card",
		DrawnAt:           time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAnnouncer_DrawCompleted(t *testing.T) {
	sender := &fakeSender{}
	bus := event.NewMemoryBus()
	NewAnnouncer(sender, "chan-1").Register(bus)

	err := bus.Publish(context.Background(), event.NewDrawCompletedEvent(sampleDraw()))
	require.NoError(t, err)

	require.Len(t, sender.embeds, 1)
	assert.Equal(t, "chan-1", sender.channels[0])
	embed := sender.embeds[0]
	assert.Equal(t, ColorWinner, embed.Color)
	assert.Contains(t, embed.Description, "acc-42")
	assert.Contains(t, embed.Description, "#131")
	assert.Equal(t, "Prize", embed.Fields[0].Name)
	assert.Contains(t, embed.Footer.Text, "brandish:7")
	assert.Equal(t, "2026-10-01T00:00:00Z", embed.Timestamp)
}

func TestAnnouncer_DrawWithoutPrizeOmitsField(t *testing.T) {
	d := sampleDraw()
	d.Prize = ""
	payload, err := event.Payload[event.DrawCompletedPayloadV1](event.NewDrawCompletedEvent(d))
	require.NoError(t, err)

	embed := DrawEmbed(payload)
	for _, f := range embed.Fields {
		assert.NotEqual(t, "Prize", f.Name)
	}
}

func TestAnnouncer_DecodesSerializedPayload(t *testing.T) {
	sender := &fakeSender{}
	a := NewAnnouncer(sender, "chan-1")

	// Payload arriving as a generic map, e.g. replayed from the dead letter file
	evt := event.Event{
		Type: event.PeriodStarted,
		Payload: map[string]interface{}{
			"tenant_id": "brandish",
			"period_id": 3,
			"start_at":  "2026-10-01T00:00:00Z",
			"end_at":    "2026-11-01T00:00:00Z",
		},
	}
	require.NoError(t, a.handlePeriodStarted(context.Background(), evt))
	require.Len(t, sender.embeds, 1)
	assert.Contains(t, sender.embeds[0].Description, "Nov 1, 2026")
}

func TestAnnouncer_SendFailureDoesNotFailPublish(t *testing.T) {
	sender := &fakeSender{err: errors.New("discord down")}
	bus := event.NewMemoryBus()
	NewAnnouncer(sender, "chan-1").Register(bus)

	err := bus.Publish(context.Background(), event.NewDrawCompletedEvent(sampleDraw()))
	assert.NoError(t, err)
	assert.Len(t, sender.embeds, 1)
}

func TestAnnouncer_NoChannelIsNoop(t *testing.T) {
	sender := &fakeSender{}
	bus := event.NewMemoryBus()
	NewAnnouncer(sender, "").Register(bus)

	require.NoError(t, bus.Publish(context.Background(), event.NewDrawCompletedEvent(sampleDraw())))
	assert.Empty(t, sender.embeds)
}
