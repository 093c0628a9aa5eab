package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/osse101/BrandishRaffle_Go/internal/event"
	"github.com/osse101/BrandishRaffle_Go/internal/logger"
)

// EmbedSender is the subset of *discordgo.Session used for announcements
type EmbedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Announcer posts raffle lifecycle events to a Discord channel
type Announcer struct {
	sender    EmbedSender
	channelID string
}

// NewAnnouncer creates an announcer for the given channel
func NewAnnouncer(sender EmbedSender, channelID string) *Announcer {
	return &Announcer{sender: sender, channelID: channelID}
}

// NewSessionAnnouncer opens a bot session from a token
func NewSessionAnnouncer(token, channelID string) (*Announcer, *discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return NewAnnouncer(session, channelID), session, nil
}

// Register subscribes the announcer to draw and period events
func (a *Announcer) Register(bus event.Bus) {
	bus.Subscribe(event.DrawCompleted, a.handleDrawCompleted)
	bus.Subscribe(event.PeriodStarted, a.handlePeriodStarted)
	logger.Info(LogMsgAnnouncerRegistered, "channel_id", a.channelID)
}

func (a *Announcer) handleDrawCompleted(ctx context.Context, evt event.Event) error {
	payload, err := event.Payload[event.DrawCompletedPayloadV1](evt)
	if err != nil {
		logger.FromContext(ctx).Warn(LogMsgPayloadDecodeFailed, "event_type", evt.Type, "error", err)
		return nil
	}
	return a.send(ctx, evt.Type, DrawEmbed(payload))
}

func (a *Announcer) handlePeriodStarted(ctx context.Context, evt event.Event) error {
	payload, err := event.Payload[event.PeriodStartedPayloadV1](evt)
	if err != nil {
		logger.FromContext(ctx).Warn(LogMsgPayloadDecodeFailed, "event_type", evt.Type, "error", err)
		return nil
	}
	return a.send(ctx, evt.Type, PeriodEmbed(payload))
}

func (a *Announcer) send(ctx context.Context, t event.Type, embed *discordgo.MessageEmbed) error {
	if a.channelID == "" {
		return nil
	}
	log := logger.FromContext(ctx)
	if _, err := a.sender.ChannelMessageSendEmbed(a.channelID, embed); err != nil {
		// Retrying would replay every other subscriber on the bus
		log.Error(LogMsgAnnouncementFailed, "event_type", t, "error", err)
		return nil
	}
	log.Debug(LogMsgAnnouncementSent, "event_type", t)
	return nil
}

// DrawEmbed renders a draw result with the values needed to verify it
func DrawEmbed(p event.DrawCompletedPayloadV1) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "Raffle Winner!",
		Description: fmt.Sprintf("Account **%s** won with ticket **#%d** of %d.", p.WinnerAccountID, p.WinningTicket, p.TotalTickets),
		Color:       ColorWinner,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Participants", Value: fmt.Sprintf("%d", p.TotalParticipants), Inline: true},
			{Name: "Period", Value: fmt.Sprintf("%d", p.PeriodID), Inline: true},
			{Name: "Proof Hash", Value: "`" + p.ProofHash + "`"},
			{Name: "Server Seed", Value: "`" + p.ServerSeed + "`"},
		},
		Timestamp: p.DrawnAt.UTC().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf(VerifyHintFormat, p.ClientSeed, p.Nonce),
		},
	}
	if p.Prize != "" {
		embed.Fields = append([]*discordgo.MessageEmbedField{{Name: "Prize", Value: p.Prize}}, embed.Fields...)
	}
	return embed
}

// PeriodEmbed announces a newly opened period
func PeriodEmbed(p event.PeriodStartedPayloadV1) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "A new raffle period has started",
		Description: fmt.Sprintf("Tickets earned until %s count toward this draw.", p.EndAt.UTC().Format("Jan 2, 2006 15:04 MST")),
		Color:       ColorPeriod,
		Timestamp:   p.StartAt.UTC().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: FooterText},
	}
}
