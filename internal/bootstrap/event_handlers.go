package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/osse101/BrandishRaffle_Go/internal/config"
	"github.com/osse101/BrandishRaffle_Go/internal/discord"
	"github.com/osse101/BrandishRaffle_Go/internal/event"
	"github.com/osse101/BrandishRaffle_Go/internal/metrics"
)

// EventHandlerDependencies holds the dependencies needed for event handler registration.
type EventHandlerDependencies struct {
	EventBus event.Bus
	Config   *config.Config

	// Optional overrides, mainly for tests
	Redis   event.RedisPublisher
	Discord discord.EmbedSender
}

// Subscribers holds the outbound connections opened while registering
// handlers so they can be closed on shutdown
type Subscribers struct {
	closers []func() error
}

// Close releases every connection opened by RegisterEventHandlers
func (s *Subscribers) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			slog.Warn(LogMsgSubscriberCloseFailed, "error", err)
		}
	}
}

// RegisterEventHandlers sets up all event subscribers:
// - Metrics collector (event counts)
// - Redis forwarder (when REDIS_ADDR is set)
// - Discord announcer (when DISCORD_TOKEN and a channel are set)
func RegisterEventHandlers(ctx context.Context, deps EventHandlerDependencies) (*Subscribers, error) {
	subs := &Subscribers{}

	metricsCollector := metrics.NewEventMetricsCollector()
	if err := metricsCollector.Register(deps.EventBus); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedRegisterMetrics, err)
	}
	slog.Info(LogMsgMetricsCollectorRegistered)

	publisher := deps.Redis
	if publisher == nil && deps.Config.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     deps.Config.RedisAddr,
			Password: deps.Config.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			// Forwarding still works once Redis comes up
			slog.Warn(LogMsgRedisUnreachable, "addr", deps.Config.RedisAddr, "error", err)
		}
		subs.closers = append(subs.closers, client.Close)
		publisher = client
	}
	if publisher != nil {
		event.NewRedisForwarder(publisher, deps.Config.RedisChannel).Register(deps.EventBus)
		slog.Info(LogMsgRedisForwarderRegistered, "channel", deps.Config.RedisChannel)
	}

	sender := deps.Discord
	if sender == nil && deps.Config.DiscordToken != "" && deps.Config.DiscordChannelID != "" {
		announcer, session, err := discord.NewSessionAnnouncer(deps.Config.DiscordToken, deps.Config.DiscordChannelID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedCreateAnnouncer, err)
		}
		subs.closers = append(subs.closers, session.Close)
		announcer.Register(deps.EventBus)
	} else if sender != nil {
		discord.NewAnnouncer(sender, deps.Config.DiscordChannelID).Register(deps.EventBus)
	}

	return subs, nil
}
