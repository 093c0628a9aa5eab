package domain

import "time"

// Platform constants
const (
	PlatformKick    = "kick"
	PlatformTwitch  = "twitch"
	PlatformYoutube = "youtube"
	PlatformDiscord = "discord"
)

// ValidPlatforms lists the chat platforms an external handle may belong to
var ValidPlatforms = map[string]bool{
	PlatformKick:    true,
	PlatformTwitch:  true,
	PlatformYoutube: true,
	PlatformDiscord: true,
}

// Default earning rates, used when a tenant is first registered
const (
	DefaultWatchtimeTicketsPerHour = 10
	DefaultGiftedSubTicketsPerSub  = 15
	DefaultWagerTicketsPerUnit     = 20
	DefaultWagerUnitUSD            = 1000
)

// Leaderboard limits
const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 25
)

// Listing limits for history style queries
const (
	DefaultHistoryLimit = 5
	MaxHistoryLimit     = 100
	DefaultEntriesLimit = 50
)

// MinutesPerHour is the conversion step for watch time
const MinutesPerHour = 60

// Draw configuration
const (
	// DrawServerSeedBytes is the size of the random server seed revealed with every draw
	DrawServerSeedBytes = 32

	// DefaultSimulationIterations is the number of simulated draws when none is requested
	DefaultSimulationIterations = 1000

	// MaxSimulationIterations bounds the cost of a single simulation request
	MaxSimulationIterations = 100000
)

// DefaultGiftIDBucket is the time window used to derive a fallback gift event id
const DefaultGiftIDBucket = time.Minute

// SystemActor identifies operations performed by background jobs
const SystemActor = "system"
