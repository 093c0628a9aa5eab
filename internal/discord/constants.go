package discord

// Embed colors
const (
	ColorWinner = 0xFFD700 // Gold
	ColorPeriod = 0x5865F2 // Blurple
)

const (
	FooterText       = "Raffle"
	VerifyHintFormat = "Verify with server seed, client seed `%s` and nonce %d"
)

// Log messages
const (
	LogMsgAnnouncerRegistered = "Discord announcer registered"
	LogMsgPayloadDecodeFailed = "Failed to decode raffle event for announcement"
	LogMsgAnnouncementSent    = "Discord announcement sent"
	LogMsgAnnouncementFailed  = "Failed to send Discord announcement"
)
