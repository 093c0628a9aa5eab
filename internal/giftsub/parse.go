package giftsub

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/identity"
)

// Event is a parsed gift payload: either *GiftEvent or *Unparseable
type Event interface {
	isGiftPayload()
}

// GiftEvent is a well-formed gift notification
type GiftEvent struct {
	// EventID is empty when the feed supplied none
	EventID  string
	Platform string
	Gifter   string
	Count    int
}

// Unparseable is a payload that cannot be turned into a gift
type Unparseable struct {
	Reason string
}

func (*GiftEvent) isGiftPayload()   {}
func (*Unparseable) isGiftPayload() {}

// Error lets an Unparseable be returned where an error is expected
func (u *Unparseable) Error() string {
	return fmt.Sprintf("%s: %s", domain.ErrMsgUnparseablePayload, u.Reason)
}

// Unwrap makes errors.Is match domain.ErrUnparseablePayload
func (u *Unparseable) Unwrap() error {
	return domain.ErrUnparseablePayload
}

// Parse reads a raw gift payload from the chat feed. The count comes from
// the first positive value among gift_count, quantity, count and the length
// of gifted_usernames, defaulting to one.
func Parse(raw []byte) Event {
	if !gjson.ValidBytes(raw) {
		return &Unparseable{Reason: ReasonInvalidJSON}
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return &Unparseable{Reason: ReasonInvalidJSON}
	}

	gifter := firstString(root, gifterPaths)
	if gifter == "" {
		return &Unparseable{Reason: ReasonMissingGifter}
	}

	platform := domain.PlatformKick
	if p := identity.NormalizePlatform(root.Get(fieldPlatform).String()); p != "" {
		if !domain.ValidPlatforms[p] {
			return &Unparseable{Reason: ReasonInvalidPlatform}
		}
		platform = p
	}

	count, err := giftCount(root)
	if err != nil {
		return &Unparseable{Reason: err.Error()}
	}

	return &GiftEvent{
		EventID:  firstString(root, eventIDPaths),
		Platform: platform,
		Gifter:   gifter,
		Count:    count,
	}
}

func firstString(root gjson.Result, paths []string) string {
	for _, path := range paths {
		if v := strings.TrimSpace(root.Get(path).String()); v != "" {
			return v
		}
	}
	return ""
}

func giftCount(root gjson.Result) (int, error) {
	for _, path := range countPaths {
		v := root.Get(path)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		n := v.Int()
		if n < 0 {
			return 0, fmt.Errorf("%s: %s=%s", ReasonInvalidCount, path, v.Raw)
		}
		if n > 0 {
			return int(n), nil
		}
	}
	if recipients := root.Get(fieldGiftedUsernames); recipients.IsArray() {
		if n := len(recipients.Array()); n > 0 {
			return n, nil
		}
	}
	return 1, nil
}

// FallbackEventID derives a stable id for a payload without one. Identical
// gifts from the same gifter inside one bucket share an id.
func FallbackEventID(tenantID, gifter string, count int, receivedAt time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = domain.DefaultGiftIDBucket
	}
	slot := receivedAt.UTC().Truncate(bucket).Unix()
	material := fmt.Sprintf("%s|%s|%d|%d", tenantID, identity.NormalizeHandle(gifter), count, slot)
	sum := sha256.Sum256([]byte(material))
	return SyntheticIDPrefix + hex.EncodeToString(sum[:])
}
