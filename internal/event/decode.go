package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedVersion is returned for events written by a newer major schema
var ErrUnsupportedVersion = errors.New("unsupported event schema version")

// Payload decodes the payload of a raffle event into T. In-process events
// already hold the typed struct. Events replayed from Redis or the dead-letter
// file hold generic JSON and are converted.
func Payload[T any](evt Event) (T, error) {
	var zero T
	if !supportedVersion(evt.Version) {
		return zero, fmt.Errorf("%w: %s has version %q", ErrUnsupportedVersion, evt.Type, evt.Version)
	}
	return DecodePayload[T](evt.Payload)
}

// DecodePayload converts input into T by type assertion, falling back to a
// JSON round trip.
func DecodePayload[T any](input interface{}) (T, error) {
	if v, ok := input.(T); ok {
		return v, nil
	}
	var result T
	data, err := json.Marshal(input)
	if err != nil {
		return result, err
	}
	return result, json.Unmarshal(data, &result)
}

// TenantOf returns the tenant an event belongs to, or "" when it carries none.
func TenantOf(evt Event) string {
	if id, ok := evt.GetMetadataValue(MetadataKeyTenantID).(string); ok {
		return id
	}
	return ""
}

// supportedVersion accepts any minor revision of the current major version.
// Unversioned events predate versioning and are read as the current one.
func supportedVersion(v string) bool {
	if v == "" {
		return true
	}
	major, _, _ := strings.Cut(v, ".")
	current, _, _ := strings.Cut(EventSchemaVersion, ".")
	return major == current
}
