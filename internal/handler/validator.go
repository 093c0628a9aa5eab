package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
)

// Raffle-specific validation tags
const (
	TagPlatform     = "platform"
	TagHandle       = "handle"
	TagCampaignCode = "campaign_code"
	TagRFC3339      = "rfc3339"
	TagTicketDelta  = "ticket_delta"
)

// Input limits
const (
	MaxHandleLength     = 100
	MaxTicketAdjustment = 1_000_000
)

var campaignCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Validator wraps the validator instance
type Validator struct {
	validate *validator.Validate
}

// Global validator instance
var validate *Validator

// InitValidator builds the validator with the raffle tags registered.
// Field errors are keyed by the JSON name the client sent.
func InitValidator() {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation(TagPlatform, validatePlatform)
	_ = v.RegisterValidation(TagHandle, validateHandle)
	_ = v.RegisterValidation(TagCampaignCode, validateCampaignCode)
	_ = v.RegisterValidation(TagRFC3339, validateRFC3339)
	_ = v.RegisterValidation(TagTicketDelta, validateTicketDelta)

	validate = &Validator{validate: v}
}

// GetValidator returns the global validator instance
func GetValidator() *Validator {
	if validate == nil {
		InitValidator()
	}
	return validate
}

// ValidateStruct validates a struct using tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationError turns validator errors into field -> message pairs
// without exposing Go struct names.
func FormatValidationError(err error) map[string]string {
	if err == nil {
		return nil
	}

	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["error"] = "Invalid request format"
		return errs
	}

	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			errs[field] = "This field is required"
		case TagPlatform:
			errs[field] = "Invalid platform"
		case TagHandle:
			errs[field] = fmt.Sprintf("Must be 1 to %d printable characters", MaxHandleLength)
		case TagCampaignCode:
			errs[field] = "Campaign codes use letters, digits, '-' and '_' only"
		case TagRFC3339:
			errs[field] = "Must be an RFC3339 timestamp"
		case TagTicketDelta:
			errs[field] = fmt.Sprintf("Must be non-zero and at most %d tickets either way", MaxTicketAdjustment)
		case "max":
			errs[field] = fmt.Sprintf("Must be at most %s characters", e.Param())
		case "min":
			errs[field] = fmt.Sprintf("Must be at least %s", e.Param())
		case "url":
			errs[field] = "Must be a URL"
		default:
			errs[field] = "Invalid value"
		}
	}

	return errs
}

// validatePlatform accepts the empty string; pair with required when needed.
func validatePlatform(fl validator.FieldLevel) bool {
	platform := fl.Field().String()
	if platform == "" {
		return true
	}
	return domain.ValidPlatforms[strings.ToLower(platform)]
}

// validateHandle covers chat usernames, wager usernames and account ids.
func validateHandle(fl validator.FieldLevel) bool {
	h := fl.Field().String()
	if strings.TrimSpace(h) == "" || utf8.RuneCountInString(h) > MaxHandleLength || !utf8.ValidString(h) {
		return false
	}
	return strings.IndexFunc(h, unicode.IsControl) < 0
}

func validateCampaignCode(fl validator.FieldLevel) bool {
	return campaignCodePattern.MatchString(fl.Field().String())
}

func validateRFC3339(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.RFC3339, fl.Field().String())
	return err == nil
}

func validateTicketDelta(fl validator.FieldLevel) bool {
	n := fl.Field().Int()
	return n != 0 && n >= -MaxTicketAdjustment && n <= MaxTicketAdjustment
}
