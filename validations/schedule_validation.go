package validations

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	clientsDomain "github.com/blogsmith/blogsmith/clients/domain"
	pkgError "github.com/blogsmith/blogsmith/pkg/error"
	"github.com/blogsmith/blogsmith/pkg/timeutils"
	schedDomain "github.com/blogsmith/blogsmith/scheduler/domain"
)

// ValidateWeekSchedule checks a raw weekday -> "HH:MM" list map before it is
// persisted. A single malformed entry rejects the whole schedule.
func ValidateWeekSchedule(raw map[string][]string) error {
	for day, slots := range raw {
		if !timeutils.IsWeekdayName(day) {
			return pkgError.ValidationError(fmt.Sprintf("schedule: unknown weekday %q", day))
		}
		for _, slot := range slots {
			if _, _, err := timeutils.ParseClock(slot); err != nil {
				return pkgError.ValidationError(fmt.Sprintf("schedule: %s: %v", day, err))
			}
		}
	}
	return nil
}

// ValidateTarget checks a publishing target before it is saved. The URL must
// be well formed; credentials may be blank (the target is simply not usable
// for publishing until completed).
func ValidateTarget(ctx context.Context, target clientsDomain.PublishingTarget) error {
	err := validation.ValidateStructWithContext(ctx, &target,
		validation.Field(&target.UserID, validation.Required),
		validation.Field(&target.SiteURL, validation.Required, is.URL),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

// GenerateJobRequest is the payload for requesting an on-demand generation.
type GenerateJobRequest struct {
	UserID string `json:"user_id"`
}

func ValidateGenerateJob(ctx context.Context, request GenerateJobRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.UserID, validation.Required),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

// PublishJobRequest is the payload for requesting an on-demand publish of an
// existing draft.
type PublishJobRequest struct {
	UserID string `json:"user_id"`
	PostID string `json:"post_id"`
}

func ValidatePublishJob(ctx context.Context, request PublishJobRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.UserID, validation.Required),
		validation.Field(&request.PostID, validation.Required),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

// ValidateSlot rejects slots outside clock bounds. Parsed slots are always
// valid; this guards hand-constructed values.
func ValidateSlot(slot schedDomain.TimeSlot) error {
	if slot.Hour < 0 || slot.Hour > 23 || slot.Minute < 0 || slot.Minute > 59 {
		return pkgError.ValidationError(fmt.Sprintf("slot: %02d:%02d is out of range", slot.Hour, slot.Minute))
	}
	return nil
}
