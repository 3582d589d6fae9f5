package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
)

const bookingPrompt = `Extract booking details from the message. Return JSON with: pickup, dropoff, datetime, specialRequests.
If information is not present, omit the field. Return null if no booking intent detected.`

// ExtractBookingDetails pulls trip fields out of a free-form message. It
// returns nil without error when the message carries no booking intent.
func (a *Agent) ExtractBookingDetails(ctx context.Context, message string) (*core.BookingDetails, error) {
	msgs := []core.Message{
		{Role: core.RoleSystem, Content: bookingPrompt},
		{Role: core.RoleUser, Content: message},
	}

	out, err := a.ai.Complete(ctx, msgs, bookingOptions)
	if errors.Is(err, core.ErrEmptyReply) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("booking completion: %w", err)
	}

	var details core.BookingDetails
	if err := decodeObject(out, &details); err != nil {
		if errors.Is(err, errNoJSON) {
			return nil, nil
		}
		return nil, err
	}
	if details == (core.BookingDetails{}) {
		return nil, nil
	}
	return &details, nil
}
