package enrollment

import (
	"fmt"

	"go.miloapis.com/customer-list-enroller/internal/boulevard"
)

// ValidationError reports a malformed or incomplete event. Its message is
// safe to return to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// LocationResolutionReason tells why no list could be chosen.
type LocationResolutionReason string

const (
	ReasonNoAppointment    LocationResolutionReason = "NoAppointment"
	ReasonUnmappedLocation LocationResolutionReason = "UnmappedLocation"
)

// LocationResolutionError means the customer could not be tied to a mapped location.
type LocationResolutionError struct {
	Reason   LocationResolutionReason
	ClientID string
	// Location is set when a location was found but has no list.
	Location *boulevard.Location
}

func (e *LocationResolutionError) Error() string {
	switch e.Reason {
	case ReasonUnmappedLocation:
		return fmt.Sprintf("location %q (%s) has no marketing list", e.Location.Name, e.Location.ID)
	default:
		return fmt.Sprintf("no appointment found for client %s at any location", e.ClientID)
	}
}

// PartialFailure means the profile was created but could not be added to its list.
// The profile is left in place.
type PartialFailure struct {
	ProfileID string
	ListID    string
	Err       error
}

func (e *PartialFailure) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("profile %s created but not added to list %s", e.ProfileID, e.ListID)
	}
	return fmt.Sprintf("profile %s created but not added to list %s: %v", e.ProfileID, e.ListID, e.Err)
}

func (e *PartialFailure) Unwrap() error {
	return e.Err
}
