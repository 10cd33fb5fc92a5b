package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"go.miloapis.com/customer-list-enroller/internal/boulevard"
	"go.miloapis.com/customer-list-enroller/internal/klaviyo"
)

// SchedulingClient looks up where a customer has booked.
type SchedulingClient interface {
	ListLocations(ctx context.Context) ([]boulevard.Location, error)
	GetAppointments(ctx context.Context, locationID, clientID string) ([]boulevard.Appointment, error)
}

// ContactClient creates profiles and manages list membership in the marketing platform.
type ContactClient interface {
	CreateProfile(ctx context.Context, attrs klaviyo.ProfileAttributes) (klaviyo.Profile, error)
	AddProfileToList(ctx context.Context, profileID, listID string) (bool, error)
}

// ListResolver maps a location name to a marketing list id.
type ListResolver interface {
	ListID(locationName string) (string, bool)
}

// Handler enrolls new customers into the marketing list of the location they booked at.
type Handler struct {
	scheduling SchedulingClient
	contacts   ContactClient
	lists      ListResolver
	metrics    *Metrics
	timeout    time.Duration
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithMetrics records outcomes on m.
func WithMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithInvocationTimeout bounds the handling of a single event.
func WithInvocationTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) {
		h.timeout = d
	}
}

// NewHandler creates a Handler.
func NewHandler(scheduling SchedulingClient, contacts ContactClient, lists ListResolver, opts ...HandlerOption) *Handler {
	h := &Handler{
		scheduling: scheduling,
		contacts:   contacts,
		lists:      lists,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes one raw event body and always returns a response; failures
// are logged and mapped to a status code.
func (h *Handler) Handle(ctx context.Context, body []byte) events.APIGatewayProxyResponse {
	log := logf.FromContext(ctx).WithName("enrollment")
	start := time.Now()

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	event, err := ParseCustomerEvent(body)
	if err != nil {
		msg := "invalid request body"
		var verr *ValidationError
		if errors.As(err, &verr) {
			msg = verr.Message
		}
		log.Info("Rejected invalid customer event", "reason", msg)
		h.metrics.observe(OutcomeInvalid, time.Since(start).Seconds())
		return BadRequestResponse(msg)
	}

	log = log.WithValues("clientID", event.Data.Node.ID)
	ctx = logf.IntoContext(ctx, log)
	log.Info("Processing customer event")

	err = h.enroll(ctx, event)
	outcome, response := classify(err)

	switch outcome {
	case OutcomeEnrolled:
		log.Info("Customer enrolled")
	case OutcomeUnresolvedLocation:
		log.Error(err, "Failed to resolve customer location")
	case OutcomePartialFailure:
		var pf *PartialFailure
		errors.As(err, &pf)
		h.metrics.partialFailure(pf.ListID)
		log.Error(err, "Profile created but not added to list; profile left unlisted",
			"profileID", pf.ProfileID, "listID", pf.ListID)
	default:
		log.Error(err, "Failed to enroll customer")
	}

	h.metrics.observe(outcome, time.Since(start).Seconds())
	return response
}

// classify maps the result of enroll to a metrics outcome and a response.
func classify(err error) (string, events.APIGatewayProxyResponse) {
	if err == nil {
		return OutcomeEnrolled, OkResponse()
	}

	var lerr *LocationResolutionError
	if errors.As(err, &lerr) {
		return OutcomeUnresolvedLocation, UnprocessableEntityResponse()
	}
	var pf *PartialFailure
	if errors.As(err, &pf) {
		return OutcomePartialFailure, InternalServerErrorResponse()
	}
	return OutcomeUpstreamError, InternalServerErrorResponse()
}

func (h *Handler) enroll(ctx context.Context, event *CustomerEvent) error {
	log := logf.FromContext(ctx)
	node := event.Data.Node

	location, err := h.ResolveLocation(ctx, node.ID)
	if err != nil {
		return err
	}

	listID, ok := h.lists.ListID(location.Name)
	if !ok {
		return &LocationResolutionError{
			Reason:   ReasonUnmappedLocation,
			ClientID: node.ID,
			Location: &location,
		}
	}
	log.Info("Resolved location", "location", location.Name, "listID", listID)

	profile, err := h.contacts.CreateProfile(ctx, klaviyo.ProfileAttributes{
		Email:       node.Email,
		FirstName:   node.FirstName,
		LastName:    node.LastName,
		PhoneNumber: node.MobilePhone,
	})
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	log.Info("Created profile", "profileID", profile.ID)

	added, err := h.contacts.AddProfileToList(ctx, profile.ID, listID)
	if err != nil || !added {
		return &PartialFailure{ProfileID: profile.ID, ListID: listID, Err: err}
	}
	return nil
}

// ResolveLocation returns the first location, in the order the scheduling
// platform lists them, where clientID has at least one appointment. Lookups
// are sequential and stop at the first match.
func (h *Handler) ResolveLocation(ctx context.Context, clientID string) (boulevard.Location, error) {
	locations, err := h.scheduling.ListLocations(ctx)
	if err != nil {
		return boulevard.Location{}, fmt.Errorf("list locations: %w", err)
	}

	for _, loc := range locations {
		appointments, err := h.scheduling.GetAppointments(ctx, loc.ID, clientID)
		if err != nil {
			return boulevard.Location{}, fmt.Errorf("get appointments at location %s: %w", loc.ID, err)
		}
		if len(appointments) > 0 {
			return loc, nil
		}
	}

	return boulevard.Location{}, &LocationResolutionError{
		Reason:   ReasonNoAppointment,
		ClientID: clientID,
	}
}
