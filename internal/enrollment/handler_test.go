package enrollment

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	ginkgo "github.com/onsi/ginkgo/v2"
	gomega "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"go.miloapis.com/customer-list-enroller/internal/boulevard"
	"go.miloapis.com/customer-list-enroller/internal/config"
	"go.miloapis.com/customer-list-enroller/internal/enrollment/mockclients"
	"go.miloapis.com/customer-list-enroller/internal/klaviyo"
	"go.miloapis.com/customer-list-enroller/internal/upstream"
)

const validEvent = `{
  "data": {
    "node": {
      "id": "urn:blvd:Client:42",
      "email": "steve@woz.com",
      "firstName": "Steve",
      "lastName": "Wozniak",
      "mobilePhone": "+15555550100"
    }
  }
}`

// blockingScheduler waits for the context to end on every call.
type blockingScheduler struct{}

func (blockingScheduler) ListLocations(ctx context.Context) ([]boulevard.Location, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingScheduler) GetAppointments(ctx context.Context, locationID, clientID string) ([]boulevard.Appointment, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// panickingScheduler panics on every call.
type panickingScheduler struct{}

func (panickingScheduler) ListLocations(context.Context) ([]boulevard.Location, error) {
	panic("boom")
}

func (panickingScheduler) GetAppointments(context.Context, string, string) ([]boulevard.Appointment, error) {
	panic("boom")
}

var _ = ginkgo.Describe("Handler", func() {
	var (
		ctx        context.Context
		scheduling *mockclients.MockSchedulingClient
		contacts   *mockclients.MockContactClient
		lists      *config.ListMapping
		metrics    *Metrics
		handler    *Handler
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()

		scheduling = &mockclients.MockSchedulingClient{
			Locations: []boulevard.Location{
				{ID: "loc-ues", Name: "Upper East Side"},
				{ID: "loc-flatiron", Name: "Flatiron"},
				{ID: "loc-brickell", Name: "Brickell"},
			},
			Appointments: map[string][]boulevard.Appointment{
				"loc-flatiron": {{ID: "appt-1", ClientID: "urn:blvd:Client:42", Location: boulevard.Location{ID: "loc-flatiron", Name: "Flatiron"}}},
				"loc-brickell": {{ID: "appt-2", ClientID: "urn:blvd:Client:42", Location: boulevard.Location{ID: "loc-brickell", Name: "Brickell"}}},
			},
		}
		contacts = &mockclients.MockContactClient{
			CreateProfileOutput:    klaviyo.Profile{Type: "profile", ID: "01HPROFILE"},
			AddProfileToListOutput: true,
		}

		var err error
		lists, err = config.DefaultListMapping()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		metrics, err = NewMetrics(prometheus.NewRegistry())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		handler = NewHandler(scheduling, contacts, lists, WithMetrics(metrics))
	})

	ginkgo.Context("when the customer booked at a mapped location", func() {
		ginkgo.It("creates the profile and adds it to the location's list", func() {
			resp := handler.Handle(ctx, []byte(validEvent))

			gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusOK))
			gomega.Expect(resp.Body).To(gomega.MatchJSON(`{"success":"true"}`))
			gomega.Expect(resp.Headers).To(gomega.HaveKeyWithValue("Content-Type", "application/json"))
			gomega.Expect(resp.IsBase64Encoded).To(gomega.BeFalse())

			gomega.Expect(contacts.LastProfileAttributes).To(gomega.Equal(klaviyo.ProfileAttributes{
				Email:       "steve@woz.com",
				FirstName:   "Steve",
				LastName:    "Wozniak",
				PhoneNumber: "+15555550100",
			}))
			gomega.Expect(contacts.LastProfileID).To(gomega.Equal("01HPROFILE"))
			gomega.Expect(contacts.LastListID).To(gomega.Equal("SnXmCd"))
			gomega.Expect(contacts.AddProfileToListCallCount).To(gomega.Equal(1))
			gomega.Expect(testutil.ToFloat64(metrics.events.WithLabelValues(OutcomeEnrolled))).To(gomega.Equal(1.0))
		})

		ginkgo.It("stops looking at the first location with an appointment", func() {
			handler.Handle(ctx, []byte(validEvent))

			gomega.Expect(scheduling.AppointmentLocations).To(gomega.Equal([]string{"loc-ues", "loc-flatiron"}))
			gomega.Expect(scheduling.LastClientID).To(gomega.Equal("urn:blvd:Client:42"))
		})

		ginkgo.It("uses the list of whichever location comes first", func() {
			scheduling.Locations = []boulevard.Location{
				{ID: "loc-brickell", Name: "Brickell"},
				{ID: "loc-flatiron", Name: "Flatiron"},
			}

			resp := handler.Handle(ctx, []byte(validEvent))

			gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusOK))
			gomega.Expect(contacts.LastListID).To(gomega.Equal("Yv5Pcp"))
		})
	})

	ginkgo.DescribeTable("rejects events missing a required field",
		func(body, field string) {
			resp := handler.Handle(ctx, []byte(body))

			gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(resp.Body).To(gomega.MatchJSON(`{"success":"false","error":"` + field + ` is required in ['data']['node']"}`))
			gomega.Expect(scheduling.ListLocationsCalls).To(gomega.BeZero())
			gomega.Expect(contacts.CreateProfileCallCount).To(gomega.BeZero())
			gomega.Expect(testutil.ToFloat64(metrics.events.WithLabelValues(OutcomeInvalid))).To(gomega.Equal(1.0))
		},
		ginkgo.Entry("email", `{"data":{"node":{"id":"1","firstName":"a","lastName":"b","mobilePhone":"c"}}}`, "email"),
		ginkgo.Entry("firstName", `{"data":{"node":{"id":"1","email":"e","lastName":"b","mobilePhone":"c"}}}`, "firstName"),
		ginkgo.Entry("lastName", `{"data":{"node":{"id":"1","email":"e","firstName":"a","mobilePhone":"c"}}}`, "lastName"),
		ginkgo.Entry("mobilePhone", `{"data":{"node":{"id":"1","email":"e","firstName":"a","lastName":"b"}}}`, "mobilePhone"),
	)

	ginkgo.It("rejects null fields without calling either platform", func() {
		resp := handler.Handle(ctx, []byte(`{"data":{"node":{"id":null,"email":null,"firstName":null,"lastName":null,"mobilePhone":null}}}`))

		gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusBadRequest))
		gomega.Expect(resp.Body).To(gomega.MatchJSON(`{"success":"false","error":"email must be a string in ['data']['node']"}`))
		gomega.Expect(scheduling.ListLocationsCalls).To(gomega.BeZero())
		gomega.Expect(contacts.CreateProfileCallCount).To(gomega.BeZero())
	})

	ginkgo.It("rejects a body that is not JSON", func() {
		resp := handler.Handle(ctx, []byte("not json"))

		gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusBadRequest))
		gomega.Expect(resp.Body).To(gomega.MatchJSON(`{"success":"false","error":"invalid request body"}`))
	})

	ginkgo.Context("when the location cannot be resolved", func() {
		ginkgo.It("returns 422 without creating a profile if no location has an appointment", func() {
			scheduling.Appointments = nil

			resp := handler.Handle(ctx, []byte(validEvent))

			gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusUnprocessableEntity))
			gomega.Expect(resp.Body).To(gomega.MatchJSON(`{"success":"false"}`))
			gomega.Expect(scheduling.AppointmentLocations).To(gomega.HaveLen(3))
			gomega.Expect(contacts.CreateProfileCallCount).To(gomega.BeZero())
			gomega.Expect(testutil.ToFloat64(metrics.events.WithLabelValues(OutcomeUnresolvedLocation))).To(gomega.Equal(1.0))
		})

		ginkgo.It("returns 422 without creating a profile if the location has no list", func() {
			scheduling.Locations = []boulevard.Location{{ID: "loc-x", Name: "Atlantis"}}
			scheduling.Appointments = map[string][]boulevard.Appointment{"loc-x": {{ID: "appt-x"}}}

			resp := handler.Handle(ctx, []byte(validEvent))

			gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusUnprocessableEntity))
			gomega.Expect(contacts.CreateProfileCallCount).To(gomega.BeZero())
		})

		ginkgo.It("reports why resolution failed", func() {
			scheduling.Appointments = nil

			_, err := handler.ResolveLocation(ctx, "urn:blvd:Client:42")

			var lerr *LocationResolutionError
			gomega.Expect(errors.As(err, &lerr)).To(gomega.BeTrue())
			gomega.Expect(lerr.Reason).To(gomega.Equal(ReasonNoAppointment))
		})
	})

	ginkgo.Context("when the scheduling platform fails", func() {
		ginkgo.It("returns 500 if locations cannot be listed", func() {
			scheduling.ListLocationsErr = upstream.NewError("boulevard", "list locations", http.StatusBadGateway, nil, nil)

			resp := handler.Handle(ctx, []byte(validEvent))

			gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusInternalServerError))
			gomega.Expect(resp.Body).To(gomega.MatchJSON(`{"success":"false"}`))
			gomega.Expect(contacts.CreateProfileCallCount).To(gomega.BeZero())
			gomega.Expect(testutil.ToFloat64(metrics.events.WithLabelValues(OutcomeUpstreamError))).To(gomega.Equal(1.0))
		})

		ginkgo.It("returns 500 if appointments cannot be fetched", func() {
			scheduling.GetAppointmentsErr = errors.New("connection reset")

			resp := handler.Handle(ctx, []byte(validEvent))

			gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusInternalServerError))
			gomega.Expect(contacts.CreateProfileCallCount).To(gomega.BeZero())
		})

		ginkgo.It("returns 500 when the invocation deadline passes", func() {
			handler = NewHandler(blockingScheduler{}, contacts, lists, WithInvocationTimeout(10*time.Millisecond))

			resp := handler.Handle(ctx, []byte(validEvent))

			gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusInternalServerError))
		})
	})

	ginkgo.Context("when the marketing platform fails", func() {
		ginkgo.It("returns 500 and skips the list when profile creation fails", func() {
			contacts.CreateProfileErr = upstream.NewError("klaviyo", "create profile", http.StatusOK, []byte(`{}`), nil)

			resp := handler.Handle(ctx, []byte(validEvent))

			gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusInternalServerError))
			gomega.Expect(resp.Body).To(gomega.MatchJSON(`{"success":"false"}`))
			gomega.Expect(contacts.AddProfileToListCallCount).To(gomega.BeZero())
		})

		ginkgo.It("reports a partial failure when the list rejects the profile", func() {
			contacts.AddProfileToListOutput = false
			contacts.AddProfileToListErr = upstream.NewError("klaviyo", "add profile to list", http.StatusNotFound, nil, nil)

			resp := handler.Handle(ctx, []byte(validEvent))

			gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusInternalServerError))
			gomega.Expect(resp.Body).To(gomega.MatchJSON(`{"success":"false"}`))
			gomega.Expect(testutil.ToFloat64(metrics.events.WithLabelValues(OutcomePartialFailure))).To(gomega.Equal(1.0))
			gomega.Expect(testutil.ToFloat64(metrics.partialFailures.WithLabelValues("SnXmCd"))).To(gomega.Equal(1.0))
		})

		ginkgo.It("reports a partial failure when the list add is not confirmed", func() {
			contacts.AddProfileToListOutput = false

			resp := handler.Handle(ctx, []byte(validEvent))

			gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusInternalServerError))
			gomega.Expect(testutil.ToFloat64(metrics.partialFailures.WithLabelValues("SnXmCd"))).To(gomega.Equal(1.0))
		})
	})

	ginkgo.Context("HandleAPIGateway", func() {
		ginkgo.It("handles a plain body", func() {
			resp, err := handler.HandleAPIGateway(ctx, events.APIGatewayProxyRequest{
				Body:           validEvent,
				RequestContext: events.APIGatewayProxyRequestContext{RequestID: "req-1"},
			})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusOK))
		})

		ginkgo.It("decodes a base64 body", func() {
			resp, err := handler.HandleAPIGateway(ctx, events.APIGatewayProxyRequest{
				Body:            base64.StdEncoding.EncodeToString([]byte(validEvent)),
				IsBase64Encoded: true,
			})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusOK))
		})

		ginkgo.It("rejects an undecodable base64 body", func() {
			resp, err := handler.HandleAPIGateway(ctx, events.APIGatewayProxyRequest{
				Body:            "%%%",
				IsBase64Encoded: true,
			})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("turns a panic into a 500 response", func() {
			handler = NewHandler(panickingScheduler{}, contacts, lists)

			resp, err := handler.HandleAPIGateway(ctx, events.APIGatewayProxyRequest{Body: validEvent})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusInternalServerError))
		})
	})
})
