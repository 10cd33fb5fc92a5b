package mockclients

import (
	"context"

	"go.miloapis.com/customer-list-enroller/internal/boulevard"
	"go.miloapis.com/customer-list-enroller/internal/klaviyo"
)

// MockSchedulingClient implements enrollment.SchedulingClient for tests.
// It records inputs and exposes configurable outputs/errors per method.
type MockSchedulingClient struct {
	// ListLocations
	Locations          []boulevard.Location
	ListLocationsErr   error
	ListLocationsCalls int

	// GetAppointments, keyed by location id
	Appointments         map[string][]boulevard.Appointment
	GetAppointmentsErr   error
	AppointmentLocations []string
	LastClientID         string
}

func (m *MockSchedulingClient) ListLocations(ctx context.Context) ([]boulevard.Location, error) {
	m.ListLocationsCalls++
	return m.Locations, m.ListLocationsErr
}

func (m *MockSchedulingClient) GetAppointments(ctx context.Context, locationID, clientID string) ([]boulevard.Appointment, error) {
	m.AppointmentLocations = append(m.AppointmentLocations, locationID)
	m.LastClientID = clientID
	if m.GetAppointmentsErr != nil {
		return nil, m.GetAppointmentsErr
	}
	return m.Appointments[locationID], nil
}

// MockContactClient implements enrollment.ContactClient for tests.
type MockContactClient struct {
	// CreateProfile
	CreateProfileOutput    klaviyo.Profile
	CreateProfileErr       error
	CreateProfileCallCount int
	LastProfileAttributes  klaviyo.ProfileAttributes

	// AddProfileToList
	AddProfileToListOutput    bool
	AddProfileToListErr       error
	AddProfileToListCallCount int
	LastProfileID             string
	LastListID                string
}

func (m *MockContactClient) CreateProfile(ctx context.Context, attrs klaviyo.ProfileAttributes) (klaviyo.Profile, error) {
	m.CreateProfileCallCount++
	m.LastProfileAttributes = attrs
	return m.CreateProfileOutput, m.CreateProfileErr
}

func (m *MockContactClient) AddProfileToList(ctx context.Context, profileID, listID string) (bool, error) {
	m.AddProfileToListCallCount++
	m.LastProfileID = profileID
	m.LastListID = listID
	return m.AddProfileToListOutput, m.AddProfileToListErr
}
