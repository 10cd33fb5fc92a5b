package boulevard

import "encoding/json"

// Location is a physical business location.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Appointment links a client to a location. Only its existence matters to callers.
type Appointment struct {
	ID       string   `json:"id"`
	ClientID string   `json:"clientId"`
	Location Location `json:"location"`
}

// graphQLEnvelope is the top-level structure of every admin API response.
type graphQLEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type locationsData struct {
	Locations struct {
		Edges []struct {
			Node Location `json:"node"`
		} `json:"edges"`
	} `json:"locations"`
}

type appointmentsData struct {
	Appointments struct {
		Edges []struct {
			Node Appointment `json:"node"`
		} `json:"edges"`
	} `json:"appointments"`
}
