package klaviyo

// ProfileAttributes are the contact fields sent to Klaviyo.
type ProfileAttributes struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

// Profile is a Klaviyo profile resource as returned by the profiles API.
type Profile struct {
	Type       string            `json:"type"`
	ID         string            `json:"id,omitempty"`
	Attributes ProfileAttributes `json:"attributes"`
}

// profileDocument wraps a single profile in the JSON:API "data" envelope.
//
//	{
//	  "data": {
//	    "type": "profile",
//	    "attributes": {"email": "...", "first_name": "...", ...}
//	  }
//	}
type profileDocument struct {
	Data Profile `json:"data"`
}

// resourceIdentifier references an existing resource by type and id.
type resourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// relationshipDocument is the body of a list membership request.
type relationshipDocument struct {
	Data []resourceIdentifier `json:"data"`
}

// HTTPResponse contains the raw HTTP response for troubleshooting.
type HTTPResponse struct {
	StatusCode int
	Body       []byte
}
