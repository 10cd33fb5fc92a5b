package enrollment

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CustomerNode is the customer record carried by a new-customer event.
type CustomerNode struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	MobilePhone string `json:"mobilePhone"`
}

// CustomerEvent is the body of a new-customer webhook:
//
//	{"data": {"node": {"id": "...", "email": "...", ...}}}
type CustomerEvent struct {
	Data struct {
		Node CustomerNode `json:"node"`
	} `json:"data"`
}

// requiredNodeFields are checked in this order; the first missing one is reported.
var requiredNodeFields = []string{"email", "firstName", "lastName", "mobilePhone", "id"}

// ParseCustomerEvent decodes a webhook body and checks that every required
// key is present. Problems with the payload are returned as *ValidationError.
func ParseCustomerEvent(body []byte) (*CustomerEvent, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil || envelope == nil {
		return nil, &ValidationError{Message: "invalid request body"}
	}

	rawData, ok := envelope["data"]
	if !ok {
		return nil, &ValidationError{Message: "data is required"}
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(rawData, &data); err != nil || data == nil {
		return nil, &ValidationError{Message: "data must be an object"}
	}

	rawNode, ok := data["node"]
	if !ok {
		return nil, &ValidationError{Message: "node is required in ['data']"}
	}
	var node map[string]json.RawMessage
	if err := json.Unmarshal(rawNode, &node); err != nil || node == nil {
		return nil, &ValidationError{Message: "node must be an object in ['data']"}
	}

	for _, key := range requiredNodeFields {
		if _, ok := node[key]; !ok {
			return nil, &ValidationError{Message: fmt.Sprintf("%s is required in ['data']['node']", key)}
		}
	}
	// null decodes into an empty string without error.
	for _, key := range requiredNodeFields {
		if bytes.Equal(bytes.TrimSpace(node[key]), []byte("null")) {
			return nil, &ValidationError{Message: fmt.Sprintf("%s must be a string in ['data']['node']", key)}
		}
	}

	var event CustomerEvent
	if err := json.Unmarshal(rawNode, &event.Data.Node); err != nil {
		return nil, &ValidationError{Message: "node fields must be strings in ['data']['node']"}
	}
	return &event, nil
}
