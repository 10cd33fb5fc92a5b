package enrollment

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// responseBody is the fixed shape of every response body.
type responseBody struct {
	Success string `json:"success"`
	Error   string `json:"error,omitempty"`
}

func OkResponse() events.APIGatewayProxyResponse {
	return enrollmentResponse(http.StatusOK, responseBody{Success: "true"})
}

func BadRequestResponse(message string) events.APIGatewayProxyResponse {
	return enrollmentResponse(http.StatusBadRequest, responseBody{Success: "false", Error: message})
}

func UnprocessableEntityResponse() events.APIGatewayProxyResponse {
	return enrollmentResponse(http.StatusUnprocessableEntity, responseBody{Success: "false"})
}

func InternalServerErrorResponse() events.APIGatewayProxyResponse {
	return enrollmentResponse(http.StatusInternalServerError, responseBody{Success: "false"})
}

func enrollmentResponse(status int, body responseBody) events.APIGatewayProxyResponse {
	// Marshalling two strings cannot fail.
	b, _ := json.Marshal(body)
	return events.APIGatewayProxyResponse{
		IsBase64Encoded: false,
		StatusCode:      status,
		Headers:         map[string]string{"Content-Type": "application/json"},
		Body:            string(b),
	}
}
