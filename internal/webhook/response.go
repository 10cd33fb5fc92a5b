package webhook

import (
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// Responses for requests rejected before they reach the Handler.

func BadRequestResponse() events.APIGatewayProxyResponse {
	return webhookResponse(http.StatusBadRequest)
}

func MethodNotAllowedResponse() events.APIGatewayProxyResponse {
	return webhookResponse(http.StatusMethodNotAllowed)
}

func InternalServerErrorResponse() events.APIGatewayProxyResponse {
	return webhookResponse(http.StatusInternalServerError)
}

func UnauthorizedResponse() events.APIGatewayProxyResponse {
	return webhookResponse(http.StatusUnauthorized)
}

func webhookResponse(httpStatus int) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: httpStatus,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       `{"success":"false"}`,
	}
}
