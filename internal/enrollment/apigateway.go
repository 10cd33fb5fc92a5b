package enrollment

import (
	"context"
	"encoding/base64"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
)

// HandleAPIGateway is the Lambda entry point for API Gateway proxy events.
// It never returns an error: every failure is already encoded in the response.
func (h *Handler) HandleAPIGateway(ctx context.Context, req events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
	requestID := req.RequestContext.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := logf.FromContext(ctx).WithName("lambda").WithValues("requestID", requestID)
	ctx = logf.IntoContext(ctx, log)

	// panic recovery
	defer func() {
		if r := recover(); r != nil {
			log.Error(nil, "Panic in lambda handler", "panic", r)
			resp, err = InternalServerErrorResponse(), nil
		}
	}()

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, decErr := base64.StdEncoding.DecodeString(req.Body)
		if decErr != nil {
			log.Error(decErr, "Failed to decode base64 request body")
			return BadRequestResponse("invalid request body"), nil
		}
		body = decoded
	}

	return h.Handle(ctx, body), nil
}
