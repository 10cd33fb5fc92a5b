package webhook

import (
	"context"
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
)

// maxBodyBytes caps the size of an accepted event body.
const maxBodyBytes = 1 << 20

type HandlerFunc func(context.Context, []byte) events.APIGatewayProxyResponse

func (f HandlerFunc) Handle(ctx context.Context, body []byte) events.APIGatewayProxyResponse {
	return f(ctx, body)
}

// Handler turns a raw event body into a response. Failures are part of the
// response, so there is no error return.
type Handler interface {
	Handle(context.Context, []byte) events.APIGatewayProxyResponse
}

func (wh *Webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := logf.FromContext(r.Context()).WithName("customer-http-webhook").WithValues("requestID", requestID)
	log.Info("Handling request", "method", r.Method, "remoteAddr", r.RemoteAddr)

	// panic recovery
	defer func() {
		if r := recover(); r != nil {
			log.Error(nil, "Panic in webhook handler", "panic", r)
			wh.writeResponse(w, InternalServerErrorResponse())
		}
	}()

	if r.Method != http.MethodPost {
		log.Error(nil, "Method not allowed", "method", r.Method)
		w.Header().Set("Allow", http.MethodPost)
		wh.writeResponse(w, MethodNotAllowedResponse())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Error(err, "Failed to read request body")
		wh.writeResponse(w, BadRequestResponse())
		return
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Error(err, "Failed to close request body")
		}
	}()

	// Verify the signature of the request using svix
	if wh.svix != nil {
		if err := wh.svix.Verify(body, r.Header); err != nil {
			log.Error(err, "Failed to verify request")
			wh.writeResponse(w, UnauthorizedResponse())
			return
		}
	}

	ctx := logf.IntoContext(r.Context(), log)
	response := wh.Handler.Handle(ctx, body)

	wh.writeResponse(w, response)
}

func (wh *Webhook) writeResponse(w http.ResponseWriter, response events.APIGatewayProxyResponse) {
	for k, v := range response.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(response.StatusCode)
	if response.Body != "" {
		_, _ = io.WriteString(w, response.Body)
	}
}
