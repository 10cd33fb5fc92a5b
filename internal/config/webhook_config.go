package config

import (
	"fmt"
	"net"
	"strings"

	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Paths the webhook server registers next to the event endpoint.
const (
	HealthPath  = "/healthz"
	MetricsPath = "/metrics"
)

// WebhookConfig contains the configuration required to start the standalone
// webhook server.
type WebhookConfig struct {
	BindAddress string
	Path        string
	// SigningKey is the svix signing secret. When empty, requests are not verified.
	SigningKey string
}

// NewWebhookConfig validates the provided parameters and, if they are correct,
// returns a WebhookConfig instance. If any of the parameters are invalid an
// aggregated error is returned describing all the problems found.
func NewWebhookConfig(bindAddress, path, signingKey string) (*WebhookConfig, error) {
	log := logf.Log.WithName("customer-webhook")
	var errs field.ErrorList

	// The bind address must be in the form host:port (the host can be empty,
	// meaning all interfaces).
	if bindAddress == "" {
		errs = append(errs, field.Required(field.NewPath("bindAddress"), "is required"))
	} else if _, _, err := net.SplitHostPort(bindAddress); err != nil {
		errs = append(errs, field.Invalid(field.NewPath("bindAddress"), bindAddress, "must be in the form host:port"))
	}

	if path == "" {
		errs = append(errs, field.Required(field.NewPath("path"), "is required"))
	} else if !strings.HasPrefix(path, "/") {
		errs = append(errs, field.Invalid(field.NewPath("path"), path, "must start with /"))
	} else if path == HealthPath || path == MetricsPath {
		errs = append(errs, field.Forbidden(field.NewPath("path"), fmt.Sprintf("%s is served by the webhook server itself", path)))
	}

	if signingKey != "" && !strings.HasPrefix(signingKey, "whsec_") {
		errs = append(errs, field.Invalid(field.NewPath("signingKey"), "<redacted>", "must start with whsec_"))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid webhook config: %w", errs.ToAggregate())
	}

	log.Info("Starting customer webhook server",
		"bind_address", bindAddress,
		"path", path,
		"signature_verification", signingKey != "",
	)

	return &WebhookConfig{
		BindAddress: bindAddress,
		Path:        path,
		SigningKey:  signingKey,
	}, nil
}
