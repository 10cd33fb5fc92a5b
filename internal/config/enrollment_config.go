package config

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"go.miloapis.com/customer-list-enroller/internal/boulevard"
	"go.miloapis.com/customer-list-enroller/internal/klaviyo"
	"go.miloapis.com/customer-list-enroller/internal/retry"
)

const (
	DefaultHTTPTimeout       = 15 * time.Second
	DefaultInvocationTimeout = 25 * time.Second
)

// EnrollmentConfig holds the credentials and limits of the enrollment flow.
// It is read-only once built.
type EnrollmentConfig struct {
	KlaviyoToken   string
	KlaviyoBaseURL string

	BoulevardBusinessID string
	BoulevardSecretKey  string
	BoulevardAPIKey     string
	BoulevardEndpoint   string

	// HTTPTimeout bounds every outbound request.
	HTTPTimeout time.Duration
	// InvocationTimeout bounds the whole handling of one event. Zero disables it.
	InvocationTimeout time.Duration
	Retry             retry.Policy

	Lists *ListMapping
}

// NewEnrollmentConfig validates c and, if it is correct, returns a copy with
// defaults applied. All problems found are reported in one aggregated error.
func NewEnrollmentConfig(c EnrollmentConfig) (*EnrollmentConfig, error) {
	var errs field.ErrorList

	if c.KlaviyoToken == "" {
		errs = append(errs, field.Required(field.NewPath("klaviyo", "token"), "klaviyo token is required"))
	}
	if c.BoulevardBusinessID == "" {
		errs = append(errs, field.Required(field.NewPath("boulevard", "businessID"), "boulevard business id is required"))
	}
	if c.BoulevardSecretKey == "" {
		errs = append(errs, field.Required(field.NewPath("boulevard", "secretKey"), "boulevard secret key is required"))
	} else if _, err := base64.StdEncoding.DecodeString(c.BoulevardSecretKey); err != nil {
		errs = append(errs, field.Invalid(field.NewPath("boulevard", "secretKey"), "<redacted>", "must be base64 encoded"))
	}
	if c.BoulevardAPIKey == "" {
		errs = append(errs, field.Required(field.NewPath("boulevard", "apiKey"), "boulevard api key is required"))
	}
	if c.KlaviyoBaseURL != "" {
		if err := validateURL(c.KlaviyoBaseURL); err != nil {
			errs = append(errs, field.Invalid(field.NewPath("klaviyo", "baseURL"), c.KlaviyoBaseURL, err.Error()))
		}
	}
	if c.BoulevardEndpoint != "" {
		if err := validateURL(c.BoulevardEndpoint); err != nil {
			errs = append(errs, field.Invalid(field.NewPath("boulevard", "endpoint"), c.BoulevardEndpoint, err.Error()))
		}
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, field.Invalid(field.NewPath("httpTimeout"), c.HTTPTimeout.String(), "must not be negative"))
	}
	if c.InvocationTimeout < 0 {
		errs = append(errs, field.Invalid(field.NewPath("invocationTimeout"), c.InvocationTimeout.String(), "must not be negative"))
	}
	if c.Lists == nil || c.Lists.Len() == 0 {
		errs = append(errs, field.Required(field.NewPath("lists"), "a location to list mapping is required"))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid enrollment config: %w", errs.ToAggregate())
	}

	if c.KlaviyoBaseURL == "" {
		c.KlaviyoBaseURL = klaviyo.DefaultBaseURL
	}
	if c.BoulevardEndpoint == "" {
		c.BoulevardEndpoint = boulevard.DefaultEndpoint
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = retry.DefaultPolicy()
	}

	return &c, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
