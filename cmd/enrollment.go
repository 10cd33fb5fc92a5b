package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"go.miloapis.com/customer-list-enroller/internal/boulevard"
	"go.miloapis.com/customer-list-enroller/internal/config"
	"go.miloapis.com/customer-list-enroller/internal/enrollment"
	"go.miloapis.com/customer-list-enroller/internal/klaviyo"
	"go.miloapis.com/customer-list-enroller/internal/retry"
)

// enrollmentFlags are shared by every command that handles customer events.
type enrollmentFlags struct {
	klaviyoToken   string
	klaviyoBaseURL string

	boulevardBusinessID string
	boulevardSecretKey  string
	boulevardAPIKey     string
	boulevardEndpoint   string

	listMappingFile string

	httpTimeout       time.Duration
	invocationTimeout time.Duration

	retryMaxAttempts     uint
	retryInitialInterval time.Duration
	retryMaxInterval     time.Duration
}

func addEnrollmentFlags(cmd *cobra.Command, f *enrollmentFlags) {
	defaults := retry.DefaultPolicy()

	// Credential flags. Secrets default to their environment variables.
	cmd.Flags().StringVar(&f.klaviyoToken, "klaviyo-token", os.Getenv("KLAVIYO_TOKEN"),
		"*Required. Klaviyo private API key (env KLAVIYO_TOKEN)")
	cmd.Flags().StringVar(&f.boulevardBusinessID, "boulevard-business-id", os.Getenv("BLVD_BUSINESS_ID"),
		"*Required. Boulevard business id (env BLVD_BUSINESS_ID)")
	cmd.Flags().StringVar(&f.boulevardSecretKey, "boulevard-secret-key", os.Getenv("BLVD_SECRET_KEY"),
		"*Required. Base64 encoded Boulevard API secret (env BLVD_SECRET_KEY)")
	cmd.Flags().StringVar(&f.boulevardAPIKey, "boulevard-api-key", os.Getenv("BLVD_API_KEY"),
		"*Required. Boulevard API key (env BLVD_API_KEY)")

	// Upstream flags.
	cmd.Flags().StringVar(&f.klaviyoBaseURL, "klaviyo-base-url", klaviyo.DefaultBaseURL, "Klaviyo API base URL")
	cmd.Flags().StringVar(&f.boulevardEndpoint, "boulevard-endpoint", boulevard.DefaultEndpoint, "Boulevard admin GraphQL endpoint")
	cmd.Flags().StringVar(&f.listMappingFile, "list-mapping-file", os.Getenv("LIST_MAPPING_FILE"),
		"YAML file mapping location names to Klaviyo list ids. Uses the built-in mapping when empty")

	// Limits.
	cmd.Flags().DurationVar(&f.httpTimeout, "http-timeout", config.DefaultHTTPTimeout, "Timeout of each outbound request")
	cmd.Flags().DurationVar(&f.invocationTimeout, "invocation-timeout", config.DefaultInvocationTimeout,
		"Deadline for handling one event, 0 disables it")
	cmd.Flags().UintVar(&f.retryMaxAttempts, "retry-max-attempts", defaults.MaxAttempts,
		"Attempts for idempotent upstream calls, 1 disables retries")
	cmd.Flags().DurationVar(&f.retryInitialInterval, "retry-initial-interval", defaults.InitialInterval, "First retry delay")
	cmd.Flags().DurationVar(&f.retryMaxInterval, "retry-max-interval", defaults.MaxInterval, "Maximum retry delay")
}

// newHandler validates the flags and wires the enrollment handler. Metrics are
// registered on reg when it is not nil.
func (f *enrollmentFlags) newHandler(reg prometheus.Registerer) (*enrollment.Handler, error) {
	lists, err := config.LoadListMapping(f.listMappingFile)
	if err != nil {
		return nil, err
	}

	cfg, err := config.NewEnrollmentConfig(config.EnrollmentConfig{
		KlaviyoToken:        f.klaviyoToken,
		KlaviyoBaseURL:      f.klaviyoBaseURL,
		BoulevardBusinessID: f.boulevardBusinessID,
		BoulevardSecretKey:  f.boulevardSecretKey,
		BoulevardAPIKey:     f.boulevardAPIKey,
		BoulevardEndpoint:   f.boulevardEndpoint,
		HTTPTimeout:         f.httpTimeout,
		InvocationTimeout:   f.invocationTimeout,
		Retry: retry.Policy{
			MaxAttempts:     f.retryMaxAttempts,
			InitialInterval: f.retryInitialInterval,
			MaxInterval:     f.retryMaxInterval,
		},
		Lists: lists,
	})
	if err != nil {
		return nil, err
	}

	signer, err := boulevard.NewSigner(cfg.BoulevardBusinessID, cfg.BoulevardSecretKey, cfg.BoulevardAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create boulevard signer: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	scheduling := boulevard.NewClient(signer,
		boulevard.WithEndpoint(cfg.BoulevardEndpoint),
		boulevard.WithHTTPClient(httpClient),
		boulevard.WithRetryPolicy(cfg.Retry),
	)
	contacts := klaviyo.NewClient(cfg.KlaviyoToken,
		klaviyo.WithBaseURL(cfg.KlaviyoBaseURL),
		klaviyo.WithHTTPClient(httpClient),
		klaviyo.WithRetryPolicy(cfg.Retry),
	)

	opts := []enrollment.HandlerOption{enrollment.WithInvocationTimeout(cfg.InvocationTimeout)}
	if reg != nil {
		metrics, err := enrollment.NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		opts = append(opts, enrollment.WithMetrics(metrics))
	}

	return enrollment.NewHandler(scheduling, contacts, cfg.Lists, opts...), nil
}
