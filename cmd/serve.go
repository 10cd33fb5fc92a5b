package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	svixSdk "github.com/svix/svix-webhooks/go"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	config "go.miloapis.com/customer-list-enroller/internal/config"
	webhook "go.miloapis.com/customer-list-enroller/internal/webhook"
)

// createServeCommand returns a cobra command that starts the customer webhook server.
func createServeCommand() *cobra.Command {
	var bindAddress string
	var path string
	var webhookSigningKey string
	var enrollment enrollmentFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Runs the customer webhook HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, bindAddress, path, webhookSigningKey, &enrollment)
		},
	}

	// Network flags.
	cmd.Flags().StringVar(&bindAddress, "bind-address", ":8080", "Address the webhook, health and metrics endpoints bind to")
	cmd.Flags().StringVar(&path, "webhook-path", webhook.DefaultEndpoint, "Path new-customer events are posted to")

	// Webhook flags
	cmd.Flags().StringVar(&webhookSigningKey, "webhook-signing-key", "",
		"Svix signing secret (whsec_...). When set, unsigned requests are rejected.")

	addEnrollmentFlags(cmd, &enrollment)

	return cmd
}

func runServe(
	cmd *cobra.Command,
	bindAddress, path string,
	webhookSigningKey string,
	enrollment *enrollmentFlags) error {
	log := logf.Log.WithName("customer-webhook")

	// Validate command flags early so we fail fast with meaningful errors.
	webhookConfig, err := config.NewWebhookConfig(bindAddress, path, webhookSigningKey)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler, err := enrollment.newHandler(registry)
	if err != nil {
		return err
	}

	log.Info("Setting up webhook server")
	wh := webhook.NewCustomerWebhook(handler, webhookConfig.Path)

	if webhookConfig.SigningKey != "" {
		log.Info("Setting up svix for webhook")
		svix, err := svixSdk.NewWebhook(webhookConfig.SigningKey)
		if err != nil {
			return fmt.Errorf("failed to create svix webhook: %w", err)
		}
		wh.SetupSvix(svix)
	}

	ctx := logf.IntoContext(cmd.Context(), log)

	log.Info("Starting server")
	return webhook.NewServer(webhookConfig.BindAddress, wh, registry).Start(ctx)
}
