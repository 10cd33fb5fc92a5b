package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "customer-list-enroller",
		Short: "Enrolls new customers into their location's marketing list",
		Long: "Handles new-customer webhooks: finds the location the customer booked at in Boulevard " +
			"and adds the customer's Klaviyo profile to that location's list.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logf.SetLogger(zap.New(zap.JSONEncoder()))
		},
	}

	rootCmd.AddCommand(createServeCommand())
	rootCmd.AddCommand(createLambdaCommand())

	// The Lambda runtime starts the binary without arguments.
	if len(os.Args) == 1 && os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		rootCmd.SetArgs([]string{"lambda"})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
