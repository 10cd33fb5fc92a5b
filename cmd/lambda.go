package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
)

// createLambdaCommand returns a cobra command that runs the handler inside the AWS Lambda runtime.
func createLambdaCommand() *cobra.Command {
	var enrollment enrollmentFlags

	cmd := &cobra.Command{
		Use:   "lambda",
		Short: "Runs the customer event handler as an AWS Lambda function",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logf.Log.WithName("customer-lambda")

			// Metrics are not exported from Lambda.
			handler, err := enrollment.newHandler(nil)
			if err != nil {
				return err
			}

			log.Info("Starting lambda handler")
			lambda.StartWithOptions(handler.HandleAPIGateway, lambda.WithContext(logf.IntoContext(cmd.Context(), log)))
			return nil
		},
	}

	addEnrollmentFlags(cmd, &enrollment)

	return cmd
}
