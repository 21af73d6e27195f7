// geotheoryctl submits image processing jobs to a deployed dataplane and
// checks their status.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/spf13/cobra"
	"github.com/theory-cloud/tabletheory"
	"github.com/theory-cloud/tabletheory/pkg/session"

	"github.com/theory-cloud/geotheory/pkg/jobs"
	"github.com/theory-cloud/geotheory/pkg/logger"
	"github.com/theory-cloud/geotheory/pkg/observability"
	obszap "github.com/theory-cloud/geotheory/pkg/observability/zap"
)

var rootFlags struct {
	region   string
	logLevel string
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "geotheoryctl",
		Short:         "Operate a deployed imagery dataplane",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if rootFlags.region == "" {
				rootFlags.region = os.Getenv("AWS_REGION")
			}
			if rootFlags.region == "" {
				rootFlags.region = os.Getenv("AWS_DEFAULT_REGION")
			}
			if rootFlags.region == "" {
				return fmt.Errorf("region is required (--region or AWS_REGION)")
			}

			log, err := obszap.NewZapLogger(observability.LoggerConfig{
				Format: "console",
				Level:  rootFlags.logLevel,
			})
			if err != nil {
				return err
			}
			logger.SetLogger(log)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootFlags.region, "region", "", "AWS region (defaults to AWS_REGION)")
	flags.StringVar(&rootFlags.logLevel, "log-level", "info", "log level")

	rootCmd.AddCommand(newSubmitCmd())
	rootCmd.AddCommand(newStatusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSubmitCmd() *cobra.Command {
	var (
		queueURL     string
		imageURI     string
		modelName    string
		jobName      string
		outputBucket string
		outputPrefix string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an image processing request",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if queueURL == "" {
				queueURL = os.Getenv("IMAGE_REQUEST_QUEUE_URL")
			}

			cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(rootFlags.region))
			if err != nil {
				return fmt.Errorf("load aws config: %w", err)
			}

			submitter, err := jobs.NewSubmitter(sqs.NewFromConfig(cfg), queueURL,
				jobs.WithSubmitterLogger(logger.Logger()))
			if err != nil {
				return err
			}

			request := jobs.ImageRequest{
				JobName:   jobName,
				ImageURI:  imageURI,
				ModelName: modelName,
			}
			if outputBucket != "" {
				request.Outputs = []jobs.OutputLocation{{
					Type:   "S3",
					Bucket: outputBucket,
					Prefix: outputPrefix,
				}}
			}

			submitted, err := submitter.Submit(ctx, request)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), submitted.JobID)
			return nil
		},
	}

	cmd.Flags().StringVar(&queueURL, "queue-url", "", "image request queue URL (defaults to IMAGE_REQUEST_QUEUE_URL)")
	cmd.Flags().StringVar(&imageURI, "image", "", "source image URI")
	cmd.Flags().StringVar(&modelName, "model", "", "model endpoint name")
	cmd.Flags().StringVar(&jobName, "name", "", "optional job name")
	cmd.Flags().StringVar(&outputBucket, "output-bucket", "", "results bucket")
	cmd.Flags().StringVar(&outputPrefix, "output-prefix", "", "results prefix")
	_ = cmd.MarkFlagRequired("image")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func newStatusCmd() *cobra.Command {
	var (
		tableName string
		endpoint  string
	)

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the status of a submitted job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if tableName != "" {
				// statusRecord resolves its table through this variable.
				os.Setenv("JOB_STATUS_TABLE", tableName)
			}

			sessionCfg := session.Config{Region: rootFlags.region}
			if endpoint != "" {
				sessionCfg.Endpoint = endpoint
				sessionCfg.AWSConfigOptions = []func(*awsconfig.LoadOptions) error{
					awsconfig.WithRegion(rootFlags.region),
					// DynamoDB Local requires credentials even though they are not used.
					awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")),
				}
			}

			db, err := tabletheory.NewBasic(sessionCfg)
			if err != nil {
				return fmt.Errorf("init tabletheory: %w", err)
			}

			status, err := jobs.NewStatusStore(db).Get(ctx, args[0])
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&tableName, "table", "", "job status table name (defaults to JOB_STATUS_TABLE)")
	cmd.Flags().StringVar(&endpoint, "ddb-endpoint", "", "DynamoDB endpoint override for local testing")

	return cmd
}
