// geotheory synthesizes the imagery dataplane stacks for one deployment
// account: a model-runner stack and a tile-server stack that shares its VPC.
package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/joho/godotenv"

	"github.com/theory-cloud/geotheory"
	"github.com/theory-cloud/geotheory/modelrunner"
	"github.com/theory-cloud/geotheory/tileserver"
)

func main() {
	defer jsii.Close()

	_ = godotenv.Load()

	account, err := loadAccount()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := awscdk.NewApp(nil)

	mrStack := awscdk.NewStack(app, jsii.String(account.StackName("model-runner")), &awscdk.StackProps{
		Env: account.Env(),
	})

	vpc := geotheory.NewVpc(mrStack, "Vpc", &geotheory.VpcProps{
		Account: account,
		VpcID:   os.Getenv("GEOTHEORY_VPC_ID"),
	})

	mrImage := geotheory.NewContainerImage(mrStack, "ModelRunnerImage", &geotheory.ContainerImageProps{
		Account:        account,
		RepositoryName: envOr("MODEL_RUNNER_REPOSITORY", "model-runner"),
		Tag:            os.Getenv("MODEL_RUNNER_TAG"),
	})

	mr := modelrunner.NewDataplane(mrStack, "ModelRunner", &modelrunner.DataplaneProps{
		Account:        account,
		Vpc:            vpc,
		ContainerImage: mrImage,
	})

	awscdk.NewCfnOutput(mrStack, jsii.String("ImageRequestQueueUrl"), &awscdk.CfnOutputProps{
		Value: mr.ImageQueue.Queue.QueueUrl(),
	})
	awscdk.NewCfnOutput(mrStack, jsii.String("RegionRequestQueueUrl"), &awscdk.CfnOutputProps{
		Value: mr.RegionQueue.Queue.QueueUrl(),
	})
	awscdk.NewCfnOutput(mrStack, jsii.String("JobStatusTableName"), &awscdk.CfnOutputProps{
		Value: mr.JobStatusTable.Table.TableName(),
	})

	tsStack := awscdk.NewStack(app, jsii.String(account.StackName("tile-server")), &awscdk.StackProps{
		Env: account.Env(),
	})
	tsStack.AddDependency(mrStack, jsii.String("tile server reuses the model runner VPC"))

	tsImage := geotheory.NewContainerImage(tsStack, "TileServerImage", &geotheory.ContainerImageProps{
		Account:        account,
		RepositoryName: envOr("TILE_SERVER_REPOSITORY", "tile-server"),
		Tag:            os.Getenv("TILE_SERVER_TAG"),
	})

	ts := tileserver.NewDataplane(tsStack, "TileServer", &tileserver.DataplaneProps{
		Account:        account,
		Vpc:            vpc,
		ContainerImage: tsImage,
		ImageryBucket:  mr.ImageryBucket,
	})

	awscdk.NewCfnOutput(tsStack, jsii.String("TileServerEndpoint"), &awscdk.CfnOutputProps{
		Value: ts.LoadBalancer.LoadBalancerDnsName(),
	})
	awscdk.NewCfnOutput(tsStack, jsii.String("TileJobQueueUrl"), &awscdk.CfnOutputProps{
		Value: ts.JobQueue.Queue.QueueUrl(),
	})

	if account.EnableAuth {
		api := tileserver.NewApi(tsStack, "Api", &tileserver.ApiProps{
			Account:            account,
			Dataplane:          ts,
			Authority:          os.Getenv("AUTHORITY"),
			Audience:           os.Getenv("AUDIENCE"),
			AuthorizerCodePath: envOr("AUTHORIZER_CODE_PATH", "build/authorizer"),
			AlarmTopicARN:      os.Getenv("ALARM_TOPIC_ARN"),
		})
		awscdk.NewCfnOutput(tsStack, jsii.String("TileServerApiUrl"), &awscdk.CfnOutputProps{
			Value: api.RestApi.Url(),
		})
	}

	app.Synth(nil)
}

// loadAccount reads the account descriptor named by GEOTHEORY_CONFIG, or
// assembles one from the environment when no config file is present.
func loadAccount() (geotheory.Account, error) {
	path := envOr("GEOTHEORY_CONFIG", "account.yaml")
	if _, err := os.Stat(path); err == nil {
		return geotheory.LoadAccount(path)
	}

	account := geotheory.Account{
		App:               envOr("GEOTHEORY_APP", "geotheory"),
		ID:                os.Getenv("ACCOUNT_ID"),
		Region:            os.Getenv("REGION"),
		Stage:             envOr("STAGE", "dev"),
		ProdLike:          os.Getenv("PROD_LIKE") == "true",
		Isolated:          os.Getenv("ISOLATED") == "true",
		EnableAutoscaling: os.Getenv("ENABLE_AUTOSCALING") == "true",
		EnableMonitoring:  os.Getenv("ENABLE_MONITORING") == "true",
		EnableAuth:        os.Getenv("ENABLE_AUTH") == "true",
	}
	if err := account.Validate(); err != nil {
		return geotheory.Account{}, err
	}
	return account, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
