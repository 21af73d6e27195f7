package geotheory

import (
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStack(t *testing.T) awscdk.Stack {
	t.Helper()
	app := awscdk.NewApp(nil)
	return awscdk.NewStack(app, jsii.String("Test"), nil)
}

func TestNewTable(t *testing.T) {
	stack := testStack(t)

	NewTable(stack, "JobStatus", &TableProps{
		Account:   prodAccount(),
		TableName: "job-status",
		PartitionKey: &awsdynamodb.Attribute{
			Name: jsii.String("job_id"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		TTLAttribute: "expire_time",
	})

	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String("AWS::DynamoDB::Table"), map[string]interface{}{
		"TableName":   "geotheory-job-status-live",
		"BillingMode": "PAY_PER_REQUEST",
		"TimeToLiveSpecification": map[string]interface{}{
			"AttributeName": "expire_time",
			"Enabled":       true,
		},
		"PointInTimeRecoverySpecification": map[string]interface{}{
			"PointInTimeRecoveryEnabled": true,
		},
	})
	template.HasResource(jsii.String("AWS::DynamoDB::Table"), map[string]interface{}{
		"DeletionPolicy": "Retain",
	})
}

func TestNewTableDevAccountIsDestroyed(t *testing.T) {
	stack := testStack(t)

	NewTable(stack, "JobStatus", &TableProps{
		Account:   devAccount(),
		TableName: "job-status",
		PartitionKey: &awsdynamodb.Attribute{
			Name: jsii.String("job_id"),
			Type: awsdynamodb.AttributeType_STRING,
		},
	})

	template := assertions.Template_FromStack(stack, nil)
	template.HasResource(jsii.String("AWS::DynamoDB::Table"), map[string]interface{}{
		"DeletionPolicy": "Delete",
	})
}

func TestNewQueueCreatesDLQPair(t *testing.T) {
	stack := testStack(t)

	queue := NewQueue(stack, "ImageRequests", &QueueProps{
		Account:   devAccount(),
		QueueName: "image-requests",
	})
	require.NotNil(t, queue.Queue)
	require.NotNil(t, queue.DeadLetterQueue)

	template := assertions.Template_FromStack(stack, nil)
	template.ResourceCountIs(jsii.String("AWS::SQS::Queue"), jsii.Number(2))
	template.HasResourceProperties(jsii.String("AWS::SQS::Queue"), map[string]interface{}{
		"QueueName":         "geotheory-image-requests-dev",
		"VisibilityTimeout": 600,
		"RedrivePolicy": map[string]interface{}{
			"maxReceiveCount": 3,
		},
	})
	template.HasResourceProperties(jsii.String("AWS::SQS::Queue"), map[string]interface{}{
		"QueueName": "geotheory-image-requests-dlq-dev",
	})
}

func TestNewBucketProdDefaults(t *testing.T) {
	stack := testStack(t)

	bucket := NewBucket(stack, "Imagery", &BucketProps{
		Account:    prodAccount(),
		BucketName: "imagery",
		AccessLogs: true,
	})
	require.NotNil(t, bucket.AccessLogsBucket)

	template := assertions.Template_FromStack(stack, nil)
	template.ResourceCountIs(jsii.String("AWS::S3::Bucket"), jsii.Number(2))
	template.HasResourceProperties(jsii.String("AWS::S3::Bucket"), map[string]interface{}{
		"BucketName": "geotheory-imagery-live",
		"VersioningConfiguration": map[string]interface{}{
			"Status": "Enabled",
		},
	})
}

func TestNewRepository(t *testing.T) {
	stack := testStack(t)

	NewRepository(stack, "ModelRunner", &RepositoryProps{
		Account:        devAccount(),
		RepositoryName: "model-runner",
	})

	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String("AWS::ECR::Repository"), map[string]interface{}{
		"RepositoryName": "geotheory-model-runner-dev",
		"ImageScanningConfiguration": map[string]interface{}{
			"ScanOnPush": true,
		},
		"EmptyOnDelete": true,
	})
}

func TestNewVpcLayout(t *testing.T) {
	stack := testStack(t)

	vpc := NewVpc(stack, "Vpc", &VpcProps{Account: prodAccount()})
	require.NotNil(t, vpc.Vpc)

	template := assertions.Template_FromStack(stack, nil)
	template.ResourceCountIs(jsii.String("AWS::EC2::VPC"), jsii.Number(1))
	// Two gateway endpoints: S3 and DynamoDB.
	template.ResourceCountIs(jsii.String("AWS::EC2::VPCEndpoint"), jsii.Number(2))
	// Flow logs only on prod-like accounts.
	template.ResourceCountIs(jsii.String("AWS::EC2::FlowLog"), jsii.Number(1))
}

func TestNewContainerImagePanicsOnBadConfig(t *testing.T) {
	stack := testStack(t)

	assert.Panics(t, func() {
		NewContainerImage(stack, "Empty", &ContainerImageProps{Account: devAccount()})
	})
	assert.Panics(t, func() {
		NewContainerImage(stack, "IsoAsset", &ContainerImageProps{
			Account:        isolatedAccount(),
			AssetDirectory: "./container",
		})
	})
}

func TestNewContainerImageFromRepositoryName(t *testing.T) {
	stack := testStack(t)

	image := NewContainerImage(stack, "Imported", &ContainerImageProps{
		Account:        devAccount(),
		RepositoryName: "model-runner",
		Tag:            "v3",
	})
	require.NotNil(t, image.Image)
	require.NotNil(t, image.Repository)
}
