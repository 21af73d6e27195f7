package modelrunner

import (
	"strconv"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/geotheory"
	"github.com/theory-cloud/geotheory/pkg/naming"
)

// DataplaneProps wires the model-runner dataplane together.
type DataplaneProps struct {
	Account geotheory.Account
	Vpc     *geotheory.Vpc

	// ContainerImage is the model-runner service image.
	ContainerImage *geotheory.ContainerImage

	// Config overrides individual defaults; nil uses DefaultDataplaneConfig.
	Config *DataplaneConfig

	// ImageryBucket holds the source imagery. Nil creates one.
	ImageryBucket awss3.IBucket

	// TaskRole substitutes a pre-built role for the one NewTaskRole creates.
	TaskRole awsiam.IRole
}

// Dataplane exposes every resource the model runner provisions.
type Dataplane struct {
	Config DataplaneConfig

	Cluster        awsecs.Cluster
	TaskDefinition awsecs.FargateTaskDefinition
	Service        awsecs.FargateService
	TaskRole       awsiam.IRole
	LogGroup       awslogs.LogGroup

	ImageQueue  *geotheory.Queue
	RegionQueue *geotheory.Queue

	ImageStatusTopic  *geotheory.Topic
	RegionStatusTopic *geotheory.Topic

	JobStatusTable     *geotheory.Table
	RegionRequestTable *geotheory.Table
	EndpointStatsTable *geotheory.Table
	FeatureTable       *geotheory.Table

	ImageryBucket awss3.IBucket

	Autoscaling *Autoscaling
	Monitoring  *Monitoring
}

// NewDataplane provisions the model-runner service and everything it talks
// to. Autoscaling and monitoring are gated on the account's toggles.
func NewDataplane(scope constructs.Construct, id string, props *DataplaneProps) *Dataplane {
	cfg := DataplaneConfig{}
	if props.Config != nil {
		cfg = *props.Config
	}
	cfg.applyDefaults()

	account := props.Account
	profile := geotheory.RegionProfileFor(account.Region)
	dp := &Dataplane{Config: cfg}

	scope = constructs.NewConstruct(scope, jsii.String(id))

	dp.ImageQueue = geotheory.NewQueue(scope, "ImageRequestQueue", &geotheory.QueueProps{
		Account:   account,
		QueueName: cfg.ImageQueueName,
	})
	dp.RegionQueue = geotheory.NewQueue(scope, "RegionRequestQueue", &geotheory.QueueProps{
		Account:   account,
		QueueName: cfg.RegionQueueName,
	})

	dp.ImageStatusTopic = geotheory.NewTopic(scope, "ImageStatusTopic", &geotheory.TopicProps{
		Account:   account,
		TopicName: cfg.ImageStatusTopicName,
	})
	dp.RegionStatusTopic = geotheory.NewTopic(scope, "RegionStatusTopic", &geotheory.TopicProps{
		Account:   account,
		TopicName: cfg.RegionStatusTopicName,
	})

	dp.JobStatusTable = geotheory.NewTable(scope, "JobStatusTable", &geotheory.TableProps{
		Account:   account,
		TableName: cfg.JobStatusTableName,
		PartitionKey: &awsdynamodb.Attribute{
			Name: jsii.String("job_id"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		TTLAttribute: "expire_time",
	})
	dp.RegionRequestTable = geotheory.NewTable(scope, "RegionRequestTable", &geotheory.TableProps{
		Account:   account,
		TableName: cfg.RegionRequestTableName,
		PartitionKey: &awsdynamodb.Attribute{
			Name: jsii.String("region_id"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		SortKey: &awsdynamodb.Attribute{
			Name: jsii.String("job_id"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		TTLAttribute: "expire_time",
	})
	dp.EndpointStatsTable = geotheory.NewTable(scope, "EndpointStatsTable", &geotheory.TableProps{
		Account:   account,
		TableName: cfg.EndpointStatsTableName,
		PartitionKey: &awsdynamodb.Attribute{
			Name: jsii.String("endpoint"),
			Type: awsdynamodb.AttributeType_STRING,
		},
	})
	dp.FeatureTable = geotheory.NewTable(scope, "FeatureTable", &geotheory.TableProps{
		Account:   account,
		TableName: cfg.FeatureTableName,
		PartitionKey: &awsdynamodb.Attribute{
			Name: jsii.String("hash_key"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		SortKey: &awsdynamodb.Attribute{
			Name: jsii.String("range_key"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		TTLAttribute: "expire_time",
	})

	dp.ImageryBucket = props.ImageryBucket
	if dp.ImageryBucket == nil {
		dp.ImageryBucket = geotheory.NewBucket(scope, "ImageryBucket", &geotheory.BucketProps{
			Account:    account,
			BucketName: cfg.ImageryBucketName,
			AccessLogs: account.ProdLike,
		}).Bucket
	}

	dp.LogGroup = awslogs.NewLogGroup(scope, jsii.String("ServiceLogGroup"), &awslogs.LogGroupProps{
		LogGroupName:  jsii.String(naming.LogGroupName(account.ResourceName(cfg.ServiceName))),
		Retention:     cfg.LogRetention,
		RemovalPolicy: geotheory.RemovalPolicyFor(account),
	})

	dp.Cluster = awsecs.NewCluster(scope, jsii.String("Cluster"), &awsecs.ClusterProps{
		ClusterName:       jsii.String(account.ResourceName(cfg.ClusterName)),
		Vpc:               props.Vpc.Vpc,
		ContainerInsights: jsii.Bool(account.EnableMonitoring),
	})

	dp.TaskRole = props.TaskRole
	if dp.TaskRole == nil {
		dp.TaskRole = NewTaskRole(scope, "TaskRole", &TaskRoleProps{Account: account})
	}

	dp.TaskDefinition = awsecs.NewFargateTaskDefinition(scope, jsii.String("TaskDefinition"), &awsecs.FargateTaskDefinitionProps{
		Family:         jsii.String(account.ResourceName(cfg.ServiceName)),
		Cpu:            jsii.Number(cfg.TaskCPU),
		MemoryLimitMiB: jsii.Number(cfg.TaskMemoryMiB),
		TaskRole:       dp.TaskRole,
	})

	// Log-router sidecar; the image differs by partition.
	dp.TaskDefinition.AddFirelensLogRouter(jsii.String("LogRouter"), &awsecs.FirelensLogRouterDefinitionOptions{
		Image: awsecs.ContainerImage_FromRegistry(jsii.String(profile.FirelensImageURI(account)), nil),
		FirelensConfig: &awsecs.FirelensConfig{
			Type: awsecs.FirelensLogRouterType_FLUENTBIT,
		},
		MemoryReservationMiB: jsii.Number(512),
	})

	dp.TaskDefinition.AddContainer(jsii.String("Container"), &awsecs.ContainerDefinitionOptions{
		ContainerName: jsii.String(cfg.ContainerName),
		Image:         props.ContainerImage.Image,
		Essential:     jsii.Bool(true),
		Environment:   dp.containerEnvironment(account),
		Logging: awsecs.LogDrivers_Firelens(&awsecs.FireLensLogDriverProps{
			Options: &map[string]*string{
				"Name":              jsii.String("cloudwatch"),
				"region":            jsii.String(account.Region),
				"log_group_name":    dp.LogGroup.LogGroupName(),
				"log_stream_prefix": jsii.String(cfg.ServiceName + "/"),
			},
		}),
	})

	if props.ContainerImage.Repository != nil {
		props.ContainerImage.Repository.GrantPull(dp.TaskDefinition.ObtainExecutionRole())
	}

	dp.ImageQueue.Queue.GrantConsumeMessages(dp.TaskRole)
	dp.ImageQueue.DeadLetterQueue.GrantSendMessages(dp.TaskRole)
	dp.RegionQueue.Queue.GrantConsumeMessages(dp.TaskRole)
	dp.RegionQueue.Queue.GrantSendMessages(dp.TaskRole)
	dp.ImageStatusTopic.Topic.GrantPublish(dp.TaskRole)
	dp.RegionStatusTopic.Topic.GrantPublish(dp.TaskRole)
	dp.JobStatusTable.Table.GrantReadWriteData(dp.TaskRole)
	dp.RegionRequestTable.Table.GrantReadWriteData(dp.TaskRole)
	dp.EndpointStatsTable.Table.GrantReadWriteData(dp.TaskRole)
	dp.FeatureTable.Table.GrantReadWriteData(dp.TaskRole)
	// Imagery is read-only for the runner; results go to per-job output locations.
	dp.ImageryBucket.GrantRead(dp.TaskRole, nil)
	dp.LogGroup.GrantWrite(dp.TaskRole)

	dp.Service = awsecs.NewFargateService(scope, jsii.String("Service"), &awsecs.FargateServiceProps{
		ServiceName:    jsii.String(account.ResourceName(cfg.ServiceName)),
		Cluster:        dp.Cluster,
		TaskDefinition: dp.TaskDefinition,
		DesiredCount:   jsii.Number(cfg.DesiredCount),
		VpcSubnets:     props.Vpc.Subnets,
		CircuitBreaker: &awsecs.DeploymentCircuitBreaker{
			Rollback: jsii.Bool(true),
		},
	})

	if account.EnableAutoscaling {
		dp.Autoscaling = NewAutoscaling(scope, "Autoscaling", &AutoscalingProps{
			Account:    account,
			Service:    dp.Service,
			ImageQueue: dp.ImageQueue.Queue,
			MinTasks:   cfg.MinTasks,
			MaxTasks:   cfg.MaxTasks,
		})
	}
	if account.EnableMonitoring {
		dp.Monitoring = NewMonitoring(scope, "Monitoring", &MonitoringProps{
			Account:   account,
			Dataplane: dp,
		})
	}

	awscdk.Tags_Of(scope).Add(jsii.String("geotheory:dataplane"), jsii.String("model-runner"), nil)

	return dp
}

func (dp *Dataplane) containerEnvironment(account geotheory.Account) *map[string]*string {
	env := map[string]*string{
		"AWS_DEFAULT_REGION":       jsii.String(account.Region),
		"IMAGE_REQUEST_QUEUE_URL":  dp.ImageQueue.Queue.QueueUrl(),
		"REGION_REQUEST_QUEUE_URL": dp.RegionQueue.Queue.QueueUrl(),
		"IMAGE_STATUS_TOPIC_ARN":   dp.ImageStatusTopic.Topic.TopicArn(),
		"REGION_STATUS_TOPIC_ARN":  dp.RegionStatusTopic.Topic.TopicArn(),
		"JOB_STATUS_TABLE":         dp.JobStatusTable.Table.TableName(),
		"REGION_REQUEST_TABLE":     dp.RegionRequestTable.Table.TableName(),
		"ENDPOINT_STATS_TABLE":     dp.EndpointStatsTable.Table.TableName(),
		"FEATURE_TABLE":            dp.FeatureTable.Table.TableName(),
		"IMAGERY_BUCKET":           dp.ImageryBucket.BucketName(),
		"WORKERS_PER_CPU":          jsii.String(strconv.Itoa(int(dp.Config.WorkersPerCPU))),
	}
	for k, v := range dp.Config.ContainerEnv {
		if _, reserved := env[k]; reserved {
			continue
		}
		env[k] = jsii.String(v)
	}
	return &env
}
