package tileserver

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsefs"
	elbv2 "github.com/aws/aws-cdk-go/awscdk/v2/awselasticloadbalancingv2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/geotheory"
	"github.com/theory-cloud/geotheory/pkg/naming"
)

// DataplaneProps wires the tile-server dataplane together.
type DataplaneProps struct {
	Account geotheory.Account
	Vpc     *geotheory.Vpc

	// ContainerImage is the tile-server service image.
	ContainerImage *geotheory.ContainerImage

	// Config overrides individual defaults; nil uses DefaultDataplaneConfig.
	Config *DataplaneConfig

	// ImageryBucket holds the source imagery tiles are cut from. Nil
	// creates one; deployments sharing imagery with a model runner should
	// pass its bucket instead.
	ImageryBucket awss3.IBucket

	// TaskRole substitutes a pre-built role for the one NewTaskRole creates.
	TaskRole awsiam.IRole
}

// Dataplane exposes every resource the tile server provisions.
type Dataplane struct {
	Config DataplaneConfig

	Cluster        awsecs.Cluster
	TaskDefinition awsecs.FargateTaskDefinition
	Service        awsecs.FargateService
	TaskRole       awsiam.IRole
	LogGroup       awslogs.LogGroup

	FileSystem  awsefs.FileSystem
	AccessPoint awsefs.AccessPoint

	LoadBalancer elbv2.ApplicationLoadBalancer
	Listener     elbv2.ApplicationListener

	JobQueue *geotheory.Queue
	JobTable *geotheory.Table

	ImageryBucket awss3.IBucket

	// Vpc is the network the service and its balancers live in.
	Vpc *geotheory.Vpc
}

// NewDataplane provisions the tile-server service, its EFS tile cache, and
// the internal load balancer in front of it.
func NewDataplane(scope constructs.Construct, id string, props *DataplaneProps) *Dataplane {
	cfg := DataplaneConfig{}
	if props.Config != nil {
		cfg = *props.Config
	}
	cfg.applyDefaults()

	account := props.Account
	profile := geotheory.RegionProfileFor(account.Region)
	dp := &Dataplane{Config: cfg, Vpc: props.Vpc}

	scope = constructs.NewConstruct(scope, jsii.String(id))

	dp.JobQueue = geotheory.NewQueue(scope, "JobQueue", &geotheory.QueueProps{
		Account:   account,
		QueueName: cfg.JobQueueName,
	})
	dp.JobTable = geotheory.NewTable(scope, "JobTable", &geotheory.TableProps{
		Account:   account,
		TableName: cfg.JobTableName,
		PartitionKey: &awsdynamodb.Attribute{
			Name: jsii.String("job_id"),
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

	dp.FileSystem = awsefs.NewFileSystem(scope, jsii.String("TileCache"), &awsefs.FileSystemProps{
		Vpc:             props.Vpc.Vpc,
		Encrypted:       jsii.Bool(true),
		LifecyclePolicy: awsefs.LifecyclePolicy_AFTER_14_DAYS,
		RemovalPolicy:   geotheory.RemovalPolicyFor(account),
	})
	dp.AccessPoint = dp.FileSystem.AddAccessPoint(jsii.String("TileCacheAccessPoint"), &awsefs.AccessPointOptions{
		Path: jsii.String("/tiles"),
		CreateAcl: &awsefs.Acl{
			OwnerGid:    jsii.String("1000"),
			OwnerUid:    jsii.String("1000"),
			Permissions: jsii.String("750"),
		},
		PosixUser: &awsefs.PosixUser{
			Gid: jsii.String("1000"),
			Uid: jsii.String("1000"),
		},
	})

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
	dp.TaskDefinition.AddVolume(&awsecs.Volume{
		Name: jsii.String(cfg.VolumeName),
		EfsVolumeConfiguration: &awsecs.EfsVolumeConfiguration{
			FileSystemId:      dp.FileSystem.FileSystemId(),
			TransitEncryption: jsii.String("ENABLED"),
			AuthorizationConfig: &awsecs.AuthorizationConfig{
				AccessPointId: dp.AccessPoint.AccessPointId(),
				Iam:           jsii.String("ENABLED"),
			},
		},
	})

	dp.TaskDefinition.AddFirelensLogRouter(jsii.String("LogRouter"), &awsecs.FirelensLogRouterDefinitionOptions{
		Image: awsecs.ContainerImage_FromRegistry(jsii.String(profile.FirelensImageURI(account)), nil),
		FirelensConfig: &awsecs.FirelensConfig{
			Type: awsecs.FirelensLogRouterType_FLUENTBIT,
		},
		MemoryReservationMiB: jsii.Number(512),
	})

	container := dp.TaskDefinition.AddContainer(jsii.String("Container"), &awsecs.ContainerDefinitionOptions{
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
	container.AddPortMappings(&awsecs.PortMapping{
		ContainerPort: jsii.Number(cfg.ContainerPort),
	})
	container.AddMountPoints(&awsecs.MountPoint{
		SourceVolume:  jsii.String(cfg.VolumeName),
		ContainerPath: jsii.String(cfg.MountPath),
		ReadOnly:      jsii.Bool(false),
	})

	if props.ContainerImage.Repository != nil {
		props.ContainerImage.Repository.GrantPull(dp.TaskDefinition.ObtainExecutionRole())
	}

	dp.JobQueue.Queue.GrantConsumeMessages(dp.TaskRole)
	dp.JobQueue.Queue.GrantSendMessages(dp.TaskRole)
	dp.JobTable.Table.GrantReadWriteData(dp.TaskRole)
	dp.ImageryBucket.GrantRead(dp.TaskRole, nil)
	dp.LogGroup.GrantWrite(dp.TaskRole)
	dp.TaskRole.AddToPrincipalPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions: jsii.Strings(
			"elasticfilesystem:ClientMount",
			"elasticfilesystem:ClientWrite",
			"elasticfilesystem:ClientRootAccess",
		),
		Resources: &[]*string{dp.FileSystem.FileSystemArn()},
	}))

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
	dp.FileSystem.Connections().AllowDefaultPortFrom(dp.Service, jsii.String("tile-server NFS access"))

	dp.LoadBalancer = elbv2.NewApplicationLoadBalancer(scope, jsii.String("LoadBalancer"), &elbv2.ApplicationLoadBalancerProps{
		Vpc:            props.Vpc.Vpc,
		InternetFacing: jsii.Bool(false),
	})
	dp.Listener = dp.LoadBalancer.AddListener(jsii.String("Http"), &elbv2.BaseApplicationListenerProps{
		Port:     jsii.Number(80),
		Protocol: elbv2.ApplicationProtocol_HTTP,
		Open:     jsii.Bool(false),
	})
	dp.Listener.AddTargets(jsii.String("Service"), &elbv2.AddApplicationTargetsProps{
		Port:     jsii.Number(cfg.ContainerPort),
		Protocol: elbv2.ApplicationProtocol_HTTP,
		Targets:  &[]elbv2.IApplicationLoadBalancerTarget{dp.Service},
		HealthCheck: &elbv2.HealthCheck{
			Path:                    jsii.String(cfg.HealthCheckPath),
			HealthyThresholdCount:   jsii.Number(2),
			UnhealthyThresholdCount: jsii.Number(5),
			Interval:                awscdk.Duration_Seconds(jsii.Number(30)),
		},
	})

	awscdk.Tags_Of(scope).Add(jsii.String("geotheory:dataplane"), jsii.String("tile-server"), nil)

	return dp
}

func (dp *Dataplane) containerEnvironment(account geotheory.Account) *map[string]*string {
	env := map[string]*string{
		"AWS_DEFAULT_REGION": jsii.String(account.Region),
		"JOB_QUEUE_URL":      dp.JobQueue.Queue.QueueUrl(),
		"JOB_TABLE":          dp.JobTable.Table.TableName(),
		"IMAGERY_BUCKET":     dp.ImageryBucket.BucketName(),
		"TILE_CACHE_PATH":    jsii.String(dp.Config.MountPath),
	}
	for k, v := range dp.Config.ContainerEnv {
		if _, reserved := env[k]; reserved {
			continue
		}
		env[k] = jsii.String(v)
	}
	return &env
}
