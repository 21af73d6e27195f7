package modelrunner

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	appscaling "github.com/aws/aws-cdk-go/awscdk/v2/awsapplicationautoscaling"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudwatch"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssqs"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/geotheory"
)

// AutoscalingProps configures service scaling for the model runner.
type AutoscalingProps struct {
	Account geotheory.Account

	Service    awsecs.FargateService
	ImageQueue awssqs.IQueue

	MinTasks float64
	MaxTasks float64
}

// Autoscaling scales the service on image-request backlog.
//
// Standard partitions combine CPU target tracking with backlog step scaling.
// Isolated partitions do not support the managed target-tracking integration,
// so scaling there is driven entirely by CloudWatch alarms on queue depth.
type Autoscaling struct {
	Target awsecs.ScalableTaskCount

	// BacklogAlarm is the scale-out alarm; surfaced so monitoring can chart it.
	BacklogAlarm awscloudwatch.Alarm
}

// NewAutoscaling attaches the scaling policies for the account's partition.
func NewAutoscaling(scope constructs.Construct, id string, props *AutoscalingProps) *Autoscaling {
	scope = constructs.NewConstruct(scope, jsii.String(id))

	target := props.Service.AutoScaleTaskCount(&appscaling.EnableScalingProps{
		MinCapacity: jsii.Number(props.MinTasks),
		MaxCapacity: jsii.Number(props.MaxTasks),
	})

	backlog := props.ImageQueue.MetricApproximateNumberOfMessagesVisible(&awscloudwatch.MetricOptions{
		Period:    awscdk.Duration_Minutes(jsii.Number(1)),
		Statistic: jsii.String("Maximum"),
	})

	if !props.Account.Isolated {
		target.ScaleOnCpuUtilization(jsii.String("CpuScaling"), &awsecs.CpuUtilizationScalingProps{
			TargetUtilizationPercent: jsii.Number(70),
			ScaleInCooldown:          awscdk.Duration_Minutes(jsii.Number(3)),
			ScaleOutCooldown:         awscdk.Duration_Minutes(jsii.Number(1)),
		})
	}

	target.ScaleOnMetric(jsii.String("BacklogScaling"), &appscaling.BasicStepScalingPolicyProps{
		Metric:         backlog,
		AdjustmentType: appscaling.AdjustmentType_CHANGE_IN_CAPACITY,
		ScalingSteps: &[]*appscaling.ScalingInterval{
			{Upper: jsii.Number(0), Change: jsii.Number(-1)},
			{Lower: jsii.Number(10), Change: jsii.Number(2)},
			{Lower: jsii.Number(100), Change: jsii.Number(5)},
		},
	})

	alarm := awscloudwatch.NewAlarm(scope, jsii.String("BacklogAlarm"), &awscloudwatch.AlarmProps{
		AlarmName:          jsii.String(props.Account.ResourceName("image-backlog")),
		Metric:             backlog,
		Threshold:          jsii.Number(10),
		EvaluationPeriods:  jsii.Number(3),
		ComparisonOperator: awscloudwatch.ComparisonOperator_GREATER_THAN_OR_EQUAL_TO_THRESHOLD,
		TreatMissingData:   awscloudwatch.TreatMissingData_NOT_BREACHING,
	})

	return &Autoscaling{
		Target:       target,
		BacklogAlarm: alarm,
	}
}
