package modelrunner

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudwatch"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/geotheory"
)

// MonitoringProps configures the model-runner dashboard.
type MonitoringProps struct {
	Account   geotheory.Account
	Dataplane *Dataplane
}

// Monitoring is the CloudWatch dashboard for one model-runner deployment.
type Monitoring struct {
	Dashboard awscloudwatch.Dashboard
}

// NewMonitoring builds a dashboard over the request queues, the service, and
// the job-status table.
func NewMonitoring(scope constructs.Construct, id string, props *MonitoringProps) *Monitoring {
	dp := props.Dataplane

	dashboard := awscloudwatch.NewDashboard(scope, jsii.String(id), &awscloudwatch.DashboardProps{
		DashboardName: jsii.String(props.Account.ResourceName("model-runner")),
	})

	dashboard.AddWidgets(
		awscloudwatch.NewGraphWidget(&awscloudwatch.GraphWidgetProps{
			Title: jsii.String("Request backlog"),
			Left: &[]awscloudwatch.IMetric{
				dp.ImageQueue.Queue.MetricApproximateNumberOfMessagesVisible(nil),
				dp.RegionQueue.Queue.MetricApproximateNumberOfMessagesVisible(nil),
			},
		}),
		awscloudwatch.NewGraphWidget(&awscloudwatch.GraphWidgetProps{
			Title: jsii.String("Oldest request age"),
			Left: &[]awscloudwatch.IMetric{
				dp.ImageQueue.Queue.MetricApproximateAgeOfOldestMessage(nil),
				dp.RegionQueue.Queue.MetricApproximateAgeOfOldestMessage(nil),
			},
		}),
	)
	dashboard.AddWidgets(
		awscloudwatch.NewGraphWidget(&awscloudwatch.GraphWidgetProps{
			Title: jsii.String("Service utilization"),
			Left: &[]awscloudwatch.IMetric{
				dp.Service.MetricCpuUtilization(nil),
				dp.Service.MetricMemoryUtilization(nil),
			},
		}),
		awscloudwatch.NewGraphWidget(&awscloudwatch.GraphWidgetProps{
			Title: jsii.String("Job status writes"),
			Left: &[]awscloudwatch.IMetric{
				dp.JobStatusTable.Table.MetricConsumedWriteCapacityUnits(nil),
				dp.JobStatusTable.Table.MetricConsumedReadCapacityUnits(nil),
			},
		}),
	)
	dashboard.AddWidgets(
		awscloudwatch.NewGraphWidget(&awscloudwatch.GraphWidgetProps{
			Title: jsii.String("Dead letters"),
			Left: &[]awscloudwatch.IMetric{
				dp.ImageQueue.DeadLetterQueue.MetricApproximateNumberOfMessagesVisible(nil),
				dp.RegionQueue.DeadLetterQueue.MetricApproximateNumberOfMessagesVisible(nil),
			},
		}),
	)
	if dp.Autoscaling != nil {
		dashboard.AddWidgets(
			awscloudwatch.NewAlarmWidget(&awscloudwatch.AlarmWidgetProps{
				Title: jsii.String("Backlog alarm"),
				Alarm: dp.Autoscaling.BacklogAlarm,
			}),
		)
	}

	return &Monitoring{Dashboard: dashboard}
}
