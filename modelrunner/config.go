// Package modelrunner provisions the model-runner dataplane: the ECS
// service that consumes image-processing requests, invokes model endpoints,
// and publishes status, together with its queues, tables, and topics.
package modelrunner

import "github.com/aws/aws-cdk-go/awscdk/v2/awslogs"

// DataplaneConfig carries every name and sizing default the dataplane uses.
// Zero values are filled in by applyDefaults, so callers only override what
// they care about.
type DataplaneConfig struct {
	ClusterName   string
	ServiceName   string
	ContainerName string

	TaskCPU       float64
	TaskMemoryMiB float64
	DesiredCount  float64
	MinTasks      float64
	MaxTasks      float64
	WorkersPerCPU float64

	ImageQueueName  string
	RegionQueueName string

	ImageStatusTopicName  string
	RegionStatusTopicName string

	JobStatusTableName     string
	RegionRequestTableName string
	EndpointStatsTableName string
	FeatureTableName       string

	ImageryBucketName string

	LogRetention awslogs.RetentionDays

	// ContainerEnv is merged into the wiring environment; wiring keys win.
	ContainerEnv map[string]string
}

// DefaultDataplaneConfig returns the production defaults.
func DefaultDataplaneConfig() DataplaneConfig {
	cfg := DataplaneConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *DataplaneConfig) applyDefaults() {
	if c.ClusterName == "" {
		c.ClusterName = "model-runner-cluster"
	}
	if c.ServiceName == "" {
		c.ServiceName = "model-runner"
	}
	if c.ContainerName == "" {
		c.ContainerName = "model-runner"
	}
	if c.TaskCPU == 0 {
		c.TaskCPU = 8192
	}
	if c.TaskMemoryMiB == 0 {
		c.TaskMemoryMiB = 16384
	}
	if c.DesiredCount == 0 {
		c.DesiredCount = 1
	}
	if c.MinTasks == 0 {
		c.MinTasks = 1
	}
	if c.MaxTasks == 0 {
		c.MaxTasks = 25
	}
	if c.WorkersPerCPU == 0 {
		c.WorkersPerCPU = 2
	}
	if c.ImageQueueName == "" {
		c.ImageQueueName = "image-requests"
	}
	if c.RegionQueueName == "" {
		c.RegionQueueName = "region-requests"
	}
	if c.ImageStatusTopicName == "" {
		c.ImageStatusTopicName = "image-status"
	}
	if c.RegionStatusTopicName == "" {
		c.RegionStatusTopicName = "region-status"
	}
	if c.JobStatusTableName == "" {
		c.JobStatusTableName = "job-status"
	}
	if c.RegionRequestTableName == "" {
		c.RegionRequestTableName = "region-request-status"
	}
	if c.EndpointStatsTableName == "" {
		c.EndpointStatsTableName = "endpoint-statistics"
	}
	if c.FeatureTableName == "" {
		c.FeatureTableName = "image-features"
	}
	if c.ImageryBucketName == "" {
		c.ImageryBucketName = "imagery"
	}
	if c.LogRetention == "" {
		c.LogRetention = awslogs.RetentionDays_ONE_MONTH
	}
}
