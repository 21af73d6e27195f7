// Package tileserver provisions the tile-server dataplane: the ECS service
// that slices imagery into map tiles behind an internal load balancer, with
// its EFS tile cache, job queue, and job table, and an optional
// authorizer-protected REST API front door.
package tileserver

import "github.com/aws/aws-cdk-go/awscdk/v2/awslogs"

// DataplaneConfig carries the tile-server names and sizing defaults.
type DataplaneConfig struct {
	ClusterName   string
	ServiceName   string
	ContainerName string

	TaskCPU       float64
	TaskMemoryMiB float64
	DesiredCount  float64
	ContainerPort float64

	VolumeName string
	MountPath  string

	JobQueueName string
	JobTableName string

	ImageryBucketName string

	HealthCheckPath string

	LogRetention awslogs.RetentionDays

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
		c.ClusterName = "tile-server-cluster"
	}
	if c.ServiceName == "" {
		c.ServiceName = "tile-server"
	}
	if c.ContainerName == "" {
		c.ContainerName = "tile-server"
	}
	if c.TaskCPU == 0 {
		c.TaskCPU = 4096
	}
	if c.TaskMemoryMiB == 0 {
		c.TaskMemoryMiB = 8192
	}
	if c.DesiredCount == 0 {
		c.DesiredCount = 1
	}
	if c.ContainerPort == 0 {
		c.ContainerPort = 8080
	}
	if c.VolumeName == "" {
		c.VolumeName = "tile-cache"
	}
	if c.MountPath == "" {
		c.MountPath = "/var/cache/tiles"
	}
	if c.JobQueueName == "" {
		c.JobQueueName = "tile-jobs"
	}
	if c.JobTableName == "" {
		c.JobTableName = "tile-jobs"
	}
	if c.ImageryBucketName == "" {
		c.ImageryBucketName = "imagery"
	}
	if c.HealthCheckPath == "" {
		c.HealthCheckPath = "/ping"
	}
	if c.LogRetention == "" {
		c.LogRetention = awslogs.RetentionDays_ONE_MONTH
	}
}
