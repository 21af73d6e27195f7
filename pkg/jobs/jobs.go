// Package jobs is the operational client for the model runner dataplane.
// It submits image processing requests to the image request queue and reads
// job state back from the job status table.
package jobs

import "errors"

// ErrJobNotFound means the job status table has no record for the job ID.
var ErrJobNotFound = errors.New("jobs: job not found")

// OutputLocation is where the model runner writes results for a job.
type OutputLocation struct {
	Type   string `json:"type"`
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
}

// ImageRequest is the queue message contract the model runner consumes.
type ImageRequest struct {
	JobID     string           `json:"jobId"`
	JobName   string           `json:"jobName,omitempty"`
	ImageURI  string           `json:"imageUri"`
	ModelName string           `json:"modelName"`
	Outputs   []OutputLocation `json:"outputs,omitempty"`
}

// JobStatus is a job's current state as recorded by the model runner.
type JobStatus struct {
	JobID     string
	Status    string
	ImageURI  string
	ModelName string
	Message   string
	StartedAt int64
	EndedAt   int64
}
