package jobs

import (
	"context"
	"os"

	tablecore "github.com/theory-cloud/tabletheory/pkg/core"
	tableerrors "github.com/theory-cloud/tabletheory/pkg/errors"
)

// statusRecord is the DynamoDB representation of a job status row.
type statusRecord struct {
	JobID     string `theorydb:"pk" json:"jobId"`
	Status    string `json:"status"`
	ImageURI  string `json:"imageUri"`
	ModelName string `json:"modelName"`
	Message   string `json:"message,omitempty"`
	StartedAt int64  `json:"startedAt,omitempty"`
	EndedAt   int64  `json:"endedAt,omitempty"`
}

func (statusRecord) TableName() string {
	if name := os.Getenv("JOB_STATUS_TABLE"); name != "" {
		return name
	}
	return "geotheory-job-status"
}

// StatusStore reads job state from the job status table via TableTheory.
type StatusStore struct {
	db tablecore.DB
}

// NewStatusStore builds a StatusStore on the given TableTheory handle.
func NewStatusStore(db tablecore.DB) *StatusStore {
	return &StatusStore{db: db}
}

// Get returns the status record for the job ID. Returns ErrJobNotFound when
// no record exists.
func (s *StatusStore) Get(ctx context.Context, jobID string) (*JobStatus, error) {
	var record statusRecord
	err := s.db.Model(&statusRecord{}).
		WithContext(ctx).
		Where("JobID", "=", jobID).
		First(&record)
	if err != nil {
		if tableerrors.IsNotFound(err) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	return &JobStatus{
		JobID:     record.JobID,
		Status:    record.Status,
		ImageURI:  record.ImageURI,
		ModelName: record.ModelName,
		Message:   record.Message,
		StartedAt: record.StartedAt,
		EndedAt:   record.EndedAt,
	}, nil
}
