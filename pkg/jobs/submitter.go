package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/oklog/ulid/v2"

	"github.com/theory-cloud/geotheory/pkg/observability"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Submitter sends image processing requests to the image request queue.
type Submitter struct {
	client   sqsAPI
	queueURL string
	log      observability.StructuredLogger
}

// SubmitterOption customizes a Submitter.
type SubmitterOption func(*Submitter)

// WithSubmitterLogger routes submission logs to the given logger.
func WithSubmitterLogger(log observability.StructuredLogger) SubmitterOption {
	return func(s *Submitter) {
		s.log = log
	}
}

// NewSubmitter builds a Submitter for the given queue URL.
func NewSubmitter(client sqsAPI, queueURL string, options ...SubmitterOption) (*Submitter, error) {
	if client == nil {
		return nil, errors.New("jobs: sqs client is required")
	}
	if queueURL == "" {
		return nil, errors.New("jobs: queue url is required")
	}

	s := &Submitter{
		client:   client,
		queueURL: queueURL,
		log:      observability.NewNoOpLogger(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Submit assigns the request a ULID job ID when it has none, then enqueues
// it. The returned request carries the assigned ID.
func (s *Submitter) Submit(ctx context.Context, request ImageRequest) (*ImageRequest, error) {
	if request.ImageURI == "" {
		return nil, errors.New("jobs: image uri is required")
	}
	if request.ModelName == "" {
		return nil, errors.New("jobs: model name is required")
	}
	if request.JobID == "" {
		request.JobID = ulid.Make().String()
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("jobs: marshal request: %w", err)
	}

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return nil, fmt.Errorf("jobs: send request: %w", err)
	}

	s.log.WithJobID(request.JobID).Info("image request submitted", map[string]any{
		"image_uri": request.ImageURI,
		"model":     request.ModelName,
	})
	return &request, nil
}
