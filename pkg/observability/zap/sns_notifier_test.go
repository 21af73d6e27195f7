package zap

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/geotheory/pkg/observability"
)

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{}, nil
}

func TestSNSNotifierPublishesEntry(t *testing.T) {
	client := &fakeSNS{}
	notifier := NewSNSNotifier(client, "arn:aws:sns:us-west-2:123456789012:alarms", SNSNotifierOptions{Subject: "geotheory error"})

	err := notifier.Notify(context.Background(), observability.LogEntry{
		Level:   "error",
		Message: "tile job stuck",
		JobID:   "job-42",
	})
	require.NoError(t, err)
	require.Len(t, client.inputs, 1)

	input := client.inputs[0]
	assert.Equal(t, "arn:aws:sns:us-west-2:123456789012:alarms", *input.TopicArn)
	assert.Equal(t, "geotheory error", *input.Subject)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(*input.Message), &payload))
	entry, ok := payload["entry"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "tile job stuck", entry["message"])
	assert.Equal(t, "job-42", entry["job_id"])
}

func TestSNSNotifierRejectsEmptyTopic(t *testing.T) {
	notifier := NewSNSNotifier(&fakeSNS{}, "  ", SNSNotifierOptions{})
	assert.Error(t, notifier.Notify(context.Background(), observability.LogEntry{}))
}
