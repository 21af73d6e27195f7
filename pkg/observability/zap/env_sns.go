package zap

import (
	"context"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/theory-cloud/geotheory/pkg/observability"
)

const alarmTopicEnv = "ALARM_TOPIC_ARN"

// NotifierFromEnv builds an SNS error notifier from ALARM_TOPIC_ARN.
//
// Returns nil when the variable is unset so callers can pass the result
// straight to WithErrorNotifier.
func NotifierFromEnv(ctx context.Context) (observability.ErrorNotifier, error) {
	topicARN := strings.TrimSpace(os.Getenv(alarmTopicEnv))
	if topicARN == "" {
		return nil, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	return NewSNSNotifier(sns.NewFromConfig(cfg), topicARN, SNSNotifierOptions{
		Subject: "geotheory error",
	}), nil
}
