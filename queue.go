package geotheory

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssqs"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// QueueProps configures a request queue and its dead-letter queue.
type QueueProps struct {
	Account Account

	QueueName string

	// MaxReceiveCount before a message is shunted to the DLQ. Defaults to 3.
	MaxReceiveCount float64

	// VisibilityTimeout defaults to 10 minutes; image processing holds
	// messages for the full model invocation.
	VisibilityTimeout awscdk.Duration

	// DeadLetterQueue reuses an existing DLQ instead of creating one.
	DeadLetterQueue awssqs.IQueue
}

// Queue wraps an SQS queue plus its DLQ.
type Queue struct {
	Queue           awssqs.Queue
	DeadLetterQueue awssqs.IQueue
}

// NewQueue creates the queue pair with SQS-managed encryption.
func NewQueue(scope constructs.Construct, id string, props *QueueProps) *Queue {
	maxReceive := props.MaxReceiveCount
	if maxReceive == 0 {
		maxReceive = 3
	}
	visibility := props.VisibilityTimeout
	if visibility == nil {
		visibility = awscdk.Duration_Minutes(jsii.Number(10))
	}

	dlq := props.DeadLetterQueue
	if dlq == nil {
		dlq = awssqs.NewQueue(scope, jsii.String(id+"DLQ"), &awssqs.QueueProps{
			QueueName:       jsii.String(props.Account.ResourceName(props.QueueName + "-dlq")),
			Encryption:      awssqs.QueueEncryption_SQS_MANAGED,
			RetentionPeriod: awscdk.Duration_Days(jsii.Number(14)),
		})
	}

	queue := awssqs.NewQueue(scope, jsii.String(id), &awssqs.QueueProps{
		QueueName:         jsii.String(props.Account.ResourceName(props.QueueName)),
		Encryption:        awssqs.QueueEncryption_SQS_MANAGED,
		VisibilityTimeout: visibility,
		RetentionPeriod:   awscdk.Duration_Days(jsii.Number(4)),
		DeadLetterQueue: &awssqs.DeadLetterQueue{
			Queue:           dlq,
			MaxReceiveCount: jsii.Number(maxReceive),
		},
	})

	return &Queue{Queue: queue, DeadLetterQueue: dlq}
}
