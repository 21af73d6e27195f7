package geotheory

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awssns"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// TopicProps configures a status topic.
type TopicProps struct {
	Account Account

	TopicName string
}

// Topic wraps an SNS status topic.
type Topic struct {
	Topic awssns.Topic
}

// NewTopic creates the topic. Status topics are fan-out points for job and
// region progress events, so downstream consumers subscribe out of band.
func NewTopic(scope constructs.Construct, id string, props *TopicProps) *Topic {
	return &Topic{
		Topic: awssns.NewTopic(scope, jsii.String(id), &awssns.TopicProps{
			TopicName: jsii.String(props.Account.ResourceName(props.TopicName)),
		}),
	}
}
