package modelrunner

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/geotheory"
)

// TaskRoleProps configures the model-runner ECS task role.
type TaskRoleProps struct {
	Account geotheory.Account

	RoleName string
}

// NewTaskRole creates the task role. Resource-scoped permissions (queues,
// tables, topics, buckets) are granted by the dataplane via CDK grants;
// only the permissions without a construct handle live here.
func NewTaskRole(scope constructs.Construct, id string, props *TaskRoleProps) awsiam.Role {
	roleName := props.RoleName
	if roleName == "" {
		roleName = "model-runner-task"
	}

	role := awsiam.NewRole(scope, jsii.String(id), &awsiam.RoleProps{
		RoleName:    jsii.String(props.Account.ResourceName(roleName)),
		AssumedBy:   awsiam.NewServicePrincipal(jsii.String("ecs-tasks.amazonaws.com"), nil),
		Description: jsii.String("Task role for the model-runner dataplane service"),
	})

	// Model invocation across every endpoint the runner is configured with.
	role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions: jsii.Strings(
			"sagemaker:InvokeEndpoint",
			"sagemaker:DescribeEndpoint",
		),
		Resources: jsii.Strings("*"),
	}))

	// Worker metrics; PutMetricData cannot be resource-scoped.
	role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings("cloudwatch:PutMetricData"),
		Resources: jsii.Strings("*"),
	}))

	return role
}
