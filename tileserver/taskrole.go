package tileserver

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/geotheory"
)

// TaskRoleProps configures the tile-server ECS task role.
type TaskRoleProps struct {
	Account geotheory.Account

	RoleName string
}

// NewTaskRole creates the task role. Queue, table, and file-system access is
// granted by the dataplane against the concrete resources.
func NewTaskRole(scope constructs.Construct, id string, props *TaskRoleProps) awsiam.Role {
	roleName := props.RoleName
	if roleName == "" {
		roleName = "tile-server-task"
	}

	role := awsiam.NewRole(scope, jsii.String(id), &awsiam.RoleProps{
		RoleName:    jsii.String(props.Account.ResourceName(roleName)),
		AssumedBy:   awsiam.NewServicePrincipal(jsii.String("ecs-tasks.amazonaws.com"), nil),
		Description: jsii.String("Task role for the tile-server dataplane service"),
	})

	role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings("cloudwatch:PutMetricData"),
		Resources: jsii.Strings("*"),
	}))

	return role
}
