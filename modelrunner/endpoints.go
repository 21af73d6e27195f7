package modelrunner

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssagemaker"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/geotheory"
)

// ModelEndpointProps configures a hosted model endpoint the runner invokes.
type ModelEndpointProps struct {
	Account geotheory.Account

	ModelName string

	// ContainerImageURI is the inference container in ECR.
	ContainerImageURI string

	// InstanceType defaults to ml.m5.xlarge.
	InstanceType string

	// InitialInstanceCount defaults to 1.
	InitialInstanceCount float64

	// ExecutionRole substitutes a pre-built role for the one
	// NewEndpointRole creates.
	ExecutionRole awsiam.IRole

	Environment map[string]string
}

// ModelEndpoint is the SageMaker model/endpoint-config/endpoint trio.
type ModelEndpoint struct {
	Model          awssagemaker.CfnModel
	EndpointConfig awssagemaker.CfnEndpointConfig
	Endpoint       awssagemaker.CfnEndpoint
	ExecutionRole  awsiam.IRole
}

// NewModelEndpoint hosts a model container behind a SageMaker endpoint.
func NewModelEndpoint(scope constructs.Construct, id string, props *ModelEndpointProps) *ModelEndpoint {
	scope = constructs.NewConstruct(scope, jsii.String(id))

	instanceType := props.InstanceType
	if instanceType == "" {
		instanceType = "ml.m5.xlarge"
	}
	instanceCount := props.InitialInstanceCount
	if instanceCount == 0 {
		instanceCount = 1
	}

	role := props.ExecutionRole
	if role == nil {
		role = NewEndpointRole(scope, "ExecutionRole", &EndpointRoleProps{
			Account:  props.Account,
			RoleName: props.ModelName + "-endpoint",
		})
	}

	var env *map[string]*string
	if len(props.Environment) > 0 {
		m := make(map[string]*string, len(props.Environment))
		for k, v := range props.Environment {
			m[k] = jsii.String(v)
		}
		env = &m
	}

	model := awssagemaker.NewCfnModel(scope, jsii.String("Model"), &awssagemaker.CfnModelProps{
		ModelName:        jsii.String(props.Account.ResourceName(props.ModelName)),
		ExecutionRoleArn: role.RoleArn(),
		PrimaryContainer: &awssagemaker.CfnModel_ContainerDefinitionProperty{
			Image:       jsii.String(props.ContainerImageURI),
			Environment: env,
		},
	})

	endpointConfig := awssagemaker.NewCfnEndpointConfig(scope, jsii.String("EndpointConfig"), &awssagemaker.CfnEndpointConfigProps{
		EndpointConfigName: jsii.String(props.Account.ResourceName(props.ModelName + "-config")),
		ProductionVariants: []interface{}{
			&awssagemaker.CfnEndpointConfig_ProductionVariantProperty{
				ModelName:            model.AttrModelName(),
				VariantName:          jsii.String("AllTraffic"),
				InstanceType:         jsii.String(instanceType),
				InitialInstanceCount: jsii.Number(instanceCount),
				InitialVariantWeight: jsii.Number(1),
			},
		},
	})

	endpoint := awssagemaker.NewCfnEndpoint(scope, jsii.String("Endpoint"), &awssagemaker.CfnEndpointProps{
		EndpointName:       jsii.String(props.Account.ResourceName(props.ModelName)),
		EndpointConfigName: endpointConfig.AttrEndpointConfigName(),
	})

	return &ModelEndpoint{
		Model:          model,
		EndpointConfig: endpointConfig,
		Endpoint:       endpoint,
		ExecutionRole:  role,
	}
}

// EndpointRoleProps configures the SageMaker execution role.
type EndpointRoleProps struct {
	Account geotheory.Account

	RoleName string

	// ModelArtifactBuckets are S3 bucket ARNs the endpoint may read model
	// weights from. Empty grants no S3 access.
	ModelArtifactBuckets []string
}

// NewEndpointRole creates the execution role a hosted model runs under.
func NewEndpointRole(scope constructs.Construct, id string, props *EndpointRoleProps) awsiam.Role {
	role := awsiam.NewRole(scope, jsii.String(id), &awsiam.RoleProps{
		RoleName:  jsii.String(props.Account.ResourceName(props.RoleName)),
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("sagemaker.amazonaws.com"), nil),
		ManagedPolicies: &[]awsiam.IManagedPolicy{
			awsiam.ManagedPolicy_FromAwsManagedPolicyName(jsii.String("AmazonEC2ContainerRegistryReadOnly")),
			awsiam.ManagedPolicy_FromAwsManagedPolicyName(jsii.String("CloudWatchLogsFullAccess")),
		},
	})

	if len(props.ModelArtifactBuckets) > 0 {
		resources := make([]string, 0, len(props.ModelArtifactBuckets)*2)
		for _, arn := range props.ModelArtifactBuckets {
			resources = append(resources, arn, arn+"/*")
		}
		role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Actions:   jsii.Strings("s3:GetObject", "s3:ListBucket"),
			Resources: jsii.Strings(resources...),
		}))
	}

	return role
}
