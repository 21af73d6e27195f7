package geotheory

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// VpcProps configures the shared dataplane VPC.
type VpcProps struct {
	Account Account

	// VpcID imports an existing VPC instead of creating one.
	VpcID string

	// MaxAzs defaults to 2.
	MaxAzs float64
}

// Vpc wraps the VPC every dataplane deploys into.
type Vpc struct {
	Vpc awsec2.IVpc

	// Subnets are the private subnets services are placed in.
	Subnets *awsec2.SubnetSelection
}

// NewVpc creates a VPC (or imports one by ID) with the subnet layout and
// gateway endpoints the dataplanes expect.
func NewVpc(scope constructs.Construct, id string, props *VpcProps) *Vpc {
	if props.VpcID != "" {
		imported := awsec2.Vpc_FromLookup(scope, jsii.String(id), &awsec2.VpcLookupOptions{
			VpcId: jsii.String(props.VpcID),
		})
		return &Vpc{
			Vpc:     imported,
			Subnets: &awsec2.SubnetSelection{SubnetType: awsec2.SubnetType_PRIVATE_WITH_EGRESS},
		}
	}

	maxAzs := props.MaxAzs
	if maxAzs == 0 {
		maxAzs = 2
	}

	vpc := awsec2.NewVpc(scope, jsii.String(id), &awsec2.VpcProps{
		VpcName:     jsii.String(props.Account.ResourceName("vpc")),
		MaxAzs:      jsii.Number(maxAzs),
		NatGateways: jsii.Number(1),
		IpAddresses: awsec2.IpAddresses_Cidr(jsii.String("10.0.0.0/16")),
		SubnetConfiguration: &[]*awsec2.SubnetConfiguration{
			{
				Name:       jsii.String("public"),
				SubnetType: awsec2.SubnetType_PUBLIC,
				CidrMask:   jsii.Number(24),
			},
			{
				Name:       jsii.String("private"),
				SubnetType: awsec2.SubnetType_PRIVATE_WITH_EGRESS,
				CidrMask:   jsii.Number(20),
			},
		},
	})

	// S3 and DynamoDB traffic stays on the partition network. Isolated
	// partitions have no public route to either service.
	vpc.AddGatewayEndpoint(jsii.String("S3Endpoint"), &awsec2.GatewayVpcEndpointOptions{
		Service: awsec2.GatewayVpcEndpointAwsService_S3(),
	})
	vpc.AddGatewayEndpoint(jsii.String("DynamoEndpoint"), &awsec2.GatewayVpcEndpointOptions{
		Service: awsec2.GatewayVpcEndpointAwsService_DYNAMODB(),
	})

	if props.Account.ProdLike {
		vpc.AddFlowLog(jsii.String("FlowLog"), &awsec2.FlowLogOptions{
			TrafficType: awsec2.FlowLogTrafficType_REJECT,
		})
	}

	return &Vpc{
		Vpc:     vpc,
		Subnets: &awsec2.SubnetSelection{SubnetType: awsec2.SubnetType_PRIVATE_WITH_EGRESS},
	}
}
