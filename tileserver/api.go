package tileserver

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigateway"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	elbv2 "github.com/aws/aws-cdk-go/awscdk/v2/awselasticloadbalancingv2"
	elbv2targets "github.com/aws/aws-cdk-go/awscdk/v2/awselasticloadbalancingv2targets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/geotheory"
	"github.com/theory-cloud/geotheory/pkg/naming"
)

// ApiProps configures the authorized REST front door for the tile server.
type ApiProps struct {
	Account geotheory.Account

	// Dataplane is the tile server the API proxies to.
	Dataplane *Dataplane

	// Authority is the OIDC issuer tokens are validated against.
	Authority string

	// Audience is the expected token audience.
	Audience string

	// AuthorizerCodePath is a directory containing the compiled authorizer
	// bootstrap binary (provided.al2023 runtime).
	AuthorizerCodePath string

	// AlarmTopicARN, when set, is handed to the authorizer so error-level
	// logs fan out to the operations alarm topic.
	AlarmTopicARN string
}

// Api is the REST API plus the token authorizer protecting it.
type Api struct {
	RestApi    awsapigateway.RestApi
	Authorizer awsapigateway.TokenAuthorizer
	Handler    awslambda.Function

	// LinkBalancer is the internal NLB the VPC link rides; REST API VPC
	// links only accept network load balancers, so the dataplane's ALB
	// sits behind it as a target.
	LinkBalancer elbv2.NetworkLoadBalancer
	VpcLink      awsapigateway.VpcLink
}

// NewApi fronts the dataplane's load balancer with an API Gateway REST API
// whose every method runs the OIDC token authorizer. Requests reach the
// internal load balancer through a VPC link.
func NewApi(scope constructs.Construct, id string, props *ApiProps) *Api {
	if props.Authority == "" || props.Audience == "" {
		panic(fmt.Sprintf("tileserver: %s: Authority and Audience are required for the authorized API", id))
	}

	account := props.Account
	scope = constructs.NewConstruct(scope, jsii.String(id))

	env := map[string]*string{
		"AUTHORITY": jsii.String(props.Authority),
		"AUDIENCE":  jsii.String(props.Audience),
	}
	if props.AlarmTopicARN != "" {
		env["ALARM_TOPIC_ARN"] = jsii.String(props.AlarmTopicARN)
	}

	handler := awslambda.NewFunction(scope, jsii.String("AuthorizerHandler"), &awslambda.FunctionProps{
		FunctionName: jsii.String(account.ResourceName("api-authorizer")),
		Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
		Architecture: awslambda.Architecture_ARM_64(),
		Handler:      jsii.String("bootstrap"),
		Code:         awslambda.Code_FromAsset(jsii.String(props.AuthorizerCodePath), nil),
		MemorySize:   jsii.Number(256),
		Timeout:      awscdk.Duration_Seconds(jsii.Number(30)),
		Environment:  &env,
	})

	authorizer := awsapigateway.NewTokenAuthorizer(scope, jsii.String("Authorizer"), &awsapigateway.TokenAuthorizerProps{
		Handler:         handler,
		ResultsCacheTtl: awscdk.Duration_Minutes(jsii.Number(5)),
	})

	api := awsapigateway.NewRestApi(scope, jsii.String("RestApi"), &awsapigateway.RestApiProps{
		RestApiName: jsii.String(account.ResourceName("tile-server-api")),
		EndpointTypes: &[]awsapigateway.EndpointType{
			awsapigateway.EndpointType_REGIONAL,
		},
		DeployOptions: &awsapigateway.StageOptions{
			StageName: jsii.String(naming.NormalizeStage(account.Stage)),
		},
	})

	nlb := elbv2.NewNetworkLoadBalancer(scope, jsii.String("LinkBalancer"), &elbv2.NetworkLoadBalancerProps{
		Vpc:            props.Dataplane.Vpc.Vpc,
		InternetFacing: jsii.Bool(false),
	})
	nlbListener := nlb.AddListener(jsii.String("Http"), &elbv2.BaseNetworkListenerProps{
		Port: jsii.Number(80),
	})
	nlbListener.AddTargets(jsii.String("Alb"), &elbv2.AddNetworkTargetsProps{
		Port: jsii.Number(80),
		Targets: &[]elbv2.INetworkLoadBalancerTarget{
			elbv2targets.NewAlbTarget(props.Dataplane.LoadBalancer, jsii.Number(80)),
		},
		HealthCheck: &elbv2.HealthCheck{
			Protocol: elbv2.Protocol_HTTP,
			Path:     jsii.String(props.Dataplane.Config.HealthCheckPath),
		},
	})
	// NLB nodes carry no security group; admit them by VPC CIDR.
	props.Dataplane.LoadBalancer.Connections().AllowFrom(
		awsec2.Peer_Ipv4(props.Dataplane.Vpc.Vpc.VpcCidrBlock()),
		awsec2.Port_Tcp(jsii.Number(80)),
		jsii.String("VPC link balancer"),
	)

	link := awsapigateway.NewVpcLink(scope, jsii.String("VpcLink"), &awsapigateway.VpcLinkProps{
		VpcLinkName: jsii.String(account.ResourceName("tile-server-link")),
		Targets:     &[]elbv2.INetworkLoadBalancer{nlb},
	})

	proxyURL := "http://" + *nlb.LoadBalancerDnsName() + "/{proxy}"
	api.Root().AddProxy(&awsapigateway.ProxyResourceOptions{
		AnyMethod: jsii.Bool(true),
		DefaultIntegration: awsapigateway.NewHttpIntegration(jsii.String(proxyURL), &awsapigateway.HttpIntegrationProps{
			Proxy:      jsii.Bool(true),
			HttpMethod: jsii.String("ANY"),
			Options: &awsapigateway.IntegrationOptions{
				ConnectionType: awsapigateway.ConnectionType_VPC_LINK,
				VpcLink:        link,
				RequestParameters: &map[string]*string{
					"integration.request.path.proxy": jsii.String("method.request.path.proxy"),
				},
			},
		}),
		DefaultMethodOptions: &awsapigateway.MethodOptions{
			Authorizer: authorizer,
			RequestParameters: &map[string]*bool{
				"method.request.path.proxy": jsii.Bool(true),
			},
		},
	})

	return &Api{
		RestApi:      api,
		Authorizer:   authorizer,
		Handler:      handler,
		LinkBalancer: nlb,
		VpcLink:      link,
	}
}
