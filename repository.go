package geotheory

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecr"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// RepositoryProps configures a service container repository.
type RepositoryProps struct {
	Account Account

	RepositoryName string
}

// Repository wraps an ECR repository.
type Repository struct {
	Repository awsecr.Repository
}

// NewRepository creates the repository with scan-on-push. Non prod-like
// accounts empty the repository so stack deletion succeeds.
func NewRepository(scope constructs.Construct, id string, props *RepositoryProps) *Repository {
	return &Repository{
		Repository: awsecr.NewRepository(scope, jsii.String(id), &awsecr.RepositoryProps{
			RepositoryName:     jsii.String(props.Account.ResourceName(props.RepositoryName)),
			ImageScanOnPush:    jsii.Bool(true),
			RemovalPolicy:      RemovalPolicyFor(props.Account),
			EmptyOnDelete:      jsii.Bool(!props.Account.ProdLike),
			ImageTagMutability: awsecr.TagMutability_MUTABLE,
		}),
	}
}
