package geotheory

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2/awsecr"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// ContainerImageProps selects where a service container comes from.
//
// Exactly one of Repository, RepositoryName, or AssetDirectory must be set.
type ContainerImageProps struct {
	Account Account

	// Repository pulls <tag> from an existing repository construct.
	Repository awsecr.IRepository

	// RepositoryName imports a repository by name and pulls <tag> from it.
	RepositoryName string

	// AssetDirectory builds a local Docker context at synth time. Not
	// available in isolated partitions, which have no asset bootstrap.
	AssetDirectory string

	// Tag defaults to "latest".
	Tag string
}

// ContainerImage resolves an ECS container image for a dataplane task.
type ContainerImage struct {
	Image awsecs.ContainerImage

	// Repository is set when the image came from ECR.
	Repository awsecr.IRepository
}

// NewContainerImage resolves the image source. Invalid combinations panic at
// synth time, matching construct-validation behavior.
func NewContainerImage(scope constructs.Construct, id string, props *ContainerImageProps) *ContainerImage {
	tag := props.Tag
	if tag == "" {
		tag = "latest"
	}

	switch {
	case props.Repository != nil:
		return &ContainerImage{
			Image:      awsecs.ContainerImage_FromEcrRepository(props.Repository, jsii.String(tag)),
			Repository: props.Repository,
		}
	case props.RepositoryName != "":
		repo := awsecr.Repository_FromRepositoryName(scope, jsii.String(id), jsii.String(props.RepositoryName))
		return &ContainerImage{
			Image:      awsecs.ContainerImage_FromEcrRepository(repo, jsii.String(tag)),
			Repository: repo,
		}
	case props.AssetDirectory != "":
		if props.Account.Isolated {
			panic(fmt.Sprintf("geotheory: %s: asset images cannot be built in isolated region %s; push to an in-partition repository instead", id, props.Account.Region))
		}
		return &ContainerImage{
			Image: awsecs.ContainerImage_FromAsset(jsii.String(props.AssetDirectory), nil),
		}
	default:
		panic(fmt.Sprintf("geotheory: %s: one of Repository, RepositoryName, or AssetDirectory is required", id))
	}
}
