package geotheory

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// BucketProps configures an imagery or results bucket.
type BucketProps struct {
	Account Account

	BucketName string

	// AccessLogs provisions a sibling server-access-log bucket.
	AccessLogs bool
}

// Bucket wraps an S3 bucket with the account's durability settings applied.
type Bucket struct {
	Bucket awss3.Bucket

	// AccessLogsBucket is nil unless AccessLogs was requested.
	AccessLogsBucket awss3.Bucket
}

// NewBucket creates an encrypted, private bucket. Prod-like accounts get
// versioning and retain the bucket on stack deletion; other accounts empty
// and destroy it.
func NewBucket(scope constructs.Construct, id string, props *BucketProps) *Bucket {
	removal := RemovalPolicyFor(props.Account)

	var accessLogs awss3.Bucket
	if props.AccessLogs {
		accessLogs = awss3.NewBucket(scope, jsii.String(id+"AccessLogs"), &awss3.BucketProps{
			BucketName:        jsii.String(props.Account.ResourceName(props.BucketName + "-access-logs")),
			Encryption:        awss3.BucketEncryption_S3_MANAGED,
			BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
			EnforceSSL:        jsii.Bool(true),
			RemovalPolicy:     removal,
			AutoDeleteObjects: jsii.Bool(!props.Account.ProdLike),
		})
	}

	bucketProps := &awss3.BucketProps{
		BucketName:        jsii.String(props.Account.ResourceName(props.BucketName)),
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		EnforceSSL:        jsii.Bool(true),
		Versioned:         jsii.Bool(props.Account.ProdLike),
		RemovalPolicy:     removal,
		AutoDeleteObjects: jsii.Bool(!props.Account.ProdLike),
	}
	if accessLogs != nil {
		bucketProps.ServerAccessLogsBucket = accessLogs
	}

	return &Bucket{
		Bucket:           awss3.NewBucket(scope, jsii.String(id), bucketProps),
		AccessLogsBucket: accessLogs,
	}
}
