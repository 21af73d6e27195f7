package geotheory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegionProfileFor(t *testing.T) {
	tests := []struct {
		region    string
		partition string
		isolated  bool
	}{
		{"us-west-2", "aws", false},
		{"eu-central-1", "aws", false},
		{"us-gov-west-1", "aws-us-gov", false},
		{"cn-north-1", "aws-cn", false},
		{"us-iso-east-1", "aws-iso", true},
		{"us-isob-east-1", "aws-iso-b", true},
	}
	for _, tt := range tests {
		profile := RegionProfileFor(tt.region)
		assert.Equal(t, tt.partition, profile.Partition, tt.region)
		assert.Equal(t, tt.isolated, profile.Isolated, tt.region)
	}
}

func TestFirelensImageURI(t *testing.T) {
	commercial := RegionProfileFor("us-west-2").FirelensImageURI(devAccount())
	assert.Equal(t, "public.ecr.aws/aws-observability/aws-for-fluent-bit:stable", commercial)

	account := isolatedAccount()
	iso := RegionProfileFor(account.Region).FirelensImageURI(account)
	assert.Equal(t, "123456789012.dkr.ecr.us-iso-east-1.c2s.ic.gov/aws-for-fluent-bit:stable", iso)
}
