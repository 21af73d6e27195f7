package geotheory

import (
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func devAccount() Account {
	return Account{
		App:    "geotheory",
		ID:     "123456789012",
		Region: "us-west-2",
		Stage:  "dev",
	}
}

func prodAccount() Account {
	account := devAccount()
	account.Stage = "prod"
	account.ProdLike = true
	account.EnableAutoscaling = true
	account.EnableMonitoring = true
	return account
}

func isolatedAccount() Account {
	account := prodAccount()
	account.Region = "us-iso-east-1"
	account.Isolated = true
	return account
}

func TestRemovalPolicyFor(t *testing.T) {
	assert.Equal(t, awscdk.RemovalPolicy_DESTROY, RemovalPolicyFor(devAccount()))
	assert.Equal(t, awscdk.RemovalPolicy_RETAIN, RemovalPolicyFor(prodAccount()))
}

func TestAccountValidate(t *testing.T) {
	require.NoError(t, devAccount().Validate())

	missing := devAccount()
	missing.ID = ""
	assert.Error(t, missing.Validate())

	noRegion := devAccount()
	noRegion.Region = "  "
	assert.Error(t, noRegion.Validate())

	// Isolated flag must agree with the region's partition.
	mismatched := devAccount()
	mismatched.Isolated = true
	assert.Error(t, mismatched.Validate())
	require.NoError(t, isolatedAccount().Validate())
}

func TestParseAccount(t *testing.T) {
	raw := []byte(`
app: geotheory
id: "123456789012"
region: us-gov-west-1
stage: prod
prodLike: true
enableAutoscaling: true
`)
	account, err := ParseAccount(raw)
	require.NoError(t, err)
	assert.Equal(t, "us-gov-west-1", account.Region)
	assert.True(t, account.ProdLike)
	assert.True(t, account.EnableAutoscaling)
	assert.False(t, account.EnableMonitoring)

	_, err = ParseAccount([]byte("app: geotheory"))
	assert.Error(t, err)

	_, err = ParseAccount([]byte("{not yaml"))
	assert.Error(t, err)
}

func TestParseAccountDefaultsStage(t *testing.T) {
	account, err := ParseAccount([]byte("app: geotheory\nid: \"123456789012\"\nregion: us-east-1\n"))
	require.NoError(t, err)
	assert.Equal(t, "dev", account.Stage)
}

func TestAccountNaming(t *testing.T) {
	account := prodAccount()
	assert.Equal(t, "geotheory-model-runner-live", account.StackName("model-runner"))
	assert.Equal(t, "geotheory-image-requests-live", account.ResourceName("image-requests"))
}
