package testkit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/geotheory/pkg/authorizer"
	"github.com/theory-cloud/geotheory/testkit"
)

func TestOIDCAuthorityDrivesAuthorizer(t *testing.T) {
	authority, err := testkit.NewOIDCAuthority()
	require.NoError(t, err)
	defer authority.Close()

	auth, err := authorizer.New(authorizer.Config{
		Authority: authority.URL(),
		Audience:  "tile-server",
	})
	require.NoError(t, err)

	token, err := authority.UserToken("user-7", "tile-server")
	require.NoError(t, err)

	response, err := auth.Authorize(context.Background(), testkit.TokenAuthorizerEvent(token, testkit.AuthorizerEventOptions{}))
	require.NoError(t, err)
	assert.Equal(t, "Allow", response.PolicyDocument.Statement[0].Effect)
	assert.Equal(t, "user-7", response.PrincipalID)

	response, err = auth.Authorize(context.Background(), testkit.RequestAuthorizerEvent(token, testkit.AuthorizerEventOptions{
		MethodArn: "arn:aws:execute-api:us-west-2:123456789012:api/live/GET/tiles/1/2/3",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Allow", response.PolicyDocument.Statement[0].Effect)
	assert.Equal(t, []string{"arn:aws:execute-api:us-west-2:123456789012:api/live/GET/tiles/1/2/3"},
		response.PolicyDocument.Statement[0].Resource)
}

func TestOIDCAuthorityRejectsForeignAudience(t *testing.T) {
	authority, err := testkit.NewOIDCAuthority()
	require.NoError(t, err)
	defer authority.Close()

	auth, err := authorizer.New(authorizer.Config{
		Authority: authority.URL(),
		Audience:  "tile-server",
	})
	require.NoError(t, err)

	token, err := authority.UserToken("user-7", "another-api")
	require.NoError(t, err)

	response, err := auth.Authorize(context.Background(), testkit.TokenAuthorizerEvent(token, testkit.AuthorizerEventOptions{}))
	require.NoError(t, err)
	assert.Equal(t, "Deny", response.PolicyDocument.Statement[0].Effect)
}
