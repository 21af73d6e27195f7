package authorizer

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/geotheory/pkg/observability"
)

const testKid = "test-key-1"

// testAuthority serves OIDC discovery metadata and a JWKS for one RSA key.
type testAuthority struct {
	server *httptest.Server
	key    *rsa.PrivateKey
}

func newTestAuthority(t *testing.T) *testAuthority {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	ta := &testAuthority{key: key}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":   ta.server.URL,
			"jwks_uri": ta.server.URL + "/keys",
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		pub := key.Public().(*rsa.PublicKey)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{{
				"kid": testKid,
				"kty": "RSA",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   "AQAB",
			}},
		})
	})
	ta.server = httptest.NewServer(mux)
	t.Cleanup(ta.server.Close)
	return ta
}

func (ta *testAuthority) token(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKid
	signed, err := token.SignedString(ta.key)
	require.NoError(t, err)
	return signed
}

func (ta *testAuthority) claims(audience string) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Issuer:    ta.server.URL,
		Subject:   "user-42",
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
}

func newAuthorizer(t *testing.T, ta *testAuthority) *Authorizer {
	t.Helper()
	a, err := New(Config{
		Authority: ta.server.URL,
		Audience:  "tile-server",
	}, WithLogger(observability.NewTestLogger()))
	require.NoError(t, err)
	return a
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Audience: "tile-server"})
	assert.Error(t, err)

	_, err = New(Config{Authority: "https://auth.example.com"})
	assert.Error(t, err)
}

func TestAuthorizeAllowsValidToken(t *testing.T) {
	ta := newTestAuthority(t)
	a := newAuthorizer(t, ta)

	token := ta.token(t, ta.claims("tile-server"))
	response, err := a.Authorize(context.Background(), Event{
		AuthorizationToken: "Bearer " + token,
		MethodArn:          "arn:aws:execute-api:us-west-2:123456789012:api/dev/GET/tiles",
	})
	require.NoError(t, err)

	assert.Equal(t, "user-42", response.PrincipalID)
	require.Len(t, response.PolicyDocument.Statement, 1)
	assert.Equal(t, "Allow", response.PolicyDocument.Statement[0].Effect)
	assert.Equal(t, []string{"arn:aws:execute-api:us-west-2:123456789012:api/dev/GET/tiles"},
		response.PolicyDocument.Statement[0].Resource)
	assert.Equal(t, "user-42", response.Context["username"])
}

func TestAuthorizeAcceptsTokenWithoutBearerPrefix(t *testing.T) {
	ta := newTestAuthority(t)
	a := newAuthorizer(t, ta)

	response, err := a.Authorize(context.Background(), Event{
		AuthorizationToken: ta.token(t, ta.claims("tile-server")),
		MethodArn:          "arn:aws:execute-api:us-west-2:123456789012:api/*",
	})
	require.NoError(t, err)
	assert.Equal(t, "Allow", response.PolicyDocument.Statement[0].Effect)
}

func TestAuthorizeReadsRequestHeaders(t *testing.T) {
	ta := newTestAuthority(t)
	a := newAuthorizer(t, ta)

	// Header lookup is case-insensitive for request-type invocations.
	response, err := a.Authorize(context.Background(), Event{
		Type:      "REQUEST",
		MethodArn: "arn:aws:execute-api:us-west-2:123456789012:api/*",
		Headers: map[string]string{
			"AUTHORIZATION": "Bearer " + ta.token(t, ta.claims("tile-server")),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Allow", response.PolicyDocument.Statement[0].Effect)
}

func TestAuthorizeDeniesExpiredToken(t *testing.T) {
	ta := newTestAuthority(t)
	a := newAuthorizer(t, ta)

	claims := ta.claims("tile-server")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	response, err := a.Authorize(context.Background(), Event{
		AuthorizationToken: "Bearer " + ta.token(t, claims),
		MethodArn:          "arn:aws:execute-api:us-west-2:123456789012:api/*",
	})
	require.NoError(t, err)
	assert.Equal(t, "Deny", response.PolicyDocument.Statement[0].Effect)
	// Deny policies carry the placeholder principal, not a subject claim.
	assert.Equal(t, "username", response.PrincipalID)
}

func TestAuthorizeDeniesWrongAudience(t *testing.T) {
	ta := newTestAuthority(t)
	a := newAuthorizer(t, ta)

	response, err := a.Authorize(context.Background(), Event{
		AuthorizationToken: "Bearer " + ta.token(t, ta.claims("some-other-api")),
		MethodArn:          "arn:aws:execute-api:us-west-2:123456789012:api/*",
	})
	require.NoError(t, err)
	assert.Equal(t, "Deny", response.PolicyDocument.Statement[0].Effect)
}

func TestAuthorizeDeniesWrongIssuer(t *testing.T) {
	ta := newTestAuthority(t)
	other := newTestAuthority(t)
	a := newAuthorizer(t, ta)

	// Signed by our key so the signature check passes but the issuer does not.
	claims := other.claims("tile-server")
	response, err := a.Authorize(context.Background(), Event{
		AuthorizationToken: "Bearer " + ta.token(t, claims),
		MethodArn:          "arn:aws:execute-api:us-west-2:123456789012:api/*",
	})
	require.NoError(t, err)
	assert.Equal(t, "Deny", response.PolicyDocument.Statement[0].Effect)
}

func TestAuthorizeErrsOnMissingHeader(t *testing.T) {
	ta := newTestAuthority(t)
	a := newAuthorizer(t, ta)

	_, err := a.Authorize(context.Background(), Event{
		MethodArn: "arn:aws:execute-api:us-west-2:123456789012:api/*",
	})
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestAuthorizeErrsOnMalformedHeader(t *testing.T) {
	ta := newTestAuthority(t)
	a := newAuthorizer(t, ta)

	for _, header := range []string{"Bearer", "Bearer not-a-jwt", "Basic dXNlcjpwYXNz"} {
		_, err := a.Authorize(context.Background(), Event{
			AuthorizationToken: header,
			MethodArn:          "arn:aws:execute-api:us-west-2:123456789012:api/*",
		})
		assert.ErrorIs(t, err, ErrMalformedHeader, "header %q", header)
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		want    string
		wantErr error
	}{
		{
			name:  "bearer prefix stripped",
			event: Event{AuthorizationToken: "Bearer aaa.bbb.ccc"},
			want:  "aaa.bbb.ccc",
		},
		{
			name:  "bare token",
			event: Event{AuthorizationToken: "aaa.bbb.ccc"},
			want:  "aaa.bbb.ccc",
		},
		{
			name:    "missing",
			event:   Event{},
			wantErr: ErrMissingToken,
		},
		{
			name:    "malformed",
			event:   Event{AuthorizationToken: "Bearer two.parts"},
			wantErr: ErrMalformedHeader,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractToken(tt.event)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyCacheReusesKeysWithinTTL(t *testing.T) {
	ta := newTestAuthority(t)

	fetches := 0
	counting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		ta.server.Config.Handler.ServeHTTP(w, r)
	}))
	t.Cleanup(counting.Close)

	cache, err := newKeyCache(Config{
		Authority:    counting.URL,
		HTTPTimeout:  5 * time.Second,
		JWKSCacheTTL: time.Hour,
	})
	require.NoError(t, err)

	_, err = cache.signingKey(context.Background(), testKid)
	require.NoError(t, err)
	_, err = cache.signingKey(context.Background(), testKid)
	require.NoError(t, err)
	// Discovery plus JWKS for the first lookup only.
	assert.Equal(t, 2, fetches)
}

func TestKeyCacheRejectsUnknownKid(t *testing.T) {
	ta := newTestAuthority(t)

	cache, err := newKeyCache(Config{
		Authority:    ta.server.URL,
		HTTPTimeout:  5 * time.Second,
		JWKSCacheTTL: time.Hour,
	})
	require.NoError(t, err)

	_, err = cache.signingKey(context.Background(), "unknown")
	assert.ErrorContains(t, err, "no signing key")
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("AUTHORITY", "https://auth.example.com")
	t.Setenv("AUDIENCE", "tile-server")
	t.Setenv("SSL_CERT_FILE", "/etc/pki/custom.pem")

	cfg := ConfigFromEnv()
	assert.Equal(t, "https://auth.example.com", cfg.Authority)
	assert.Equal(t, "tile-server", cfg.Audience)
	assert.Equal(t, "/etc/pki/custom.pem", cfg.CABundlePath)
}

func TestPolicyShape(t *testing.T) {
	p := policy("Deny", "arn:aws:execute-api:*", "user")
	assert.Equal(t, "user", p.PrincipalID)
	assert.Equal(t, "2012-10-17", p.PolicyDocument.Version)
	require.Len(t, p.PolicyDocument.Statement, 1)
	assert.Equal(t, []string{"execute-api:Invoke"}, p.PolicyDocument.Statement[0].Action)
}
