// Package testkit provides deterministic fixtures for exercising the
// dataplane's operational companions in tests: a local OIDC signing
// authority and authorizer event builders.
package testkit

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// OIDCAuthority is an in-process OIDC issuer. It serves discovery metadata
// and a JWKS for a generated RSA key, and signs tokens with that key.
type OIDCAuthority struct {
	server *httptest.Server
	key    *rsa.PrivateKey
	kid    string
}

// NewOIDCAuthority generates a signing key and starts the metadata server.
// Callers own the returned authority and must Close it.
func NewOIDCAuthority() (*OIDCAuthority, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	a := &OIDCAuthority{key: key, kid: "testkit-key-1"}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":   a.server.URL,
			"jwks_uri": a.server.URL + "/keys",
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		pub := key.Public().(*rsa.PublicKey)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{{
				"kid": a.kid,
				"kty": "RSA",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   "AQAB",
			}},
		})
	})
	a.server = httptest.NewServer(mux)
	return a, nil
}

// URL is the issuer URL. Use it as both the token issuer and the
// authorizer's authority.
func (a *OIDCAuthority) URL() string {
	return a.server.URL
}

// Close shuts the metadata server down.
func (a *OIDCAuthority) Close() {
	a.server.Close()
}

// Token signs the claims with the authority's key.
func (a *OIDCAuthority) Token(claims jwt.RegisteredClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = a.kid
	return token.SignedString(a.key)
}

// UserToken signs a one-hour token for subject against audience, issued by
// this authority.
func (a *OIDCAuthority) UserToken(subject, audience string) (string, error) {
	now := time.Now()
	return a.Token(jwt.RegisteredClaims{
		Issuer:    a.server.URL,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(now),
	})
}
