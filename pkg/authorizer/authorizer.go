// Package authorizer validates OIDC bearer tokens for the REST API front
// door and emits API Gateway IAM policies.
package authorizer

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v4"

	"github.com/theory-cloud/geotheory/pkg/observability"
)

var (
	// ErrMissingToken means the request carried no authorization header at all.
	ErrMissingToken = errors.New("authorizer: missing authorization token")

	// ErrMalformedHeader means the header was present but not a bearer JWT.
	ErrMalformedHeader = errors.New("authorizer: invalid authorization header format")
)

// bearerPattern accepts a compact JWS with or without the Bearer prefix.
var bearerPattern = regexp.MustCompile(`^(?:Bearer\s)?([A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+)`)

// Config drives token validation.
type Config struct {
	// Authority is the OIDC issuer. Discovery metadata is fetched from
	// <authority>/.well-known/openid-configuration.
	Authority string

	// Audience is the expected aud claim.
	Audience string

	// CABundlePath points at a PEM bundle for private authorities.
	CABundlePath string

	// HTTPTimeout bounds discovery and JWKS fetches. Defaults to 10s.
	HTTPTimeout time.Duration

	// JWKSCacheTTL bounds how long fetched signing keys are reused.
	// Defaults to 6 minutes.
	JWKSCacheTTL time.Duration
}

// ConfigFromEnv reads the Lambda environment contract.
func ConfigFromEnv() Config {
	return Config{
		Authority:    os.Getenv("AUTHORITY"),
		Audience:     os.Getenv("AUDIENCE"),
		CABundlePath: os.Getenv("SSL_CERT_FILE"),
	}
}

// Event is the authorizer invocation payload. Token-type authorizers send
// authorizationToken; request-type authorizers send the raw headers. Both
// shapes are accepted.
type Event struct {
	Type               string            `json:"type"`
	AuthorizationToken string            `json:"authorizationToken"`
	MethodArn          string            `json:"methodArn"`
	Headers            map[string]string `json:"headers"`
}

// Authorizer validates tokens against one OIDC authority.
type Authorizer struct {
	cfg  Config
	keys *keyCache
	log  observability.StructuredLogger
}

// Option customizes an Authorizer.
type Option func(*Authorizer)

// WithLogger routes authorizer decisions to the given logger.
func WithLogger(log observability.StructuredLogger) Option {
	return func(a *Authorizer) {
		a.log = log
	}
}

// New builds an Authorizer. The authority and audience are required.
func New(cfg Config, options ...Option) (*Authorizer, error) {
	if cfg.Authority == "" {
		return nil, errors.New("authorizer: authority is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("authorizer: audience is required")
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.JWKSCacheTTL == 0 {
		cfg.JWKSCacheTTL = 6 * time.Minute
	}

	keys, err := newKeyCache(cfg)
	if err != nil {
		return nil, err
	}

	a := &Authorizer{
		cfg:  cfg,
		keys: keys,
		log:  observability.NewNoOpLogger(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Authorize validates the request token and returns an Allow or Deny policy
// for the method ARN. Invalid tokens deny rather than error; a missing or
// malformed header is an error, matching token-authorizer semantics where
// API Gateway turns it into a 401.
func (a *Authorizer) Authorize(ctx context.Context, event Event) (events.APIGatewayCustomAuthorizerResponse, error) {
	token, err := extractToken(event)
	if err != nil {
		a.log.Warn("authorization header rejected", map[string]any{"reason": err.Error()})
		return events.APIGatewayCustomAuthorizerResponse{}, err
	}

	claims, err := a.validate(ctx, token)
	if err != nil {
		a.log.Info("token rejected", map[string]any{"reason": err.Error()})
		return policy("Deny", event.MethodArn, "username"), nil
	}

	a.log.Info("token accepted", map[string]any{"sub": claims.Subject})
	response := policy("Allow", event.MethodArn, claims.Subject)
	response.Context = map[string]interface{}{"username": claims.Subject}
	return response, nil
}

func (a *Authorizer) validate(ctx context.Context, token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		return a.keys.signingKey(ctx, kid)
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("authorizer: token is not valid")
	}
	if !claims.VerifyIssuer(a.cfg.Authority, true) {
		return nil, errors.New("authorizer: issuer mismatch")
	}
	if !claims.VerifyAudience(a.cfg.Audience, true) {
		return nil, errors.New("authorizer: audience mismatch")
	}
	return claims, nil
}

func extractToken(event Event) (string, error) {
	header := event.AuthorizationToken
	if header == "" {
		for k, v := range event.Headers {
			if strings.EqualFold(k, "authorization") {
				header = v
				break
			}
		}
	}
	if header == "" {
		return "", ErrMissingToken
	}

	match := bearerPattern.FindStringSubmatch(header)
	if match == nil {
		return "", ErrMalformedHeader
	}
	return match[1], nil
}

func policy(effect, resource, principal string) events.APIGatewayCustomAuthorizerResponse {
	return events.APIGatewayCustomAuthorizerResponse{
		PrincipalID: principal,
		PolicyDocument: events.APIGatewayCustomAuthorizerPolicy{
			Version: "2012-10-17",
			Statement: []events.IAMPolicyStatement{
				{
					Action:   []string{"execute-api:Invoke"},
					Effect:   effect,
					Resource: []string{resource},
				},
			},
		},
	}
}
