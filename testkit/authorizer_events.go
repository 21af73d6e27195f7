package testkit

import "github.com/theory-cloud/geotheory/pkg/authorizer"

const defaultMethodArn = "arn:aws:execute-api:us-west-2:123456789012:testapi/test/GET/tiles"

// AuthorizerEventOptions configures synthetic authorizer invocations.
type AuthorizerEventOptions struct {
	// MethodArn defaults to a fixed test ARN.
	MethodArn string

	// Headers are merged into request-type events.
	Headers map[string]string
}

// TokenAuthorizerEvent builds a TOKEN-type invocation carrying the bearer
// token the way API Gateway delivers it.
func TokenAuthorizerEvent(token string, opts AuthorizerEventOptions) authorizer.Event {
	return authorizer.Event{
		Type:               "TOKEN",
		AuthorizationToken: "Bearer " + token,
		MethodArn:          methodArn(opts),
	}
}

// RequestAuthorizerEvent builds a REQUEST-type invocation with the token in
// the Authorization header.
func RequestAuthorizerEvent(token string, opts AuthorizerEventOptions) authorizer.Event {
	headers := map[string]string{"Authorization": "Bearer " + token}
	for k, v := range opts.Headers {
		headers[k] = v
	}
	return authorizer.Event{
		Type:      "REQUEST",
		MethodArn: methodArn(opts),
		Headers:   headers,
	}
}

func methodArn(opts AuthorizerEventOptions) string {
	if opts.MethodArn != "" {
		return opts.MethodArn
	}
	return defaultMethodArn
}
