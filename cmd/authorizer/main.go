// The authorizer Lambda validates OIDC bearer tokens for the tile server
// REST API. It runs as an API Gateway token authorizer on the
// provided.al2023 runtime.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/theory-cloud/geotheory/pkg/authorizer"
	"github.com/theory-cloud/geotheory/pkg/logger"
	"github.com/theory-cloud/geotheory/pkg/observability"
	obszap "github.com/theory-cloud/geotheory/pkg/observability/zap"
)

func main() {
	ctx := context.Background()

	var opts []obszap.Option
	notifier, notifierErr := obszap.NotifierFromEnv(ctx)
	if notifier != nil {
		opts = append(opts, obszap.WithErrorNotifier(notifier))
	}

	log, err := obszap.NewZapLogger(observability.LoggerConfig{
		Format: "json",
		Level:  os.Getenv("LOG_LEVEL"),
	}, opts...)
	if err != nil {
		panic(err)
	}
	logger.SetLogger(log)
	defer func() { _ = log.Close() }()
	warnNotifierDisabled(log, notifierErr)

	auth, err := authorizer.New(authorizer.ConfigFromEnv(), authorizer.WithLogger(log))
	if err != nil {
		log.Error("authorizer startup failed", map[string]any{"error": err.Error()})
		panic(err)
	}

	lambda.Start(func(ctx context.Context, event authorizer.Event) (events.APIGatewayCustomAuthorizerResponse, error) {
		return auth.Authorize(ctx, event)
	})
}

// warnNotifierDisabled records a notifier setup failure; the authorizer still
// runs, it just cannot fan errors out to the alarm topic.
func warnNotifierDisabled(log observability.StructuredLogger, err error) {
	if err == nil {
		return
	}
	log.Warn("alarm notifier disabled", map[string]any{"error": err.Error()})
}
