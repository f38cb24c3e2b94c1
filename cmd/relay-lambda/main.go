// Command relay-lambda is a Lambda host for relay. It reads its routing from
// the manifest named by RELAY_MANIFEST and serves the built-in handlers
// below; applications embed relay and register their own instances instead.
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/bjaus/relay"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// defaultManifest is used when RELAY_MANIFEST is unset.
const defaultManifest = `{
  "controllers": [
    {"id": "health", "basePath": "/health", "routes": {"GET": {"": "Check"}}}
  ],
  "listeners": [
    {"id": "log", "match": {"source": "*"}}
  ]
}`

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	env, err := relay.ParseEnvironment()
	if err != nil {
		return err
	}

	logger, err := env.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	raw := []byte(defaultManifest)
	if env.ManifestPath != "" {
		if raw, err = os.ReadFile(env.ManifestPath); err != nil {
			return errors.Wrapf(err, "read manifest %s", env.ManifestPath)
		}
	}
	manifest, err := relay.LoadManifest(raw)
	if err != nil {
		return err
	}

	cfg := manifest.Config()
	if cors := env.CORSConfig(); cors != nil {
		cfg.CORS = cors
	}

	container := relay.NewContainer().
		ProvideValue("health", &health{}).
		ProvideValue("log", &eventLogger{logger: logger})

	opts := append(env.Options(), relay.WithLogger(logger))
	router, err := relay.New(cfg, container, opts...)
	if err != nil {
		return err
	}

	logger.Info("relay ready", zap.Int("routes", router.Routes().Len()))
	lambda.Start(router.Handle)
	return nil
}

type health struct{}

func (*health) Check(context.Context, *relay.Request) (any, error) {
	return relay.NewResponse().Status(http.StatusOK).Body(map[string]string{"status": "ok"}), nil
}

// eventLogger acknowledges any event it is routed and logs its shape.
type eventLogger struct {
	logger *zap.Logger
}

func (l *eventLogger) Handle(_ context.Context, evt *relay.Event) (any, error) {
	source, _ := evt.GetString("source")
	l.logger.Info("event received",
		zap.String("source", source),
		zap.Strings("keys", evt.Keys()),
	)
	return map[string]bool{"logged": true}, nil
}
