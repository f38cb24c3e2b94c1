package relay

import (
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment is the process configuration of a relay host, read from
// environment variables.
//
//	| Variable                 | Default | Description                               |
//	|--------------------------|---------|-------------------------------------------|
//	| RELAY_LOG_LEVEL          | info    | debug, info, warn, error                  |
//	| RELAY_MANIFEST           | -       | path to a JSON manifest (see LoadManifest) |
//	| RELAY_EVENT_FIELD        | event   | event-name field for listener routing     |
//	| RELAY_CORS_ENABLED       | false   | add CORS headers to HTTP envelopes        |
//	| RELAY_CORS_ALLOW_ORIGINS | *       | comma separated                           |
//	| RELAY_CORS_ALLOW_METHODS | -       | comma separated                           |
//	| RELAY_CORS_ALLOW_HEADERS | -       | comma separated                           |
//	| RELAY_CORS_EXPOSE_HEADERS| -       | comma separated                           |
//	| RELAY_CORS_CREDENTIALS   | false   | send Access-Control-Allow-Credentials      |
//	| RELAY_CORS_MAX_AGE       | -       | seconds, >= 0                             |
type Environment struct {
	LogLevel     zapcore.Level `env:"RELAY_LOG_LEVEL" envDefault:"info"`
	ManifestPath string        `env:"RELAY_MANIFEST"`
	EventField   string        `env:"RELAY_EVENT_FIELD" envDefault:"event" validate:"required"`
	CORS         CORSConfig    `envPrefix:"RELAY_CORS_"`
}

// ParseEnvironment reads and validates the Environment.
func ParseEnvironment() (Environment, error) {
	var e Environment
	if err := env.Parse(&e); err != nil {
		return e, errors.Wrap(err, "failed to parse environment")
	}
	if err := validate.Struct(e); err != nil {
		return e, errors.Wrap(err, "invalid environment")
	}
	return e, nil
}

// Logger builds a production zap logger at the configured level.
func (e Environment) Logger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(e.LogLevel)
	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return logger, nil
}

// Options returns the Router options implied by the environment.
func (e Environment) Options() []Option {
	return []Option{WithEventField(e.EventField)}
}

// CORSConfig returns the CORS settings, or nil when CORS is disabled.
func (e Environment) CORSConfig() *CORSConfig {
	if !e.CORS.Enabled {
		return nil
	}
	c := e.CORS
	return &c
}
