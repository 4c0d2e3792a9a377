// Package observability provides logging and tracing setup.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/skirmish/internal/config"
)

// NewLogger builds the simulator's structured logger. Entries go to cfg.Output,
// stderr by default, so stdout stays free for the event log. Every entry carries
// cfg.Fields in key order.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}
	enc, err := encoderConfig(cfg.Format)
	if err != nil {
		return nil, err
	}
	output := cfg.Output
	if output == "" {
		output = "stderr"
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         cfg.Format,
		EncoderConfig:    enc,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    make(map[string]any, len(cfg.Fields)),
	}
	for k, v := range cfg.Fields {
		zapCfg.InitialFields[k] = v
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger on %q: %w", output, err)
	}
	return logger, nil
}

// encoderConfig names the keys the way the simulator's log tooling reads them.
// Rolls and turns are logged unsampled at debug, so no sampling config is set.
func encoderConfig(format string) (zapcore.EncoderConfig, error) {
	var enc zapcore.EncoderConfig
	switch format {
	case "json":
		enc = zap.NewProductionEncoderConfig()
		enc.EncodeDuration = zapcore.MillisDurationEncoder
	case "console":
		enc = zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return zapcore.EncoderConfig{}, fmt.Errorf("unknown log format %q", format)
	}
	enc.TimeKey = "ts"
	enc.MessageKey = "msg"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	return enc, nil
}

// EncounterLogger scopes base to one encounter run. Entries carry the encounter
// id, scenario and seed so interleaved runs in one log can be told apart and
// replayed.
func EncounterLogger(base *zap.Logger, id, scenario string, seed uint64) *zap.Logger {
	fields := []zap.Field{zap.String("encounter", id), zap.Uint64("seed", seed)}
	if scenario != "" {
		fields = append(fields, zap.String("scenario", scenario))
	}
	return base.With(fields...)
}
