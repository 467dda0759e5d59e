package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"shelfscan/internal/platform/logger"
)

type zlAdapter struct {
	l zerolog.Logger
}

// NewLoggerAdapter routes watermill logs into zerolog
func NewLoggerAdapter(l *logger.Logger) watermill.LoggerAdapter {
	return zlAdapter{l: *l}
}

func (a zlAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.l.Error().Err(err).Fields(map[string]any(fields)).Msg(msg)
}

func (a zlAdapter) Info(msg string, fields watermill.LogFields) {
	a.l.Info().Fields(map[string]any(fields)).Msg(msg)
}

func (a zlAdapter) Debug(msg string, fields watermill.LogFields) {
	a.l.Debug().Fields(map[string]any(fields)).Msg(msg)
}

func (a zlAdapter) Trace(msg string, fields watermill.LogFields) {
	a.l.Trace().Fields(map[string]any(fields)).Msg(msg)
}

func (a zlAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return zlAdapter{l: a.l.With().Fields(map[string]any(fields)).Logger()}
}
