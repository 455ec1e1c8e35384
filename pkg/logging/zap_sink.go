package logging

import "go.uber.org/zap"

// ZapSink emits pipeline events through a zap logger, for hosts that already
// carry a zap-based logging stack. Emission inherits zap's synchronous
// semantics; wrap the logger's core in a buffered WriteSyncer if the call
// path must not block on IO.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a sink writing events to logger at info level
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

// Emit implements Sink
func (s *ZapSink) Emit(event Event) {
	fields := []zap.Field{
		zap.Time("time", event.Time),
		zap.String("kind", string(event.Kind)),
		zap.String("request_id", event.RequestID),
		zap.String("preview", event.Preview),
	}

	if event.Kind == EventResponse {
		fields = append(fields,
			zap.Int("prompt_tokens", event.PromptTokens),
			zap.Int("completion_tokens", event.CompletionTokens),
		)
		if event.Latency != nil {
			fields = append(fields, zap.Duration("latency", *event.Latency))
		}
	}

	s.logger.Info("pipeline event", fields...)
}
