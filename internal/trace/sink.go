package trace

import "go.uber.org/zap"

// ZapSink records span events as structured log lines. It stands in for an
// external trace backend; delivery remains fire-and-forget either way.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a log-backed sink.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

// Record implements Sink.
func (s *ZapSink) Record(ev Event) {
	fields := []zap.Field{
		zap.String("run_id", ev.RunID),
		zap.String("step", ev.Step),
		zap.String("phase", string(ev.Phase)),
		zap.Time("at", ev.At),
	}
	if ev.Phase == PhaseEnd {
		fields = append(fields,
			zap.String("outcome", string(ev.Outcome)),
			zap.Duration("elapsed", ev.Metrics.Elapsed),
		)
		if ev.Metrics.HasTokens {
			fields = append(fields,
				zap.Int("prompt_tokens", ev.Metrics.PromptTokens),
				zap.Int("completion_tokens", ev.Metrics.CompletionTokens),
			)
		}
	}
	for k, v := range ev.Attrs {
		fields = append(fields, zap.String("attr_"+k, v))
	}
	s.logger.Info("span", fields...)
}
