package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	llmclient "topicgrid/internal/llm/client"
)

// WithLogging logs every completion with its task, size and latency.
// A nil logger disables it.
func WithLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next llmclient.Provider) llmclient.Provider {
		log := logger.With(zap.String("provider", string(next.Name())))
		return &decorated{
			next: next,
			complete: func(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
				size := 0
				for _, m := range req.Messages {
					size += len(m.Content)
				}
				start := time.Now()
				resp, err := next.Complete(ctx, req)
				fields := []zap.Field{
					zap.String("task", req.Task),
					zap.Int("prompt_bytes", size),
					zap.Duration("latency", time.Since(start)),
				}
				if err != nil {
					log.Warn("llm completion failed", append(fields, zap.Int("status", llmclient.StatusOf(err)), zap.Error(err))...)
					return resp, err
				}
				log.Debug("llm completion", append(fields, zap.String("model", resp.Model), zap.Int("reply_bytes", len(resp.Content)))...)
				return resp, nil
			},
		}
	}
}
