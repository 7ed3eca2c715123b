package email

import (
	"context"

	"go.uber.org/zap"
)

// LogSender only logs messages. Meant for local development.
type LogSender struct {
	Log *zap.Logger
}

func (s *LogSender) Send(_ context.Context, to, subject, html string) error {
	s.Log.Info("email delivery skipped (log transport)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(html)),
	)
	return nil
}
