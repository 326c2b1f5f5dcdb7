package scheduler

import "go.uber.org/zap"

// cronLogger routes robfig/cron diagnostics into zap. cron reports every
// wake-up at info level, which is too chatty for us.
type cronLogger struct{ l *zap.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().With(zap.Error(err)).Errorw("cron: "+msg, keysAndValues...)
}
