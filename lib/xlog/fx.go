package xlog

import (
	"time"

	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ fxevent.Logger = (*FxXLogger)(nil)

// FxXLogger prints the fx lifecycle under the "Fx" component.
type FxXLogger struct {
	logger XLogger
}

func hookFields(fn, caller string, in time.Duration) []zap.Field {
	fields := []zap.Field{zap.String("function", fn), zap.String("caller", caller)}
	if in > 0 {
		fields = append(fields, zap.Duration("in", in))
	}
	return fields
}

// outcome logs "<step> failed" at ERROR when err is set, else step at lvl.
func (l *FxXLogger) outcome(err error, lvl zapcore.Level, step string, fields ...zap.Field) {
	switch {
	case err != nil:
		l.logger.Error(err, step+" failed", fields...)
	case lvl == zapcore.InfoLevel:
		l.logger.Info(step, fields...)
	default:
		l.logger.Debug(step, fields...)
	}
}

func (l *FxXLogger) LogEvent(event fxevent.Event) {
	if l == nil || l.logger == nil {
		return
	}

	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		l.logger.Debug("fx OnStart hook executing", hookFields(e.FunctionName, e.CallerName, 0)...)
	case *fxevent.OnStartExecuted:
		l.outcome(e.Err, zapcore.DebugLevel, "fx OnStart hook", hookFields(e.FunctionName, e.CallerName, e.Runtime)...)
	case *fxevent.OnStopExecuting:
		l.logger.Info("fx OnStop hook executing", hookFields(e.FunctionName, e.CallerName, 0)...)
	case *fxevent.OnStopExecuted:
		l.outcome(e.Err, zapcore.InfoLevel, "fx OnStop hook", hookFields(e.FunctionName, e.CallerName, e.Runtime)...)
	case *fxevent.Supplied:
		fields := []zap.Field{zap.String("type", e.TypeName), zap.String("module", e.ModuleName)}
		if e.Err != nil {
			fields = append(fields, zap.Strings("stacktrace", e.StackTrace))
		}
		l.outcome(e.Err, zapcore.DebugLevel, "fx supply", fields...)
	case *fxevent.Provided:
		for _, rtype := range e.OutputTypeNames {
			l.logger.Debug("fx provide",
				zap.Bool("private", e.Private),
				zap.String("rtype", rtype),
				zap.String("constructor", e.ConstructorName),
				zap.String("module", e.ModuleName),
			)
		}
		if e.Err != nil {
			l.logger.Error(e.Err, "fx provide failed", zap.Strings("stacktrace", e.StackTrace))
		}
	case *fxevent.Decorated:
		for _, rtype := range e.OutputTypeNames {
			l.logger.Debug("fx decorate",
				zap.String("rtype", rtype),
				zap.String("decorator", e.DecoratorName),
				zap.String("module", e.ModuleName),
			)
		}
		if e.Err != nil {
			l.logger.Error(e.Err, "fx decorate failed", zap.Strings("stacktrace", e.StackTrace))
		}
	case *fxevent.Invoking:
		l.logger.Debug("fx invoke", zap.String("function", e.FunctionName), zap.String("module", e.ModuleName))
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx invoke failed", zap.String("function", e.FunctionName), zap.String("trace", e.Trace))
		}
	case *fxevent.Stopping:
		l.logger.Info("fx stopping", zap.String("signal", e.Signal.String()))
	case *fxevent.Stopped:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx stop failed")
		}
	case *fxevent.RollingBack:
		l.logger.Error(e.StartErr, "fx start failed, rolling back")
	case *fxevent.RolledBack:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx rollback failed")
		}
	case *fxevent.Started:
		l.outcome(e.Err, zapcore.DebugLevel, "fx start")
	case *fxevent.LoggerInitialized:
		l.outcome(e.Err, zapcore.DebugLevel, "fx logger init", zap.String("constructor", e.ConstructorName))
	}
}

func NewFxXLogger(logger XLogger) *FxXLogger {
	return &FxXLogger{logger: newComponentLogger(logger, "Fx")}
}
