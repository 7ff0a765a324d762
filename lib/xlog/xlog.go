package xlog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/lib/infra"
)

var printBanner = sync.Once{}

type xLogger struct {
	logger    atomic.Pointer[zap.Logger]
	ctxFields map[string]string
	level     zap.AtomicLevel
	writer    logOutWriterType
	encoder   logEncoderType
}

func (l *xLogger) zap() *zap.Logger {
	return l.logger.Load()
}

// SetLevel is safe to call while other goroutines log.
func (l *xLogger) SetLevel(lvl logLevel) {
	l.level.SetLevel(lvl.zapLevel())
}

func (l *xLogger) Level() logLevel {
	return ParseLogLevel(l.level.Level().CapitalString())
}

func (l *xLogger) Sync() error {
	return l.logger.Load().Sync()
}

// Banner prints once per process, bypassing the level and the cores.
func (l *xLogger) Banner(banner Banner) {
	printBanner.Do(func() {
		cfg := zapcore.EncoderConfig{MessageKey: "banner"}
		enc, text := zapcore.NewJSONEncoder(cfg), banner.JSON()
		if l.encoder == PlainText {
			enc, text = zapcore.NewConsoleEncoder(cfg), banner.PlainText()
		}
		core := zapcore.NewCore(enc, getOutWriterByType(l.writer), zapcore.InfoLevel)
		bl := zap.New(core)
		bl.Info(text)
		_ = bl.Sync()
	})
}

func (l *xLogger) Debug(msg string, fields ...zap.Field) {
	l.logger.Load().Debug(msg, fields...)
}

func (l *xLogger) Info(msg string, fields ...zap.Field) {
	l.logger.Load().Info(msg, fields...)
}

func (l *xLogger) Warn(msg string, fields ...zap.Field) {
	l.logger.Load().Warn(msg, fields...)
}

func (l *xLogger) Error(err error, msg string, fields ...zap.Field) {
	if err != nil {
		fields = append([]zap.Field{zap.String("error", err.Error())}, fields...)
	}
	l.logger.Load().Error(msg, fields...)
}

// errorStackFields inlines the frames of an infra.ErrorStack, other errors
// only carry their message.
func errorStackFields(err error, fields ...zap.Field) []zap.Field {
	newFields := make([]zap.Field, 0, len(fields)+1)
	if es, ok := err.(infra.ErrorStack); ok && es != nil {
		newFields = append(newFields, zap.Inline(es))
	} else if err != nil {
		newFields = append(newFields, zap.String("error", err.Error()))
	}
	return append(newFields, fields...)
}

func (l *xLogger) ErrorStack(err error, msg string, fields ...zap.Field) {
	l.logger.Load().Error(msg, errorStackFields(err, fields...)...)
}

func (l *xLogger) DebugContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.logger.Load().Debug(msg, append(extractFieldsFromContext(ctx, l.ctxFields), fields...)...)
}

func (l *xLogger) InfoContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.logger.Load().Info(msg, append(extractFieldsFromContext(ctx, l.ctxFields), fields...)...)
}

func (l *xLogger) Logf(lvl zapcore.Level, format string, args ...any) {
	l.logger.Load().Log(lvl, fmt.Sprintf(format, args...))
}

type loggerCfg struct {
	ctxFields        map[string]string
	encoderType      logEncoderType
	writerType       logOutWriterType
	level            *logLevel
	coreConstructors []XLogCoreConstructor
}

type XLoggerOption func(*loggerCfg) error

// NewXLogger panics on an invalid option. Without a core option it logs
// through one console core. The level defaults to $XLOG_LVL.
func NewXLogger(opts ...XLoggerOption) XLogger {
	cfg := &loggerCfg{encoderType: JSON, writerType: StdOut}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(cfg); err != nil {
			panic(err)
		}
	}
	lvl := ParseLogLevel(os.Getenv("XLOG_LVL"))
	if cfg.level != nil {
		lvl = *cfg.level
	}
	if len(cfg.coreConstructors) == 0 {
		cfg.coreConstructors = []XLogCoreConstructor{newConsoleCore}
	}

	xl := &xLogger{
		ctxFields: cfg.ctxFields,
		level:     zap.NewAtomicLevelAt(lvl.zapLevel()),
		writer:    cfg.writerType,
		encoder:   cfg.encoderType,
	}
	cores := make([]xLogCore, 0, len(cfg.coreConstructors))
	for _, cc := range cfg.coreConstructors {
		cores = append(cores, cc(xl.level, xl.encoder, xl.writer, zapcore.CapitalLevelEncoder, zapcore.ISO8601TimeEncoder))
	}
	xl.logger.Store(zap.New(
		XLogTeeCore(cores...),
		zap.AddCallerSkip(1), // report the caller of the xLogger method
		zap.AddCaller(),
	))
	return xl
}

func WithXLoggerWriter(w logOutWriterType) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if w >= _writerMax {
			return infra.NewErrorStack("unknown xlogger writer")
		}
		cfg.writerType = w
		return nil
	}
}

// WithXLoggerConsoleCore appends one more console core on the writer.
func WithXLoggerConsoleCore() XLoggerOption {
	return func(cfg *loggerCfg) error {
		cfg.coreConstructors = append(cfg.coreConstructors, newConsoleCore)
		return nil
	}
}

// WithXLoggerFileCore appends a core writing into the file of cfg, the
// file is moved aside once it reaches cfg.FileMaxSize.
func WithXLoggerFileCore(cfg *FileCoreConfig) XLoggerOption {
	return func(lcfg *loggerCfg) error {
		if cfg == nil {
			return infra.NewErrorStack("nil xlogger file core config")
		}
		log, err := newFileLog(cfg)
		if err != nil {
			return err
		}
		lcfg.coreConstructors = append(lcfg.coreConstructors, newFileCore(log))
		return nil
	}
}

func WithXLoggerEncoder(logEnc logEncoderType) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if logEnc >= _encMax {
			return infra.NewErrorStack("unknown xlogger encoder")
		}
		cfg.encoderType = logEnc
		return nil
	}
}

func WithXLoggerLevel(lvl logLevel) XLoggerOption {
	return func(cfg *loggerCfg) error {
		cfg.level = &lvl
		return nil
	}
}

// WithXLoggerContextFieldExtract prints the context value of field under
// the mapTo name. ContextKeyMapToOmitempty skips it entirely.
func WithXLoggerContextFieldExtract(field string, mapTo ...string) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if len(field) == 0 {
			return nil
		}
		if cfg.ctxFields == nil {
			cfg.ctxFields = make(map[string]string, 8)
		}
		name := field
		if len(mapTo) > 0 && mapTo[0] != ContextKeyMapToItself {
			name = mapTo[0]
		}
		cfg.ctxFields[field] = name
		return nil
	}
}

type ctxKey string

// ContextWithField stores val for the extracted field name.
func ContextWithField(ctx context.Context, field string, val any) context.Context {
	return context.WithValue(ctx, ctxKey(field), val)
}

// extractFieldsFromContext emits the fields in name order, a missing
// value is printed as "nil".
func extractFieldsFromContext(ctx context.Context, targets map[string]string) []zap.Field {
	if ctx == nil || len(targets) == 0 {
		return []zap.Field{}
	}
	keys := make([]string, 0, len(targets))
	for k := range targets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		mapTo := targets[key]
		if mapTo == ContextKeyMapToOmitempty {
			continue
		}
		if v := ctx.Value(ctxKey(key)); v != nil {
			fields = append(fields, zap.Any(mapTo, v))
		} else {
			fields = append(fields, zap.String(mapTo, "nil"))
		}
	}
	return fields
}
