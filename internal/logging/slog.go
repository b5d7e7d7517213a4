package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// SetupOptions selects the outputs of a SlogManager.
type SetupOptions struct {
	// File receives text logs. When nil, logs go to stdout instead.
	File io.Writer
	// Remote receives JSON logs, one record per Write (e.g. a GELF writer).
	Remote io.Writer
	// Provider bridges records into OpenTelemetry when non-nil.
	Provider *sdklog.LoggerProvider
	Level    string
}

// SlogManager manages slog-based logging for the yard map engine.
type SlogManager struct {
	logger      *slog.Logger
	logProvider *sdklog.LoggerProvider

	// Dynamic state attached to every record when set.
	GetDrawMode     func() string
	GetSelectedZone func() string
	GetStorageType  func() string
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch normalizeLevel(level) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup (re)initializes the logger. Calling it again replaces all outputs.
func (m *SlogManager) Setup(opts SetupOptions) {
	m.logProvider = opts.Provider

	handlerOpts := &slog.HandlerOptions{
		Level: parseLevel(opts.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler
	if opts.File != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.File, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(os.Stdout, handlerOpts))
	}
	if opts.Remote != nil {
		handlers = append(handlers, slog.NewJSONHandler(opts.Remote, handlerOpts))
	}
	if opts.Provider != nil {
		handlers = append(handlers, otelslog.NewHandler("yardmap", otelslog.WithLoggerProvider(opts.Provider)))
	}

	m.logger = slog.New(NewContextHandler(NewMultiHandler(handlers...), m.contextAttrs))
	m.logger.Info("Logging initialized", "level", opts.Level)
}

func (m *SlogManager) contextAttrs() []slog.Attr {
	var attrs []slog.Attr
	if m.GetDrawMode != nil {
		attrs = append(attrs, slog.String("drawMode", m.GetDrawMode()))
	}
	if m.GetSelectedZone != nil {
		if id := m.GetSelectedZone(); id != "" {
			attrs = append(attrs, slog.String("selectedZone", id))
		}
	}
	if m.GetStorageType != nil {
		attrs = append(attrs, slog.String("storage", m.GetStorageType()))
	}
	return attrs
}

// Logger returns the configured slog.Logger, or slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	if m == nil || m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// WriteLog writes an entry tagged with the component that produced it.
func (m *SlogManager) WriteLog(component, data, level string) {
	if m == nil || m.logger == nil {
		return
	}

	switch parseLevel(level) {
	case slog.LevelDebug:
		m.logger.Debug(data, "component", component)
	case slog.LevelWarn:
		m.logger.Warn(data, "component", component)
	case slog.LevelError:
		m.logger.Error(data, "component", component)
	default:
		m.logger.Info(data, "component", component)
	}
}
