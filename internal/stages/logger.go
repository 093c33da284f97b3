// Package stages holds the built-in pipeline stages every session can
// reference from its LAYERS configuration: a point logger, a
// Redis-backed result cache, a Prometheus instrumentation stage, and
// an SVG trajectory tracer. Each registers itself with
// internal/pipeline's stage registry from an init func, the way every
// built-in search strategy self-registers with internal/strategy.
package stages

import (
	"github.com/activeharmony/harmony/internal/config"
	"github.com/activeharmony/harmony/internal/ctrl"
	"github.com/activeharmony/harmony/internal/harmonylog"
	"github.com/activeharmony/harmony/internal/pipeline"
	"github.com/activeharmony/harmony/internal/point"
)

func init() {
	if err := pipeline.Register("logger", NewLogger); err != nil {
		panic(err)
	}
}

// Logger writes one FormatUnified line per reported trial to its
// configured Logger. It never rejects, waits, or alters a trial — it
// only observes on the way back from the client.
type Logger struct {
	log *harmonylog.Logger
}

// NewLogger constructs a Logger stage with a no-op logger, matching the
// zero-arg Factory signature every registered stage needs; the session's
// logger arrives later through SetLogger.
func NewLogger() pipeline.Stage {
	return &Logger{log: harmonylog.Nop()}
}

func (l *Logger) Name() string { return "logger" }

// Alloc registers the stage's LOG_STAGE_LEVEL key. The stage does not
// read it: Analyze always logs at Info.
func (l *Logger) Alloc(cfg *config.Configuration) error {
	cfg.Register(config.Info{Key: "LOG_STAGE_LEVEL", Default: "info", Help: "registered by the logger stage; points are always logged at info"})
	return nil
}

// SetLogger is called by the session after Alloc to attach the real
// logger (sessions own *harmonylog.Logger construction; stages that
// need logging receive it this way rather than each parsing its own
// level config).
func (l *Logger) SetLogger(log *harmonylog.Logger) {
	if log != nil {
		l.log = log
	}
}

// Analyze logs the reported point and always accepts.
func (l *Logger) Analyze(flow *ctrl.Flow, trial *ctrl.Trial) error {
	l.log.Info(point.FormatUnified(trial.Point, trial.Perf), nil)
	flow.Status = ctrl.Accept
	return nil
}
