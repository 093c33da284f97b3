package stages

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/activeharmony/harmony/internal/config"
	"github.com/activeharmony/harmony/internal/ctrl"
	"github.com/activeharmony/harmony/internal/pipeline"
)

func init() {
	if err := pipeline.Register("metrics", NewMetrics); err != nil {
		panic(err)
	}
}

// Metrics counts points generated and reported and tracks the running
// minimum unified performance as plain Prometheus collectors, the way
// luxfi-consensus/metrics.Averager registers a Counter and a Gauge
// against a caller-supplied prometheus.Registerer rather than pulling
// in an HTTP exporter — scraping is the embedding daemon's concern, not
// the stage's.
type Metrics struct {
	reg *prometheus.Registry

	joined    prometheus.Counter
	generated prometheus.Counter
	reported  prometheus.Counter
	rejected  prometheus.Counter
	bestObj   prometheus.Gauge

	haveBest bool
	best     float64
}

// NewMetrics constructs an unregistered Metrics stage; Alloc creates
// its own private prometheus.Registry and registers its collectors
// against it — no HTTP exporter is wired up here, since scraping
// belongs to whatever embeds the session, not the stage itself.
func NewMetrics() pipeline.Stage {
	return &Metrics{}
}

func (m *Metrics) Name() string { return "metrics" }

// Alloc reads METRICS_NAMESPACE and registers the stage's collectors
// against a fresh private prometheus.Registry.
func (m *Metrics) Alloc(cfg *config.Configuration) error {
	cfg.Register(config.Info{Key: "METRICS_NAMESPACE", Default: "harmony", Help: "prometheus metric name prefix for the metrics stage"})
	ns := cfg.Get("METRICS_NAMESPACE")
	if ns == "" {
		ns = "harmony"
	}
	return m.registerWith(prometheus.NewRegistry(), ns)
}

// Registry returns the stage's private registry, for a caller that
// wants to expose it on its own /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) registerWith(reg *prometheus.Registry, namespace string) error {
	m.reg = reg
	m.joined = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "joins_total", Help: "clients that have joined the session",
	})
	m.generated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "points_generated_total", Help: "candidates delivered to a client",
	})
	m.reported = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "points_reported_total", Help: "performances accepted by the reverse pipeline",
	})
	m.rejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "points_rejected_total", Help: "candidates rejected before or after client evaluation",
	})
	m.bestObj = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "best_unified_objective", Help: "lowest unified objective value observed",
	})
	for _, c := range []prometheus.Collector{m.joined, m.generated, m.reported, m.rejected, m.bestObj} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Join counts a client join.
func (m *Metrics) Join(clientID string) error {
	if m.joined != nil {
		m.joined.Inc()
	}
	return nil
}

// Generate counts the candidate and always accepts.
func (m *Metrics) Generate(flow *ctrl.Flow, trial *ctrl.Trial) error {
	flow.Status = ctrl.Accept
	if m.generated != nil {
		m.generated.Inc()
	}
	return nil
}

// Analyze counts the report, tracks REJECT separately, and updates the
// running-best gauge.
func (m *Metrics) Analyze(flow *ctrl.Flow, trial *ctrl.Trial) error {
	flow.Status = ctrl.Accept
	if m.reported != nil {
		m.reported.Inc()
	}
	v := trial.Perf.Unify()
	if !m.haveBest || v < m.best {
		m.haveBest = true
		m.best = v
		if m.bestObj != nil {
			m.bestObj.Set(v)
		}
	}
	return nil
}

// CountReject is called by the session whenever a trial is rejected,
// since rejection can originate from the strategy rather than from
// this stage's own Analyze/Generate.
func (m *Metrics) CountReject() {
	if m.rejected != nil {
		m.rejected.Inc()
	}
}
