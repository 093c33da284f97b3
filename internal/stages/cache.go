package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/activeharmony/harmony/internal/config"
	"github.com/activeharmony/harmony/internal/ctrl"
	"github.com/activeharmony/harmony/internal/harmonylog"
	"github.com/activeharmony/harmony/internal/pipeline"
	"github.com/activeharmony/harmony/internal/point"
)

func init() {
	if err := pipeline.Register("cache", NewCache); err != nil {
		panic(err)
	}
}

// cachedPerf is the JSON shape stored per point key, mirroring the
// round-trippable wire form point.Performance already exposes.
type cachedPerf struct {
	Obj []float64 `json:"obj"`
}

// Cache persists every reported performance under a namespace-scoped
// Redis key so repeated points (across clients, or across a daemon
// restart) are recognizable without re-deriving them from history. It
// is grounded on itsneelabh-gomind/pkg/memory's RedisMemory: a
// redis.Client behind a small namespaced Set/Get, swapping the
// interface{} JSON payload for a fixed Performance shape.
type Cache struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	log       *harmonylog.Logger

	hits   int64
	misses int64
}

// NewCache constructs an unconnected Cache stage; Alloc dials Redis
// once CACHE_REDIS_URL is known.
func NewCache() pipeline.Stage {
	return &Cache{log: harmonylog.Nop(), ttl: time.Hour}
}

func (c *Cache) Name() string { return "cache" }

// Alloc reads CACHE_REDIS_URL, CACHE_NAMESPACE, and CACHE_TTL_SECONDS
// and dials Redis. A missing or empty CACHE_REDIS_URL leaves the stage
// disabled: Analyze and Generate become no-ops rather than failing the
// session over an optional stage.
func (c *Cache) Alloc(cfg *config.Configuration) error {
	cfg.Register(
		config.Info{Key: "CACHE_REDIS_URL", Default: "", Help: "redis connection URL for the point-performance cache"},
		config.Info{Key: "CACHE_NAMESPACE", Default: "harmony", Help: "key prefix the cache stage stores under"},
		config.Info{Key: "CACHE_TTL_SECONDS", Default: "3600", Help: "TTL in seconds for cached point performances"},
	)
	url := cfg.Get("CACHE_REDIS_URL")
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("stages: cache: invalid CACHE_REDIS_URL: %w", err)
	}
	c.namespace = cfg.Get("CACHE_NAMESPACE")
	if c.namespace == "" {
		c.namespace = "harmony"
	}
	if secs, ok := cfg.Int("CACHE_TTL_SECONDS", 3600); ok && secs > 0 {
		c.ttl = time.Duration(secs) * time.Second
	}
	c.client = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("stages: cache: connecting to redis: %w", err)
	}
	return nil
}

// SetLogger attaches the session's logger, the same pattern Logger uses.
func (c *Cache) SetLogger(log *harmonylog.Logger) {
	if log != nil {
		c.log = log
	}
}

func (c *Cache) key(p *point.Point) string {
	_, terms := point.Encode(p)
	buf, _ := json.Marshal(terms)
	return fmt.Sprintf("%s:point:%x", c.namespace, buf)
}

// Generate looks up whether this candidate's coordinates have already
// been reported; if so it rejects the candidate (with no hint, letting
// the strategy pick a fresh replacement) rather than send the same
// workload to the client a second time.
func (c *Cache) Generate(flow *ctrl.Flow, trial *ctrl.Trial) error {
	flow.Status = ctrl.Accept
	if c.client == nil || trial.Point == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := c.client.Get(ctx, c.key(trial.Point)).Result()
	switch err {
	case nil:
		c.hits++
		flow.Status = ctrl.Reject
	case redis.Nil:
		c.misses++
	default:
		c.log.Warn("cache stage: lookup failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// Analyze stores the reported performance and always accepts.
func (c *Cache) Analyze(flow *ctrl.Flow, trial *ctrl.Trial) error {
	flow.Status = ctrl.Accept
	if c.client == nil || trial.Point == nil {
		return nil
	}
	data, err := json.Marshal(cachedPerf{Obj: trial.Perf.Obj})
	if err != nil {
		return fmt.Errorf("stages: cache: marshal performance: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.client.Set(ctx, c.key(trial.Point), data, c.ttl).Err(); err != nil {
		c.log.Warn("cache stage: store failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// Fini closes the Redis connection, if one was opened.
func (c *Cache) Fini() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
