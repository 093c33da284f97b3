package stages

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	svg "github.com/ajstarks/svgo"

	"github.com/activeharmony/harmony/internal/config"
	"github.com/activeharmony/harmony/internal/ctrl"
	"github.com/activeharmony/harmony/internal/pipeline"
	"github.com/activeharmony/harmony/internal/point"
	"github.com/activeharmony/harmony/internal/space"
)

func init() {
	if err := pipeline.Register("tracer", NewTracer); err != nil {
		panic(err)
	}
}

// xy is one analyzed vertex projected onto the space's first two
// dimensions, in report order.
type xy struct {
	x, y float64
}

// Tracer projects every analyzed vertex onto its first two dimensions
// and renders the visited sequence as an SVG scatter-and-path, adapted
// from dshills-dungo/pkg/export.ExportSVG's canvas-building shape
// (background rect, computed layout, draw edges then nodes, save with
// 0644 permissions) but plotting a search trajectory instead of a
// dungeon graph.
type Tracer struct {
	mu     sync.Mutex
	sp     *space.Space
	points []xy

	width, height int
	outPath       string
}

// NewTracer constructs a Tracer with default canvas dimensions;
// TRACE_WIDTH/TRACE_HEIGHT/TRACE_OUT override them in Alloc.
func NewTracer() pipeline.Stage {
	return &Tracer{width: 1200, height: 800}
}

func (t *Tracer) Name() string { return "tracer" }

// Alloc reads the canvas size and an optional output path. An empty
// TRACE_OUT leaves the stage recording the trajectory without writing
// a file — useful when a caller wants Render's bytes directly.
func (t *Tracer) Alloc(cfg *config.Configuration) error {
	cfg.Register(
		config.Info{Key: "TRACE_WIDTH", Default: "1200", Help: "tracer SVG canvas width in pixels"},
		config.Info{Key: "TRACE_HEIGHT", Default: "800", Help: "tracer SVG canvas height in pixels"},
		config.Info{Key: "TRACE_OUT", Default: "", Help: "path to write the tracer's SVG on Fini; empty disables the write"},
	)
	if w, ok := cfg.Int("TRACE_WIDTH", 1200); ok && w > 0 {
		t.width = int(w)
	}
	if h, ok := cfg.Int("TRACE_HEIGHT", 800); ok && h > 0 {
		t.height = int(h)
	}
	t.outPath = cfg.Get("TRACE_OUT")
	return nil
}

// Init captures the space so Analyze can resolve enum dimensions to a
// numeric coordinate via Dimension.Index, the way Vertex.Coords does
// for simplex geometry.
func (t *Tracer) Init(sp *space.Space) error {
	t.sp = sp
	t.mu.Lock()
	t.points = nil
	t.mu.Unlock()
	return nil
}

// Analyze projects the trial onto the space's first one or two
// dimensions and records it. Spaces of fewer than two dimensions plot
// the single axis against itself.
func (t *Tracer) Analyze(flow *ctrl.Flow, trial *ctrl.Trial) error {
	flow.Status = ctrl.Accept
	if t.sp == nil || t.sp.Len() == 0 {
		return nil
	}
	coords, err := point.NewVertex(trial.Point, trial.Perf).Coords(t.sp)
	if err != nil {
		return fmt.Errorf("stages: tracer: projecting point %d: %w", trial.Point.ID, err)
	}
	p := xy{x: coords[0]}
	if len(coords) > 1 {
		p.y = coords[1]
	} else {
		p.y = coords[0]
	}
	t.mu.Lock()
	t.points = append(t.points, p)
	t.mu.Unlock()
	return nil
}

// Render draws the recorded trajectory as a scatter-and-path trace and
// returns the SVG bytes.
func (t *Tracer) Render() []byte {
	t.mu.Lock()
	pts := append([]xy(nil), t.points...)
	t.mu.Unlock()

	const margin = 50
	buf := new(bytes.Buffer)
	canvas := svg.New(buf)
	canvas.Start(t.width, t.height)
	canvas.Rect(0, 0, t.width, t.height, "fill:#1a1a2e")

	if len(pts) == 0 {
		canvas.Text(t.width/2, t.height/2, "no data", "text-anchor:middle;font-size:14px;fill:#888888")
		canvas.End()
		return buf.Bytes()
	}

	minX, maxX := pts[0].x, pts[0].x
	minY, maxY := pts[0].y, pts[0].y
	for _, p := range pts {
		if p.x < minX {
			minX = p.x
		}
		if p.x > maxX {
			maxX = p.x
		}
		if p.y < minY {
			minY = p.y
		}
		if p.y > maxY {
			maxY = p.y
		}
	}
	spanX, spanY := maxX-minX, maxY-minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}

	plotW := t.width - 2*margin
	plotH := t.height - 2*margin
	xs := make([]int, len(pts))
	ys := make([]int, len(pts))
	for i, p := range pts {
		xs[i] = margin + int(float64(plotW)*(p.x-minX)/spanX)
		ys[i] = margin + plotH - int(float64(plotH)*(p.y-minY)/spanY)
	}

	canvas.Polyline(xs, ys, "fill:none;stroke:#48bb78;stroke-width:1;stroke-dasharray:3,3")
	for i := range pts {
		color := "#4299e1"
		if i == len(pts)-1 {
			color = "#ffd700"
		}
		canvas.Circle(xs[i], ys[i], 4, fmt.Sprintf("fill:%s;stroke:#fff;stroke-width:1", color))
	}
	canvas.Text(margin, margin/2, fmt.Sprintf("%d points visited", len(pts)), "font-size:12px;fill:#cbd5e0")
	canvas.End()
	return buf.Bytes()
}

// Fini writes the rendered SVG to TRACE_OUT if one was configured.
func (t *Tracer) Fini() error {
	if t.outPath == "" {
		return nil
	}
	data := t.Render()
	if err := os.WriteFile(t.outPath, data, 0644); err != nil {
		return fmt.Errorf("stages: tracer: writing %s: %w", t.outPath, err)
	}
	return nil
}
