package overlay

import (
	"image/color"
	"sync"
)

// OpKind identifies a recorded drawing call.
type OpKind string

const (
	OpClear  OpKind = "clear"
	OpCircle OpKind = "circle"
	OpLine   OpKind = "line"
)

// Op is one drawing call captured by a RecordingSurface.
type Op struct {
	Kind   OpKind
	X1, Y1 float64
	X2, Y2 float64
	Size   float64 // radius for circles, stroke width for lines
	Color  color.RGBA
}

// RecordingSurface is a Surface that keeps a log of drawing calls instead of
// rasterizing them. Clear empties the log and counts the clear.
type RecordingSurface struct {
	width, height int
	mu            sync.Mutex
	ops           []Op
	clears        int
}

// NewRecordingSurface creates a recording surface of the given pixel size.
func NewRecordingSurface(width, height int) *RecordingSurface {
	return &RecordingSurface{width: width, height: height}
}

func (r *RecordingSurface) Size() (int, int) { return r.width, r.height }

func (r *RecordingSurface) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = nil
	r.clears++
}

func (r *RecordingSurface) FillCircle(x, y, radius float64, c color.RGBA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, Op{Kind: OpCircle, X1: x, Y1: y, Size: radius, Color: c})
}

func (r *RecordingSurface) Line(x1, y1, x2, y2, width float64, c color.RGBA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, Op{Kind: OpLine, X1: x1, Y1: y1, X2: x2, Y2: y2, Size: width, Color: c})
}

// Ops returns the calls recorded since the last Clear.
func (r *RecordingSurface) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Op, len(r.ops))
	copy(out, r.ops)
	return out
}

// Count returns how many recorded calls are of the given kind.
func (r *RecordingSurface) Count(kind OpKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, op := range r.ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Clears returns how many times Clear has been called.
func (r *RecordingSurface) Clears() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears
}
