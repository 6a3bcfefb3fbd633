package spatial

import "math"

const DefaultCellSize = 100.0

// MaxCellIndex bounds both cell coordinates to the range of a 32-bit INTEGER
// column, symmetric around zero.
const MaxCellIndex = math.MaxInt32

type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Cell) InRange() bool {
	return c.X >= -MaxCellIndex && c.X <= MaxCellIndex && c.Y >= -MaxCellIndex && c.Y <= MaxCellIndex
}

// CellBox is an inclusive range of cells. MinX > MaxX or MinY > MaxY means empty.
type CellBox struct {
	MinX int `json:"min_x"`
	MaxX int `json:"max_x"`
	MinY int `json:"min_y"`
	MaxY int `json:"max_y"`
}

func (b CellBox) Empty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

func (b CellBox) Contains(c Cell) bool {
	return !b.Empty() && c.X >= b.MinX && c.X <= b.MaxX && c.Y >= b.MinY && c.Y <= b.MaxY
}

// Cells enumerates the box row by row. The order is stable, callers rely on it
// to acquire per-cell locks without deadlocking.
func (b CellBox) Cells() []Cell {
	if b.Empty() {
		return nil
	}
	out := make([]Cell, 0, (b.MaxX-b.MinX+1)*(b.MaxY-b.MinY+1))
	for y := b.MinY; y <= b.MaxY; y++ {
		for x := b.MinX; x <= b.MaxX; x++ {
			out = append(out, Cell{X: x, Y: y})
		}
	}
	return out
}

type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

func (r Rect) Normalize() Rect {
	if r.MinX > r.MaxX {
		r.MinX, r.MaxX = r.MaxX, r.MinX
	}
	if r.MinY > r.MaxY {
		r.MinY, r.MaxY = r.MaxY, r.MinY
	}
	return r
}

// Contains is inclusive on every edge.
func (r Rect) Contains(x, y float64) bool {
	n := r.Normalize()
	return x >= n.MinX && x <= n.MaxX && y >= n.MinY && y <= n.MaxY
}

// Grid buckets the plane into square cells of CellSize plane units.
type Grid struct {
	CellSize float64
}

func NewGrid(cellSize float64) Grid {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		cellSize = DefaultCellSize
	}
	return Grid{CellSize: cellSize}
}

func (g Grid) size() float64 {
	if g.CellSize <= 0 {
		return DefaultCellSize
	}
	return g.CellSize
}

// CellOf saturates at ±MaxCellIndex. Callers that persist the cell must check
// InRange first.
func (g Grid) CellOf(x, y float64) Cell {
	s := g.size()
	return Cell{
		X: clampCell(math.Floor(x / s)),
		Y: clampCell(math.Floor(y / s)),
	}
}

// InRange reports whether (x, y) falls in a cell that CellOf does not saturate.
func (g Grid) InRange(x, y float64) bool {
	s := g.size()
	fx, fy := math.Floor(x/s), math.Floor(y/s)
	return fx >= -MaxCellIndex && fx <= MaxCellIndex && fy >= -MaxCellIndex && fy <= MaxCellIndex
}

func clampCell(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v > MaxCellIndex:
		return MaxCellIndex
	case v < -MaxCellIndex:
		return -MaxCellIndex
	}
	return int(v)
}

// CellRadius returns a superset of the cells a circle of radius around (x, y)
// can touch. Membership must still be decided with WithinRadius. Bounds are
// clamped to ±MaxCellIndex, so a huge radius never wraps.
func (g Grid) CellRadius(x, y, radius float64) CellBox {
	if radius < 0 || math.IsNaN(radius) {
		center := g.CellOf(x, y)
		return CellBox{MinX: center.X, MaxX: center.X - 1, MinY: center.Y, MaxY: center.Y - 1}
	}
	s := g.size()
	cx, cy := math.Floor(x/s), math.Floor(y/s)
	slack := math.Ceil(radius / s)
	return CellBox{
		MinX: clampCell(cx - slack),
		MaxX: clampCell(cx + slack),
		MinY: clampCell(cy - slack),
		MaxY: clampCell(cy + slack),
	}
}

func (g Grid) CellRangeForBox(r Rect) CellBox {
	n := r.Normalize()
	lo := g.CellOf(n.MinX, n.MinY)
	hi := g.CellOf(n.MaxX, n.MaxY)
	return CellBox{MinX: lo.X, MaxX: hi.X, MinY: lo.Y, MaxY: hi.Y}
}

func WithinRadius(x1, y1, x2, y2, radius float64) bool {
	if radius < 0 {
		return false
	}
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx+dy*dy <= radius*radius
}

func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
