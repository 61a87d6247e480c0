package desktop

import (
	"fmt"
	"math"
)

// Policy selects how new icons are laid out on the desktop.
type Policy string

const (
	// PolicyColumn stacks every icon in one vertical list at a fixed x.
	PolicyColumn Policy = "column"
	// PolicyGrid fills rows left to right and wraps after Columns cells.
	PolicyGrid Policy = "grid"
)

// Display densities accepted by LayoutFor.
const (
	DensityDesktop = "desktop"
	DensityMobile  = "mobile"
)

// Layout holds the desktop grid geometry. All sizes are in pixels.
type Layout struct {
	GridSize int
	IconSize int
	Gap      int
	Origin   Point
	Policy   Policy
	Columns  int
}

// DesktopLayout is the geometry used on wide screens.
func DesktopLayout() Layout {
	return Layout{
		GridSize: 80,
		IconSize: 64,
		Gap:      20,
		Origin:   Point{X: 20, Y: 60}, // below the "Desktop" title
		Policy:   PolicyColumn,
		Columns:  8,
	}
}

// MobileLayout is the geometry used below the 768px breakpoint.
func MobileLayout() Layout {
	l := DesktopLayout()
	l.GridSize = 60
	l.IconSize = 48
	l.Columns = 4
	return l
}

// LayoutFor returns the preset for a display density, defaulting to desktop.
func LayoutFor(density string) Layout {
	if density == DensityMobile {
		return MobileLayout()
	}
	return DesktopLayout()
}

func (l Layout) Validate() error {
	if l.GridSize <= 0 || l.IconSize <= 0 || l.Gap < 0 {
		return fmt.Errorf("%w: layout sizes must be positive (grid=%d icon=%d gap=%d)",
			ErrInvalidArgument, l.GridSize, l.IconSize, l.Gap)
	}
	switch l.Policy {
	case PolicyColumn:
	case PolicyGrid:
		if l.Columns <= 0 {
			return fmt.Errorf("%w: grid layout needs at least one column", ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("%w: unknown layout policy %q", ErrInvalidArgument, l.Policy)
	}
	return nil
}

// Overlaps reports whether icons at a and b would intersect, counting the gap
// margin on both axes.
func (l Layout) Overlaps(a, b Point) bool {
	box := l.IconSize + l.Gap
	return abs(a.X-b.X) < box && abs(a.Y-b.Y) < box
}

// SnapToGrid rounds a raw drop coordinate to the nearest grid cell. Negative
// coordinates are clamped to zero. The column policy pins x to the origin.
func (l Layout) SnapToGrid(x, y float64) Point {
	p := Point{X: l.snap(x), Y: l.snap(y)}
	if l.Policy != PolicyGrid {
		p.X = l.Origin.X
	}
	return p
}

func (l Layout) snap(v float64) int {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	g := float64(l.GridSize)
	return int(math.Floor(v/g+0.5)) * l.GridSize
}

// NextFreePosition returns the first position at or after start that does not
// overlap any of existing. The search only moves forward in GridSize steps
// (downward for the column policy, row-major for the grid policy), so it
// always terminates.
func (l Layout) NextFreePosition(existing []Point, start Point) Point {
	if len(existing) == 0 {
		return start
	}
	p := start
	for l.occupied(existing, p) {
		p = l.advance(p)
	}
	return p
}

func (l Layout) occupied(existing []Point, p Point) bool {
	for _, e := range existing {
		if l.Overlaps(e, p) {
			return true
		}
	}
	return false
}

func (l Layout) advance(p Point) Point {
	if l.Policy != PolicyGrid {
		p.Y += l.GridSize
		return p
	}
	p.X += l.GridSize
	if l.Columns > 0 && p.X >= l.Origin.X+l.Columns*l.GridSize {
		p.X = l.Origin.X
		p.Y += l.GridSize
	}
	return p
}

// CheckPositions reports the first pair of root children whose icons
// overlap under l.
func (l Layout) CheckPositions(root *Entity) error {
	var placed []*Entity
	for _, c := range root.Children {
		if c.Position == nil {
			continue
		}
		for _, o := range placed {
			if l.Overlaps(*o.Position, *c.Position) {
				return fmt.Errorf("%w: %q at %v overlaps %q at %v",
					ErrInvalidArgument, c.ID, *c.Position, o.ID, *o.Position)
			}
		}
		placed = append(placed, c)
	}
	return nil
}

// Arrange returns n gap-free slots starting at the origin.
func (l Layout) Arrange(n int) []Point {
	pitch := l.GridSize + l.Gap
	out := make([]Point, n)
	for i := range out {
		if l.Policy == PolicyGrid && l.Columns > 0 {
			out[i] = Point{X: l.Origin.X + (i%l.Columns)*pitch, Y: l.Origin.Y + (i/l.Columns)*pitch}
			continue
		}
		out[i] = Point{X: l.Origin.X, Y: l.Origin.Y + i*pitch}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
