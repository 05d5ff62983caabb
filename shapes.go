package canvas

// Shape is a closed set of stroke primitives accepted by DrawShape.
// The variants are Rect, Line, Polygon, and Ellipse; external packages
// cannot add new ones.
type Shape interface {
	shape()
}

// Rect is an axis-aligned rectangle shape.
type Rect struct {
	X, Y, W, H float64
}

// Line is a straight segment between two points.
type Line struct {
	X1, Y1 float64
	X2, Y2 float64
}

// Polygon is an open or closed point chain offset by an origin.
type Polygon struct {
	Points []Point
	X, Y   float64
	Closed bool
}

// Ellipse is an axis-aligned ellipse. Equal radii describe a circle.
type Ellipse struct {
	X, Y   float64
	RX, RY float64
}

func (Rect) shape()    {}
func (Line) shape()    {}
func (Polygon) shape() {}
func (Ellipse) shape() {}
