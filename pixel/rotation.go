package pixel

// Rotation defines pixel rotation.
type Rotation uint8

// Supported rotations.
const (
	NoRotation Rotation = iota
	Rotate90            // Rotate 90° clock wise
	Rotate180           // Rotate 180°
	Rotate270           // Rotate 270° clock wise
)

func (r Rotation) String() string {
	switch r % 4 {
	case Rotate90:
		return "90°"
	case Rotate180:
		return "180°"
	case Rotate270:
		return "270°"
	default:
		return "0°"
	}
}

// swapsAxes reports if the logical width is the physical height.
func (r Rotation) swapsAxes() bool {
	return r%4 == Rotate90 || r%4 == Rotate270
}

// transform maps logical (x, y) to physical (px, py) on a w×h panel.
func (r Rotation) transform(x, y, w, h int) (px, py int) {
	switch r % 4 {
	case Rotate90:
		return w - 1 - y, x
	case Rotate180:
		return w - 1 - x, h - 1 - y
	case Rotate270:
		return y, h - 1 - x
	default:
		return x, y
	}
}
