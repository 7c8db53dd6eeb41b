package viewport

// gesture is the in-progress pointer or touch interaction. A nil gesture
// means no session is open; pan and pinch can never be open together.
type gesture interface {
	isGesture()
}

type panSession struct {
	origin  Point
	basePan Point
}

type pinchSession struct {
	baseDistance float64
	baseZoom     float64
}

func (panSession) isGesture()   {}
func (pinchSession) isGesture() {}
