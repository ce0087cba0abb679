package dice

// Fixed is a Source that replays pre-chosen die faces in order and wraps
// around when exhausted. Faces are 1-based, as they would appear on a d6.
// Used for replays and scripted tests.
type Fixed struct {
	faces []int
	pos   int
}

// NewFixed returns a roller that yields faces in order.
func NewFixed(faces ...int) *Roller {
	return New(&Fixed{faces: faces})
}

// Intn returns the next face minus one, clamped into [0, n).
func (f *Fixed) Intn(n int) int {
	if len(f.faces) == 0 || n <= 0 {
		return 0
	}
	v := f.faces[f.pos%len(f.faces)] - 1
	f.pos++
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
