package layout

import "fmt"

// Hand is the left or right hand.
type Hand int

// Hands.
const (
	LeftHand Hand = iota
	RightHand
)

// String implements fmt.Stringer.
func (h Hand) String() string {
	if h == RightHand {
		return "right"
	}
	return "left"
}

// Finger is one of the ten finger accumulators. Fingers 0..4 are the left
// thumb..pinky, 5..9 the right thumb..pinky.
type Finger int

// Fingers.
const (
	F1L Finger = iota
	F2L
	F3L
	F4L
	F5L
	F1R
	F2R
	F3R
	F4R
	F5R

	// FingerCount is the number of fingers.
	FingerCount = 10
)

// NoFinger marks a pair that could not be scored.
const NoFinger Finger = -1

// Fingers lists every finger in accumulator order.
func Fingers() []Finger {
	return []Finger{F1L, F2L, F3L, F4L, F5L, F1R, F2R, F3R, F4R, F5R}
}

// FingerOf returns the finger with digit n (1 = thumb .. 5 = pinky) on hand h.
func FingerOf(h Hand, n int) Finger {
	if n < 1 || n > 5 {
		return NoFinger
	}
	return Finger(int(h)*5 + n - 1)
}

// Valid reports whether f is one of the ten fingers.
func (f Finger) Valid() bool {
	return f >= F1L && f <= F5R
}

// Hand returns the hand that owns f.
func (f Finger) Hand() Hand {
	if f >= F1R {
		return RightHand
	}
	return LeftHand
}

// Digit returns 1 for the thumb through 5 for the pinky.
func (f Finger) Digit() int {
	return int(f)%5 + 1
}

// String returns the short identifier, e.g. "f2l", or "N/A".
func (f Finger) String() string {
	if !f.Valid() {
		return "N/A"
	}
	side := "l"
	if f.Hand() == RightHand {
		side = "r"
	}
	return fmt.Sprintf("f%d%s", f.Digit(), side)
}

var fingerLabels = [FingerCount]string{
	"Left thumb", "Left index", "Left middle", "Left ring", "Left pinky",
	"Right thumb", "Right index", "Right middle", "Right ring", "Right pinky",
}

// Label returns a readable finger name.
func (f Finger) Label() string {
	if !f.Valid() {
		return "N/A"
	}
	return fingerLabels[f]
}

// ParseFinger parses identifiers like "f3r".
func ParseFinger(s string) (Finger, error) {
	for _, f := range Fingers() {
		if f.String() == s {
			return f, nil
		}
	}
	return NoFinger, fmt.Errorf("unknown finger %q", s)
}

// ForColumn maps a key column to the finger that serves it. Columns outside
// 0..12 fall back to the left thumb.
func ForColumn(column int) Finger {
	switch column {
	case 0, 1:
		return F5L
	case 2:
		return F4L
	case 3:
		return F3L
	case 4, 5:
		return F2L
	case 6, 7:
		return F2R
	case 8:
		return F3R
	case 9:
		return F4R
	case 10, 11, 12:
		return F5R
	default:
		return F1L
	}
}
