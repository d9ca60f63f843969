package models

type Color string

const (
	ColorGreen Color = "green"
	ColorRed   Color = "red"
	ColorBlack Color = "black"
)

// redNumbers is the published European wheel coloring. Everything in 1-36
// that is not red is black; 0 is green.
var redNumbers = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true,
	14: true, 16: true, 18: true, 19: true, 21: true, 23: true,
	25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

func ColorOf(n int) Color {
	switch {
	case n == 0:
		return ColorGreen
	case redNumbers[n]:
		return ColorRed
	default:
		return ColorBlack
	}
}

// ColumnOf returns the table column (1..3) for n, or 0 for the zero.
func ColumnOf(n int) int {
	if n < 1 || n > 36 {
		return 0
	}
	return (n-1)%3 + 1
}

// DozenOf returns the dozen (1..3) for n, or 0 for the zero.
func DozenOf(n int) int {
	if n < 1 || n > 36 {
		return 0
	}
	return (n-1)/12 + 1
}

// ValidNumber reports whether n is a pocket on the wheel.
func ValidNumber(n int) bool {
	return n >= 0 && n <= 36
}
