package mandelbrot

import "fmt"

// Limit is the iteration cap used for rendering. Every escape count stays below it so it fits in a byte.
const Limit = 255

// Escape is the result of EscapeTime. A point either escaped after some number of iterations or stayed bounded.
type Escape struct {
	count   int
	escaped bool
}

func Escaped(count int) Escape {
	return Escape{count: count, escaped: true}
}

func Bounded() Escape {
	return Escape{}
}

// Count returns the iteration the point escaped on. ok is false when the point never escaped.
func (e Escape) Count() (count int, ok bool) {
	return e.count, e.escaped
}

func (e Escape) String() string {
	if !e.escaped {
		return "bounded"
	}
	return fmt.Sprintf("escaped(%d)", e.count)
}

// EscapeTime iterates z = z*z + c from z = 0 and reports the first iteration where |z|^2 > 4.
// The bailout check runs before each update, so the very first check is always against z = 0.
// https://en.wikipedia.org/wiki/Plotting_algorithms_for_the_Mandelbrot_set#Unoptimized_na%C3%AFve_escape_time_algorithm
func EscapeTime(c complex128, limit int) Escape {
	var z complex128
	for i := 0; i < limit; i++ {
		if real(z)*real(z)+imag(z)*imag(z) > 4.0 {
			return Escaped(i)
		}
		z = z*z + c
	}
	return Bounded()
}
