package pitch

// Lattice is an evenly spaced set of integer cents values from Min to Max inclusive
type Lattice struct {
	Min  int `json:"min"`
	Max  int `json:"max"`
	Step int `json:"step"`
}

// Len returns the number of values on the lattice
func (l Lattice) Len() int {
	if l.Step <= 0 || l.Max < l.Min {
		return 0
	}
	return (l.Max-l.Min)/l.Step + 1
}

// At returns the i-th value
func (l Lattice) At(i int) int {
	return l.Min + i*l.Step
}

// Values enumerates the lattice
func (l Lattice) Values() []int {
	out := make([]int, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		out = append(out, l.At(i))
	}
	return out
}

// Shift moves the whole lattice by offset cents
func (l Lattice) Shift(offset int) Lattice {
	return Lattice{Min: l.Min + offset, Max: l.Max + offset, Step: l.Step}
}

// Contains reports whether v lies on the lattice
func (l Lattice) Contains(v int) bool {
	if l.Step <= 0 || v < l.Min || v > l.Max {
		return false
	}
	return (v-l.Min)%l.Step == 0
}

// Random draws a value uniformly from the lattice
func (l Lattice) Random(r interface{ IntN(int) int }) int {
	return l.At(r.IntN(l.Len()))
}
