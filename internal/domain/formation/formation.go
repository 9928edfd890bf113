// Package formation holds the field layout of every supported formation.
package formation

import "sort"

// Default is used for unknown or empty formation names.
const Default = "4-4-2"

// Slot is one position on the pitch. X and Y are percentages of the field.
type Slot struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Position string `json:"position"`
}

func s(x, y int, pos string) Slot { return Slot{X: x, Y: y, Position: pos} }

var back4 = []Slot{s(5, 50, "Goleiro"), s(20, 15, "Lateral E"), s(20, 40, "Zagueiro"), s(20, 60, "Zagueiro"), s(20, 85, "Lateral D")}

func withBack4(rest ...Slot) []Slot {
	out := make([]Slot, 0, 11)
	out = append(out, back4...)
	return append(out, rest...)
}

var layouts = map[string][]Slot{
	"4-4-2": withBack4(
		s(45, 20, "Meia"), s(45, 50, "Meia"), s(45, 80, "Meia"),
		s(75, 35, "Atacante"), s(75, 65, "Atacante"), s(90, 50, "Meia Ofensivo"),
	),
	"4-3-3": withBack4(
		s(45, 30, "Meia"), s(45, 50, "Meia"), s(45, 70, "Meia"),
		s(80, 25, "Atacante"), s(80, 50, "Atacante"), s(80, 75, "Atacante"),
	),
	"4-5-1": withBack4(
		s(45, 15, "Meia"), s(45, 35, "Meia"), s(45, 50, "Meia"), s(45, 65, "Meia"), s(45, 85, "Meia"),
		s(85, 50, "Atacante"),
	),
	"3-5-2": {
		s(5, 50, "Goleiro"), s(20, 30, "Zagueiro"), s(20, 50, "Zagueiro"), s(20, 70, "Zagueiro"),
		s(45, 10, "Lateral E"), s(45, 35, "Meia"), s(45, 50, "Meia"), s(45, 65, "Meia"), s(45, 90, "Lateral D"),
		s(80, 35, "Atacante"), s(80, 65, "Atacante"),
	},
	"3-4-3": {
		s(5, 50, "Goleiro"), s(20, 30, "Zagueiro"), s(20, 50, "Zagueiro"), s(20, 70, "Zagueiro"),
		s(45, 20, "Lateral E"), s(45, 50, "Meia"), s(45, 80, "Lateral D"), s(65, 50, "Meia Ofensivo"),
		s(85, 25, "Atacante"), s(85, 50, "Atacante"), s(85, 75, "Atacante"),
	},
	"5-3-2": {
		s(5, 50, "Goleiro"), s(20, 10, "Lateral E"), s(20, 35, "Zagueiro"), s(20, 50, "Zagueiro"), s(20, 65, "Zagueiro"), s(20, 90, "Lateral D"),
		s(45, 30, "Meia"), s(45, 50, "Meia"), s(45, 70, "Meia"),
		s(80, 35, "Atacante"), s(80, 65, "Atacante"),
	},
	"4-2-3-1": withBack4(
		s(40, 40, "Volante"), s(40, 60, "Volante"),
		s(60, 25, "Meia Ofensivo"), s(60, 50, "Meia Ofensivo"), s(60, 75, "Meia Ofensivo"),
		s(90, 50, "Atacante"),
	),
	"4-1-4-1": withBack4(
		s(35, 50, "Volante"),
		s(55, 20, "Meia"), s(55, 40, "Meia"), s(55, 60, "Meia"), s(55, 80, "Meia"),
		s(90, 50, "Atacante"),
	),
}

// Slots returns a copy of the eleven slots of the named formation, falling
// back to Default for unknown names.
func Slots(name string) []Slot {
	l, ok := layouts[name]
	if !ok {
		l = layouts[Default]
	}
	out := make([]Slot, len(l))
	copy(out, l)
	return out
}

// Known reports whether name is a supported formation.
func Known(name string) bool {
	_, ok := layouts[name]
	return ok
}

// Names returns the supported formations sorted by name.
func Names() []string {
	names := make([]string, 0, len(layouts))
	for n := range layouts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
