package models

import "fmt"

// Position is the pan/tilt/zoom reported by the camera. Fields keeps every
// line of the reply (iris, focus, autofocus...) as parsed.
type Position struct {
	Pan    float64 `json:"pan"`
	Tilt   float64 `json:"tilt"`
	Zoom   float64 `json:"zoom"`
	Fields Fields  `json:"fields,omitempty"`
}

// Range is the valid interval of one axis.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Limits are the operating bounds reported by query=limits.
type Limits struct {
	Pan  Range `json:"pan"`
	Tilt Range `json:"tilt"`
	Zoom Range `json:"zoom"`
}

// Check returns an error naming the first axis of p outside its range.
// Nothing is clamped.
func (l Limits) Check(p Position) error {
	axes := []struct {
		name string
		v    float64
		r    Range
	}{
		{"pan", p.Pan, l.Pan},
		{"tilt", p.Tilt, l.Tilt},
		{"zoom", p.Zoom, l.Zoom},
	}
	for _, a := range axes {
		if !a.r.Contains(a.v) {
			return fmt.Errorf("%s %g out of range [%g, %g]", a.name, a.v, a.r.Min, a.r.Max)
		}
	}
	return nil
}
