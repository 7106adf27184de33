package models

import (
	"encoding/json"
	"strconv"
)

// Value is one parsed value of a name=value reply: a number when the text
// parses as a float, the trimmed text otherwise.
type Value struct {
	num     float64
	str     string
	numeric bool
}

func Number(f float64) Value { return Value{num: f, str: strconv.FormatFloat(f, 'g', -1, 64), numeric: true} }

func Text(s string) Value { return Value{str: s} }

// Float returns the numeric value and whether there is one.
func (v Value) Float() (float64, bool) { return v.num, v.numeric }

func (v Value) IsNumber() bool { return v.numeric }

func (v Value) String() string { return v.str }

func (v Value) MarshalJSON() ([]byte, error) {
	if v.numeric {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.str)
}

// Fields maps a reply's names to their values.
type Fields map[string]Value
