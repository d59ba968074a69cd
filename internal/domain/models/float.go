package models

import (
	"bytes"
	"encoding/json"
	"math"
)

// Float is an optional number. NaN and infinities mean undefined and encode as JSON null.
type Float float64

// Undefined returns the undefined Float.
func Undefined() Float { return Float(math.NaN()) }

// Defined reports whether f holds a usable number.
func (f Float) Defined() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

func (f *Float) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*f = Undefined()
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}
