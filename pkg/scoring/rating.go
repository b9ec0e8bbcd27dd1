// Package scoring derives normalized 1-5 protection scores from raw factor
// ratings. Every function here is pure and safe for concurrent use.
package scoring

import (
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Rating is a 1-5 quality score for a single factor; 1 is critical, 5 is
// best. Unknown (the zero value) marks an absent rating.
type Rating int

const (
	Unknown   Rating = 0
	MinRating Rating = 1
	MaxRating Rating = 5
)

// NewRating converts an integer to a Rating. Values outside 1-5 are treated
// as absent rather than rejected.
func NewRating(v int) Rating {
	if v < int(MinRating) || v > int(MaxRating) {
		return Unknown
	}
	return Rating(v)
}

// Known reports whether r carries an actual rating.
func (r Rating) Known() bool {
	return r >= MinRating && r <= MaxRating
}

// Ptr returns the rating as *int for wire formats, nil when absent.
func (r Rating) Ptr() *int {
	if !r.Known() {
		return nil
	}
	v := int(r)
	return &v
}

func (r Rating) String() string {
	if !r.Known() {
		return "unknown"
	}
	return fmt.Sprintf("%d", int(r))
}

// MarshalJSON encodes absent ratings as null.
func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.Known() {
		return []byte("null"), nil
	}
	return json.Marshal(int(r))
}

// UnmarshalJSON accepts null, integers and integral floats. Anything else
// outside 1-5 decodes to Unknown.
func (r *Rating) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("rating: %w", err)
	}
	*r = fromFloat(v)
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML survey files.
func (r *Rating) UnmarshalYAML(node *yaml.Node) error {
	var v *float64
	if err := node.Decode(&v); err != nil {
		return fmt.Errorf("rating: %w", err)
	}
	*r = fromFloat(v)
	return nil
}

func fromFloat(v *float64) Rating {
	if v == nil || *v != math.Trunc(*v) {
		return Unknown
	}
	return NewRating(int(*v))
}

// RoundHalfUp rounds x to the nearest integer with halves rounded up, so
// 2.5 becomes 3. A small tolerance absorbs floating point noise from the
// weighted sums, e.g. 2.4999999999 from a value that is exactly 2.5.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5 + 1e-9))
}

// clampRating rounds raw half-up and clamps it into [1,5].
func clampRating(raw float64) Rating {
	v := RoundHalfUp(raw)
	if v < int(MinRating) {
		v = int(MinRating)
	}
	if v > int(MaxRating) {
		v = int(MaxRating)
	}
	return Rating(v)
}
