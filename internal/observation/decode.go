package observation

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/danielpatrickdp/track-reward/internal/geometry"
)

// decoder reads typed values out of a params mapping and keeps the first error.
// Absent or null keys decode to zero values; FromParams rejects both for required keys.
type decoder struct {
	params map[string]any
	err    error
}

func (d *decoder) fail(key string, v any, want string) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %s: expected %s, got %T", ErrInvalidValue, key, want, v)
	}
}

func (d *decoder) float(key string) float64 {
	v, ok := d.params[key]
	if !ok || v == nil {
		return 0
	}
	f, ok := toFloat(v)
	if !ok {
		d.fail(key, v, "number")
	}
	return f
}

func (d *decoder) integer(key string) int {
	v, ok := d.params[key]
	if !ok || v == nil {
		return 0
	}
	n, ok := toInt(v)
	if !ok {
		d.fail(key, v, "integer")
	}
	return n
}

func (d *decoder) boolean(key string) bool {
	v, ok := d.params[key]
	if !ok || v == nil {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		d.fail(key, v, "bool")
	}
	return b
}

func (d *decoder) indexPair(key string) [2]int {
	v, ok := d.params[key]
	if !ok || v == nil {
		return [2]int{}
	}
	switch pair := v.(type) {
	case [2]int:
		return pair
	case []int:
		if len(pair) == 2 {
			return [2]int{pair[0], pair[1]}
		}
	case []any:
		if len(pair) == 2 {
			a, okA := toInt(pair[0])
			b, okB := toInt(pair[1])
			if okA && okB {
				return [2]int{a, b}
			}
		}
	}
	d.fail(key, v, "pair of integers")
	return [2]int{}
}

func (d *decoder) floats(key string) []float64 {
	v, ok := d.params[key]
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []float64:
		return list
	case []any:
		out := make([]float64, len(list))
		for i, e := range list {
			f, ok := toFloat(e)
			if !ok {
				d.fail(key, e, "number list")
				return nil
			}
			out[i] = f
		}
		return out
	}
	d.fail(key, v, "number list")
	return nil
}

func (d *decoder) booleans(key string) []bool {
	v, ok := d.params[key]
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []bool:
		return list
	case []any:
		out := make([]bool, len(list))
		for i, e := range list {
			b, ok := e.(bool)
			if !ok {
				d.fail(key, e, "bool list")
				return nil
			}
			out[i] = b
		}
		return out
	}
	d.fail(key, v, "bool list")
	return nil
}

func (d *decoder) points(key string) []geometry.Point {
	v, ok := d.params[key]
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []geometry.Point:
		return list
	case []any:
		out := make([]geometry.Point, len(list))
		for i, e := range list {
			p, ok := toPoint(e)
			if !ok {
				d.fail(key, e, "list of (x, y)")
				return nil
			}
			out[i] = p
		}
		return out
	}
	d.fail(key, v, "list of (x, y)")
	return nil
}

func toPoint(v any) (geometry.Point, bool) {
	switch p := v.(type) {
	case geometry.Point:
		return p, true
	case [2]float64:
		return geometry.Point(p), true
	case []float64:
		if len(p) == 2 {
			return geometry.Point{p[0], p[1]}, true
		}
	case []any:
		if len(p) == 2 {
			x, okX := toFloat(p[0])
			y, okY := toFloat(p[1])
			if okX && okY {
				return geometry.Point{x, y}, true
			}
		}
	}
	return geometry.Point{}, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// toInt accepts integral floats because JSON and structpb carry all numbers as float64.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}
