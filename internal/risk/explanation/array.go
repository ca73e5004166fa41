package explanation

import (
	"encoding/json"
	"fmt"
)

// Array is a dense row-major n-dimensional array. A zero Array (nil Shape and
// Data) means "absent"; a scalar has an empty, non-nil Shape.
type Array struct {
	Shape []int
	Data  []float64
}

// Scalar returns a 0-d array holding v.
func Scalar(v float64) Array {
	return Array{Shape: []int{}, Data: []float64{v}}
}

// Vector returns a 1-d array over a copy of v.
func Vector(v []float64) Array {
	data := make([]float64, len(v))
	copy(data, v)
	return Array{Shape: []int{len(v)}, Data: data}
}

// Empty reports whether the array is absent or holds no values.
func (a Array) Empty() bool {
	return len(a.Data) == 0
}

func (a Array) NDim() int {
	return len(a.Shape)
}

// Check reports an error unless Data holds exactly one value per element of
// Shape. A zero Array is absent and always passes.
func (a Array) Check() error {
	if a.Shape == nil && len(a.Data) == 0 {
		return nil
	}
	for _, d := range a.Shape {
		if d < 0 {
			return fmt.Errorf("negative dimension in shape %v", a.Shape)
		}
	}
	if want := product(a.Shape); want != len(a.Data) {
		return fmt.Errorf("shape %v needs %d values, got %d", a.Shape, want, len(a.Data))
	}
	return nil
}

// Take selects index idx along axis, dropping that axis.
func (a Array) Take(axis, idx int) (Array, error) {
	if err := a.Check(); err != nil {
		return Array{}, err
	}
	if axis < 0 || axis >= len(a.Shape) {
		return Array{}, fmt.Errorf("axis %d out of range for shape %v", axis, a.Shape)
	}
	n := a.Shape[axis]
	if idx < 0 || idx >= n {
		return Array{}, fmt.Errorf("index %d out of range for axis %d of shape %v", idx, axis, a.Shape)
	}

	outer := product(a.Shape[:axis])
	inner := product(a.Shape[axis+1:])
	data := make([]float64, 0, outer*inner)
	for o := 0; o < outer; o++ {
		start := (o*n + idx) * inner
		data = append(data, a.Data[start:start+inner]...)
	}

	shape := make([]int, 0, len(a.Shape)-1)
	shape = append(shape, a.Shape[:axis]...)
	shape = append(shape, a.Shape[axis+1:]...)
	return Array{Shape: shape, Data: data}, nil
}

// Split returns the sub-arrays along the first axis.
func (a Array) Split() ([]Array, error) {
	if a.NDim() == 0 {
		return nil, fmt.Errorf("cannot split a scalar")
	}
	out := make([]Array, a.Shape[0])
	for i := range out {
		sub, err := a.Take(0, i)
		if err != nil {
			return nil, err
		}
		out[i] = sub
	}
	return out, nil
}

func (a Array) String() string {
	return fmt.Sprintf("array(shape=%v)", a.Shape)
}

func product(dims []int) int {
	p := 1
	for _, d := range dims {
		p *= d
	}
	return p
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FromNested converts numbers and regular nested slices of numbers into an
// Array. Ragged nesting and non-numeric leaves are rejected.
func FromNested(v interface{}) (Array, error) {
	switch x := v.(type) {
	case Array:
		return x, nil
	case float64:
		return Scalar(x), nil
	case float32:
		return Scalar(float64(x)), nil
	case int:
		return Scalar(float64(x)), nil
	case int64:
		return Scalar(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Array{}, fmt.Errorf("invalid number %q", x.String())
		}
		return Scalar(f), nil
	case []float64:
		return Vector(x), nil
	case [][]float64:
		items := make([]interface{}, len(x))
		for i := range x {
			items[i] = x[i]
		}
		return stack(items)
	case [][][]float64:
		items := make([]interface{}, len(x))
		for i := range x {
			items[i] = x[i]
		}
		return stack(items)
	case []Array:
		items := make([]interface{}, len(x))
		for i := range x {
			items[i] = x[i]
		}
		return stack(items)
	case []interface{}:
		return stack(x)
	default:
		return Array{}, fmt.Errorf("unsupported element type %T", v)
	}
}

func stack(items []interface{}) (Array, error) {
	if len(items) == 0 {
		return Array{Shape: []int{0}, Data: []float64{}}, nil
	}

	var inner []int
	var data []float64
	for i, item := range items {
		sub, err := FromNested(item)
		if err != nil {
			return Array{}, err
		}
		if i == 0 {
			inner = sub.Shape
		} else if !sameShape(inner, sub.Shape) {
			return Array{}, fmt.Errorf("ragged nesting: element %d has shape %v, expected %v", i, sub.Shape, inner)
		}
		data = append(data, sub.Data...)
	}

	shape := append([]int{len(items)}, inner...)
	return Array{Shape: shape, Data: data}, nil
}
