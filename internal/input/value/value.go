// Package value provides the dimension-aware numeric type carried by raw
// inputs and actions.
package value

import (
	"fmt"
	"math"
)

// Dim is the dimension of a Value.
type Dim uint8

const (
	// DimBool is a digital on/off value.
	DimBool Dim = iota
	// DimAxis1D is a single float axis.
	DimAxis1D
	// DimAxis2D is a pair of float axes.
	DimAxis2D
	// DimAxis3D is a triple of float axes.
	DimAxis3D
)

// String returns a string representation of the dimension.
func (d Dim) String() string {
	switch d {
	case DimBool:
		return "bool"
	case DimAxis1D:
		return "axis1d"
	case DimAxis2D:
		return "axis2d"
	case DimAxis3D:
		return "axis3d"
	default:
		return "unknown"
	}
}

// Axes returns the number of float axes the dimension carries.
// Bool counts as one axis.
func (d Dim) Axes() int {
	switch d {
	case DimAxis2D:
		return 2
	case DimAxis3D:
		return 3
	default:
		return 1
	}
}

// ParseDim parses a dimension name.
func ParseDim(s string) (Dim, error) {
	switch s {
	case "bool", "Bool", "digital":
		return DimBool, nil
	case "axis1d", "Axis1D", "1d", "f32", "float":
		return DimAxis1D, nil
	case "axis2d", "Axis2D", "2d", "vec2":
		return DimAxis2D, nil
	case "axis3d", "Axis3D", "3d", "vec3":
		return DimAxis3D, nil
	default:
		return DimBool, fmt.Errorf("unknown dimension %q", s)
	}
}

// Vec3 is a three-component float vector.
type Vec3 struct {
	X, Y, Z float32
}

// Splat returns a vector with all components set to v.
func Splat(v float32) Vec3 {
	return Vec3{v, v, v}
}

// Add returns the componentwise sum.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns the componentwise difference.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Mul returns the componentwise product.
func (v Vec3) Mul(o Vec3) Vec3 {
	return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z}
}

// MulScalar multiplies every component by s.
func (v Vec3) MulScalar(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// LengthSquared returns the squared euclidean length.
func (v Vec3) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Length returns the euclidean length.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.LengthSquared())))
}

// NormalizeOrZero returns the unit vector in the direction of v, or zero.
func (v Vec3) NormalizeOrZero() Vec3 {
	l := v.Length()
	if l == 0 || isNonFinite(l) {
		return Vec3{}
	}
	return v.MulScalar(1 / l)
}

// DistanceSquared returns the squared distance between v and o.
func (v Vec3) DistanceSquared(o Vec3) float32 {
	return v.Sub(o).LengthSquared()
}

// Array returns the components as an array.
func (v Vec3) Array() [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

// VecFromArray builds a vector from an array.
func VecFromArray(a [3]float32) Vec3 {
	return Vec3{a[0], a[1], a[2]}
}

// Value is a tagged numeric value: Bool, Axis1D, Axis2D or Axis3D.
// Components beyond the value's dimension are always zero.
type Value struct {
	dim Dim
	vec Vec3
}

// Bool creates a digital value.
func Bool(b bool) Value {
	if b {
		return Value{dim: DimBool, vec: Vec3{X: 1}}
	}
	return Value{dim: DimBool}
}

// Axis1D creates a one-dimensional value.
func Axis1D(x float32) Value {
	return Value{dim: DimAxis1D, vec: Vec3{X: x}}
}

// Axis2D creates a two-dimensional value.
func Axis2D(x, y float32) Value {
	return Value{dim: DimAxis2D, vec: Vec3{X: x, Y: y}}
}

// Axis3D creates a three-dimensional value.
func Axis3D(x, y, z float32) Value {
	return Value{dim: DimAxis3D, vec: Vec3{X: x, Y: y, Z: z}}
}

// Zero returns the zero value for a dimension.
func Zero(dim Dim) Value {
	return Value{dim: dim}
}

// FromVec builds a value of the given dimension from a 3D vector,
// dropping the axes the dimension does not carry.
func FromVec(dim Dim, v Vec3) Value {
	return Axis3D(v.X, v.Y, v.Z).Convert(dim)
}

// Dim returns the dimension of the value.
func (v Value) Dim() Dim {
	return v.dim
}

// Convert converts the value to another dimension.
// Widening pads new axes with zero, narrowing drops trailing axes.
func (v Value) Convert(dim Dim) Value {
	switch dim {
	case DimBool:
		return Bool(v.AsBool())
	case DimAxis1D:
		return Axis1D(v.vec.X)
	case DimAxis2D:
		return Axis2D(v.vec.X, v.vec.Y)
	default:
		return Axis3D(v.vec.X, v.vec.Y, v.vec.Z)
	}
}

// AsBool returns true if any axis is non-zero.
func (v Value) AsBool() bool {
	return v.vec != Vec3{}
}

// AsAxis1D returns the X axis.
func (v Value) AsAxis1D() float32 {
	return v.vec.X
}

// AsAxis2D returns the X and Y axes.
func (v Value) AsAxis2D() (x, y float32) {
	return v.vec.X, v.vec.Y
}

// Vec returns the value as a 3D vector.
func (v Value) Vec() Vec3 {
	return v.vec
}

// IsZero returns true if the value is the zero value of its dimension.
func (v Value) IsZero() bool {
	return !v.AsBool()
}

// LengthSquared returns the squared magnitude of the value.
func (v Value) LengthSquared() float32 {
	return v.vec.LengthSquared()
}

// Length returns the magnitude of the value.
func (v Value) Length() float32 {
	return v.vec.Length()
}

// IsActuated reports whether the magnitude reaches the threshold.
func (v Value) IsActuated(threshold float32) bool {
	return v.LengthSquared() >= threshold*threshold
}

// arith returns the dimension arithmetic is performed in.
// Bool values are treated as their Axis1D form.
func (v Value) arith() Dim {
	if v.dim == DimBool {
		return DimAxis1D
	}
	return v.dim
}

// Add adds o, converted to v's dimension, componentwise.
func (v Value) Add(o Value) Value {
	dim := v.arith()
	return FromVec(dim, v.vec.Add(o.Convert(dim).vec))
}

// Scale multiplies each axis by the matching factor component.
func (v Value) Scale(factor Vec3) Value {
	return FromVec(v.arith(), v.vec.Mul(factor))
}

// Negate flips the sign of the selected axes.
func (v Value) Negate(x, y, z bool) Value {
	vec := v.vec
	if x {
		vec.X = -vec.X
	}
	if y {
		vec.Y = -vec.Y
	}
	if z {
		vec.Z = -vec.Z
	}
	return FromVec(v.arith(), vec)
}

// Clamp restricts each axis to [min, max] of the matching component.
func (v Value) Clamp(min, max Vec3) Value {
	vec := Vec3{
		X: clamp(v.vec.X, min.X, max.X),
		Y: clamp(v.vec.Y, min.Y, max.Y),
		Z: clamp(v.vec.Z, min.Z, max.Z),
	}
	return FromVec(v.arith(), vec)
}

// Sanitize replaces NaN with zero and infinities with the largest finite
// float of the same sign.
func (v Value) Sanitize() Value {
	if v.dim == DimBool {
		return v
	}
	return FromVec(v.dim, Vec3{finite(v.vec.X), finite(v.vec.Y), finite(v.vec.Z)})
}

// IsFinite reports whether every axis is a finite number.
func (v Value) IsFinite() bool {
	return !isNonFinite(v.vec.X) && !isNonFinite(v.vec.Y) && !isNonFinite(v.vec.Z)
}

// String returns a string representation of the value.
func (v Value) String() string {
	switch v.dim {
	case DimBool:
		return fmt.Sprintf("Bool(%t)", v.AsBool())
	case DimAxis1D:
		return fmt.Sprintf("Axis1D(%g)", v.vec.X)
	case DimAxis2D:
		return fmt.Sprintf("Axis2D(%g, %g)", v.vec.X, v.vec.Y)
	default:
		return fmt.Sprintf("Axis3D(%g, %g, %g)", v.vec.X, v.vec.Y, v.vec.Z)
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(f float32) float32 {
	switch {
	case math.IsNaN(float64(f)):
		return 0
	case math.IsInf(float64(f), 1):
		return math.MaxFloat32
	case math.IsInf(float64(f), -1):
		return -math.MaxFloat32
	default:
		return f
	}
}

func isNonFinite(f float32) bool {
	return math.IsNaN(float64(f)) || math.IsInf(float64(f), 0)
}
