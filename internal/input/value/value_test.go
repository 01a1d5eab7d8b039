package value

import (
	"math"
	"testing"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		dim  Dim
		want Value
	}{
		{"bool true to 1d", Bool(true), DimAxis1D, Axis1D(1)},
		{"bool false to 1d", Bool(false), DimAxis1D, Axis1D(0)},
		{"bool true to 2d", Bool(true), DimAxis2D, Axis2D(1, 0)},
		{"1d to bool", Axis1D(-0.3), DimBool, Bool(true)},
		{"1d zero to bool", Axis1D(0), DimBool, Bool(false)},
		{"1d to 2d pads", Axis1D(0.5), DimAxis2D, Axis2D(0.5, 0)},
		{"1d to 3d pads", Axis1D(0.5), DimAxis3D, Axis3D(0.5, 0, 0)},
		{"2d to 1d keeps x", Axis2D(0.2, 0.7), DimAxis1D, Axis1D(0.2)},
		{"3d to 2d drops z", Axis3D(1, 2, 3), DimAxis2D, Axis2D(1, 2)},
		{"2d to 3d pads z", Axis2D(1, 2), DimAxis3D, Axis3D(1, 2, 0)},
		{"2d y only to bool", Axis2D(0, 1), DimBool, Bool(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Convert(tt.dim)
			if got != tt.want {
				t.Errorf("Convert(%v) = %v, want %v", tt.dim, got, tt.want)
			}
		})
	}
}

func TestConvertRoundTrip(t *testing.T) {
	// Values already representable in the narrower dimension survive a
	// widen-then-narrow round trip unchanged.
	values := []Value{
		Bool(true), Bool(false),
		Axis1D(0.25), Axis1D(-1),
		Axis2D(0.5, -0.5),
		Axis3D(1, 2, 3),
	}
	dims := []Dim{DimBool, DimAxis1D, DimAxis2D, DimAxis3D}

	for _, v := range values {
		for _, wide := range dims {
			if wide < v.Dim() {
				continue
			}
			back := v.Convert(wide).Convert(v.Dim())
			if back != v {
				t.Errorf("%v -> %v -> %v = %v, want %v", v, wide, v.Dim(), back, v)
			}
		}
	}
}

func TestArithmeticCommutesWithNarrowing(t *testing.T) {
	v := Axis3D(0.4, -0.8, 0.2)
	factor := Vec3{2, 3, 4}
	min := Splat(-0.5)
	max := Splat(0.5)

	for _, dim := range []Dim{DimAxis1D, DimAxis2D, DimAxis3D} {
		if got, want := v.Scale(factor).Convert(dim), v.Convert(dim).Scale(factor); got != want {
			t.Errorf("scale then convert %v = %v, want %v", dim, got, want)
		}
		if got, want := v.Negate(true, true, true).Convert(dim), v.Convert(dim).Negate(true, true, true); got != want {
			t.Errorf("negate then convert %v = %v, want %v", dim, got, want)
		}
		if got, want := v.Clamp(min, max).Convert(dim), v.Convert(dim).Clamp(min, max); got != want {
			t.Errorf("clamp then convert %v = %v, want %v", dim, got, want)
		}
	}
}

func TestBoolArithmeticPromotes(t *testing.T) {
	got := Bool(true).Scale(Splat(0.5))
	if got.Dim() != DimAxis1D {
		t.Fatalf("Dim() = %v, want %v", got.Dim(), DimAxis1D)
	}
	if got.AsAxis1D() != 0.5 {
		t.Errorf("AsAxis1D() = %v, want 0.5", got.AsAxis1D())
	}
}

func TestAdd(t *testing.T) {
	got := Axis2D(0.5, 0).Add(Axis1D(0.25))
	if want := Axis2D(0.75, 0); got != want {
		t.Errorf("Add = %v, want %v", got, want)
	}
}

func TestIsActuated(t *testing.T) {
	if !Axis1D(0.5).IsActuated(0.5) {
		t.Error("0.5 should be actuated at threshold 0.5")
	}
	if Axis1D(0.49).IsActuated(0.5) {
		t.Error("0.49 should not be actuated at threshold 0.5")
	}
	if !Axis2D(0.4, 0.4).IsActuated(0.5) {
		t.Error("(0.4, 0.4) has length > 0.5 and should be actuated")
	}
	if !Bool(true).IsActuated(0.5) {
		t.Error("true should be actuated")
	}
}

func TestSanitize(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	got := Axis3D(nan, inf, -inf).Sanitize()
	want := Axis3D(0, math.MaxFloat32, -math.MaxFloat32)
	if got != want {
		t.Errorf("Sanitize() = %v, want %v", got, want)
	}
	if !got.IsFinite() {
		t.Error("sanitized value should be finite")
	}
}

func TestParseDim(t *testing.T) {
	for _, s := range []string{"bool", "axis1d", "axis2d", "axis3d"} {
		d, err := ParseDim(s)
		if err != nil {
			t.Fatalf("ParseDim(%q) error: %v", s, err)
		}
		if d.String() != s {
			t.Errorf("ParseDim(%q).String() = %q", s, d.String())
		}
	}
	if _, err := ParseDim("vec4"); err == nil {
		t.Error("expected error for unknown dimension")
	}
}
