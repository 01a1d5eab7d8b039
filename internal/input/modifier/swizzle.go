package modifier

import (
	"fmt"
	"strings"

	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

// SwizzleOrder names the source axis for each output axis.
type SwizzleOrder uint8

const (
	YXZ SwizzleOrder = iota
	ZYX
	XZY
	YZX
	ZXY
	XXY
	XXZ
	YYX
	YYZ
	ZZX
	ZZY
	XXX
	YYY
	ZZZ
)

var swizzleNames = [...]string{
	YXZ: "YXZ", ZYX: "ZYX", XZY: "XZY", YZX: "YZX", ZXY: "ZXY",
	XXY: "XXY", XXZ: "XXZ", YYX: "YYX", YYZ: "YYZ", ZZX: "ZZX",
	ZZY: "ZZY", XXX: "XXX", YYY: "YYY", ZZZ: "ZZZ",
}

// String returns the order name such as "YXZ".
func (o SwizzleOrder) String() string {
	if int(o) < len(swizzleNames) {
		return swizzleNames[o]
	}
	return "unknown"
}

// ParseSwizzleOrder parses an order name (case-insensitive).
func ParseSwizzleOrder(s string) (SwizzleOrder, error) {
	for i, n := range swizzleNames {
		if strings.EqualFold(n, s) {
			return SwizzleOrder(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown swizzle order %q", ErrInvalidModifier, s)
}

// sources returns the source axis index for each output axis.
func (o SwizzleOrder) sources() [3]int {
	var src [3]int
	for i, c := range o.String() {
		src[i] = int(c - 'X')
	}
	return src
}

// SwizzleAxis reorders axes. Output axes sourced from axes the input
// does not carry read zero.
//
// The result widens to the smallest dimension that holds every output axis
// sourced from an axis the input carries, so a 1D value swizzled with YXZ
// becomes the 2D value (0, x).
type SwizzleAxis struct {
	Order SwizzleOrder
}

func (m *SwizzleAxis) Name() string { return "swizzle_axis" }

// Transform implements Modifier.
func (m *SwizzleAxis) Transform(_ state.Peers, _ state.Time, v value.Value) value.Value {
	in := v.Vec().Array()
	var out [3]float32
	for i, s := range m.Order.sources() {
		out[i] = in[s]
	}
	dim, _ := m.OutputDim(v.Dim())
	return value.FromVec(dim, value.VecFromArray(out))
}

// OutputDim implements Shaper.
func (m *SwizzleAxis) OutputDim(in value.Dim) (value.Dim, error) {
	if int(m.Order) >= len(swizzleNames) {
		return in, fmt.Errorf("%w: unknown swizzle order %d", ErrInvalidModifier, m.Order)
	}
	dim := arith(in)
	carried := dim.Axes()
	for i, s := range m.Order.sources() {
		if s < carried && i+1 > dim.Axes() {
			dim = dimForAxes(i + 1)
		}
	}
	return dim, nil
}

func dimForAxes(n int) value.Dim {
	switch n {
	case 1:
		return value.DimAxis1D
	case 2:
		return value.DimAxis2D
	default:
		return value.DimAxis3D
	}
}
