package records

import "math"

// RK value flag bits.
const (
	rkDiv100 = 0x01
	rkInt    = 0x02
)

// Integer RK values are 30-bit signed.
const (
	rkIntMin = -(1 << 29)
	rkIntMax = 1<<29 - 1
)

// DecodeRK converts an RK-encoded number to a float64.  Bit 1 selects a
// 30-bit signed integer instead of the high 30 bits of a double; bit 0
// divides the result by 100.
func DecodeRK(rk uint32) float64 {
	var v float64
	if rk&rkInt != 0 {
		v = float64(int32(rk) >> 2)
	} else {
		v = math.Float64frombits(uint64(rk&^0x03) << 32)
	}
	if rk&rkDiv100 != 0 {
		v /= 100
	}
	return v
}

// EncodeRK returns the RK encoding of v, or false when v cannot be
// represented exactly.
func EncodeRK(v float64) (uint32, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	candidates := make([]uint32, 0, 4)
	if v == math.Trunc(v) && v >= rkIntMin && v <= rkIntMax {
		candidates = append(candidates, uint32(int32(v))<<2|rkInt)
	}
	if h := v * 100; h == math.Trunc(h) && h >= rkIntMin && h <= rkIntMax {
		candidates = append(candidates, uint32(int32(h))<<2|rkInt|rkDiv100)
	}
	if bits := math.Float64bits(v); bits&0x3_FFFF_FFFF == 0 {
		candidates = append(candidates, uint32(bits>>32))
	}
	if bits := math.Float64bits(v * 100); bits&0x3_FFFF_FFFF == 0 {
		candidates = append(candidates, uint32(bits>>32)|rkDiv100)
	}
	for _, c := range candidates {
		if DecodeRK(c) == v {
			return c, true
		}
	}
	return 0, false
}
