package tensor

import "math"

// Float32ToFloat16 converts a float32 to IEEE half-precision bits.
// Subnormal results flush to zero; values beyond the f16 range saturate
// to infinity.
func Float32ToFloat16(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 31) & 0x1)
	exp := int16((bits >> 23) & 0xFF)
	mant := bits & 0x7FFFFF

	var outExp, outMant uint16
	switch exp {
	case 0:
		// Zero and float32 subnormals both flush to signed zero.
		return sign << 15
	case 0xFF:
		outExp = 0x1F
		if mant != 0 {
			outMant = 0x200
		}
	default:
		newExp := exp - 127 + 15
		switch {
		case newExp >= 31:
			outExp = 0x1F
		case newExp <= 0:
			outExp = 0
		default:
			outExp = uint16(newExp)
			outMant = uint16(mant >> 13)
		}
	}
	return (sign << 15) | (outExp << 10) | outMant
}

// Float16ToFloat32 converts IEEE half-precision bits to a float32.
func Float16ToFloat32(h uint16) float32 {
	sign := uint32((h >> 15) & 0x1)
	exp := uint32((h >> 10) & 0x1F)
	mant := uint32(h & 0x3FF)

	var outBits uint32
	switch exp {
	case 0:
		outBits = sign << 31
	case 0x1F:
		outBits = (sign << 31) | 0x7F800000
		if mant != 0 {
			outBits |= mant << 13
		}
	default:
		outBits = (sign << 31) | ((exp + 127 - 15) << 23) | (mant << 13)
	}
	return math.Float32frombits(outBits)
}

func Float32ToFloat16Slice(src []float32, dst []uint16) {
	for i, v := range src {
		dst[i] = Float32ToFloat16(v)
	}
}

func Float16ToFloat32Slice(src []uint16, dst []float32) {
	for i, v := range src {
		dst[i] = Float16ToFloat32(v)
	}
}
