package mathx

// MapU8 maps x in [inMin,inMax] to [outMin,outMax] with 16-bit intermediates.
// Inputs outside the range clamp to the nearest output bound.
func MapU8(x, inMin, inMax, outMin, outMax uint8) uint8 {
	if inMax <= inMin {
		return outMin
	}
	if x <= inMin {
		return outMin
	}
	if x >= inMax {
		return outMax
	}
	if outMax < outMin {
		num := uint16(x-inMin) * uint16(outMin-outMax)
		return outMin - uint8(num/uint16(inMax-inMin))
	}
	num := uint16(x-inMin) * uint16(outMax-outMin)
	return outMin + uint8(num/uint16(inMax-inMin))
}
