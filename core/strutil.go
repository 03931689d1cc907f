package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}

	return string(buf[pos:])
}

// milli converts a speed in rev/s to milli-rev/s for the timing ring and
// debug output. Negative speeds keep their sign bit in two's complement.
func milli(rps float64) uint32 {
	return uint32(int32(rps * 1000))
}

// ftoa formats a speed with three decimals, e.g. "0.590"
func ftoa(rps float64) string {
	m := int(rps * 1000)
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	frac := utoa(uint32(m % 1000))
	for len(frac) < 3 {
		frac = "0" + frac
	}
	return sign + itoa(m/1000) + "." + frac
}
