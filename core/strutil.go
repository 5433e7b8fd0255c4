package core

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

// FormatMilli renders a value held in thousandths, e.g. 24012 → "24.012".
func FormatMilli(v int32) string {
	sign := ""
	u := uint32(v)
	if v < 0 {
		sign = "-"
		u = uint32(-int64(v))
	}
	frac := utoa(u % 1000)
	for len(frac) < 3 {
		frac = "0" + frac
	}
	return sign + utoa(u/1000) + "." + frac
}
