// Package conv provides allocation-free number formatting usable from TinyGo
// builds where fmt is too heavy.
package conv

const hexd = "0123456789abcdef"

// AppendUint appends the base-10 representation of n to dst.
func AppendUint(dst []byte, n uint64) []byte {
	var buf [20]byte
	i := len(buf)
	if n == 0 {
		i--
		buf[i] = '0'
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return append(dst, buf[i:]...)
}

// AppendHex8 appends n as "0x" followed by two lowercase hex digits.
func AppendHex8(dst []byte, n uint8) []byte {
	return append(dst, '0', 'x', hexd[n>>4], hexd[n&0x0F])
}

// Hex8 is AppendHex8 into a fresh string.
func Hex8(n uint8) string {
	var buf [4]byte
	return string(AppendHex8(buf[:0], n))
}
