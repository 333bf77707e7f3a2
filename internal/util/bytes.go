package util

func CopyBytes(src []byte) []byte {
	if src == nil {
		return nil
	}
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}

// WipeBytes zeroes b in place.
func WipeBytes(b []byte) {
	clear(b)
}
