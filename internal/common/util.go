package common

// WipeByteArray overwrites every byte of b with zeros. Used to clear
// passwords from memory once they are no longer needed. Safe on nil.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
