// Package common holds small helpers shared by the client packages.
package common

// WipeByteArray overwrites b with zeros. Used for passwords once they have
// been sent. A nil slice is left alone.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
