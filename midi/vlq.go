package midi

import (
	"fmt"
)

// MaxVLQ is the largest value a 4-byte variable-length quantity can hold.
const MaxVLQ = 0x0fffffff

// AppendVLQ appends n to dst as a MIDI variable-length quantity: 7 bits per
// byte, most significant group first, continuation bit set on all but the
// last byte.
func AppendVLQ(dst []byte, n uint32) ([]byte, error) {
	if n > MaxVLQ {
		return dst, fmt.Errorf("integer 0x%08x is too large for a variable-length quantity", n)
	}
	var groups [4]byte
	i := len(groups) - 1
	groups[i] = byte(n & 0x7f)
	for n >>= 7; n != 0; n >>= 7 {
		i--
		groups[i] = byte(n&0x7f) | 0x80
	}
	return append(dst, groups[i:]...), nil
}

// EncodeVLQ returns the variable-length encoding of n.
func EncodeVLQ(n uint32) ([]byte, error) {
	return AppendVLQ(make([]byte, 0, 4), n)
}

// DecodeVLQ reads a variable-length quantity from the start of b and returns
// its value and the number of bytes consumed.
func DecodeVLQ(b []byte) (uint32, int, error) {
	d := decoder{buf: b}
	n, err := d.vlq()
	return n, d.pos, err
}

// AppendFixed appends the low size bytes of n to dst, most significant first.
func AppendFixed(dst []byte, n uint32, size int) []byte {
	for i := size - 1; i >= 0; i-- {
		dst = append(dst, byte(n>>(8*uint(i))))
	}
	return dst
}

// EncodeFixed returns n as a size-byte big-endian integer.
func EncodeFixed(n uint32, size int) []byte {
	return AppendFixed(make([]byte, 0, size), n, size)
}

// DecodeFixed reads a size-byte big-endian integer from the start of b.
func DecodeFixed(b []byte, size int) (uint32, error) {
	d := decoder{buf: b}
	return d.fixed(size)
}

// EncodeText returns s prefixed with its byte length as a variable-length
// quantity, the layout used by text meta events.
func EncodeText(s string) ([]byte, error) {
	out, err := AppendVLQ(make([]byte, 0, len(s)+4), uint32(len(s)))
	if err != nil {
		return nil, err
	}
	return append(out, s...), nil
}

// DecodeText reads a length-prefixed string from the start of b and returns it
// with the number of bytes consumed.
func DecodeText(b []byte) (string, int, error) {
	d := decoder{buf: b}
	n, err := d.vlq()
	if err != nil {
		return "", d.pos, err
	}
	data, err := d.take(int(n))
	if err != nil {
		return "", d.pos, err
	}
	return string(data), d.pos, nil
}
